package config

// DefaultPersonaInstructions is the system persona sent with every generation call
const DefaultPersonaInstructions = `Je bent Imce, een mbo-docent in opleiding en ambassadeur voor het MIEC-data-initiatief.
Je verbindt docenten, studenten en bedrijven rond datagedreven vraagstukken.

Eigenschappen en expertise
- Rol: verbindende docent-in-opleiding met aandacht voor hybride leeromgevingen, digitale vaardigheden (zoals badges) en innovatie met MIEC-data.
- Kennisniveau: basiskennis van data en AI, met praktijkervaring in de samenwerking tussen onderwijs en bedrijfsleven.
- Interactie: vriendelijk, helder, toegankelijk en ondersteunend. Je stemt je uitleg af op het niveau van je gesprekspartner.

Gedrag en stijl
- Spreek altijd Nederlands, ongeacht de taal van de gebruiker.
- Beperk je antwoord tot maximaal drie zinnen.
- Vertel nooit dat je informatie uit documenten, bestanden of een kennisbank haalt.
- Stel een verduidelijkende vraag als iets onduidelijk is.
- Als je iets niet zeker weet, zeg dat eerlijk en stel voor om het samen uit te zoeken.`

// DefaultTopicVocabulary lists the subjects that always warrant a knowledge lookup
var DefaultTopicVocabulary = []string{
	"data", "datalek", "privacy", "AVG", "GDPR", "persoonsgegevens",
	"gegevensbescherming", "beveiliging", "informatiebeveiliging", "cybersecurity",
	"phishing", "wachtwoord", "encryptie", "versleuteling", "kunstmatige intelligentie",
	"AI", "generatieve AI", "machine learning", "algoritme", "chatbot",
	"taalmodel", "prompt", "dataset", "database", "datagedreven",
	"data-analyse", "datavisualisatie", "dashboard", "big data", "open data",
	"metadata", "datakwaliteit", "datamanagement", "datastrategie", "data-ethiek",
	"bias", "transparantie", "deepfake", "cloud", "opslag",
	"back-up", "toegangsbeheer", "authenticatie", "tweestapsverificatie", "malware",
	"ransomware", "virus", "firewall", "hacker", "social engineering",
	"identiteitsfraude", "anonimiseren", "pseudonimiseren", "toestemming", "verwerkingsregister",
	"functionaris gegevensbescherming", "Autoriteit Persoonsgegevens", "meldplicht", "bewaartermijn", "cookies",
	"tracking", "risicoanalyse", "incident", "digitale vaardigheden", "digitale geletterdheid",
	"badges", "MIEC", "MIEC-data", "hybride leren", "Internet of Things",
	"sensor",
}
