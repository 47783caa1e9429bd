package models

// RetrievalResult is one ranked snippet returned by the document index
type RetrievalResult struct {
	Rank  int     `json:"rank"`  // 1-based, contiguous
	Text  string  `json:"text"`  // Snippet text, verbatim from the index
	Score float64 `json:"score"` // Relevance score reported by the index
}

// Ranked assigns contiguous 1-based ranks to texts in their given order
func Ranked(texts []string, scores []float64) []RetrievalResult {
	results := make([]RetrievalResult, 0, len(texts))
	for i, text := range texts {
		result := RetrievalResult{Rank: i + 1, Text: text}
		if i < len(scores) {
			result.Score = scores[i]
		}
		results = append(results, result)
	}
	return results
}
