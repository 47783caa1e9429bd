package models

// BasicResponse is the body returned by liveness endpoints
type BasicResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}
