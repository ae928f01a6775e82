package model

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse pairs the model reply with the ranked recommendations.
// Recommendations holds at most three clubs and encodes as [] when empty.
type ChatResponse struct {
	Reply           string `json:"reply"`
	Recommendations []Club `json:"recommendations"`
}
