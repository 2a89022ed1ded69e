package model

// Query is the transient per-request value flowing through the pipeline
type Query struct {
	Raw        string   `json:"raw"`
	Normalized string   `json:"normalized"`
	Category   Category `json:"category"`
}

// ChatRequest represents a JSON chat request
type ChatRequest struct {
	Message  string `json:"message" binding:"required"`
	Category string `json:"category,omitempty"` // rental, sale or empty for auto-detection
}

// ChatResponse represents a JSON chat response
type ChatResponse struct {
	Listings       string `json:"listings"`
	Buildings      string `json:"buildings"`
	Amenities      string `json:"amenities"`
	RelevantData   string `json:"relevant_data"`
	Category       string `json:"category"`
	UsedFallback   bool   `json:"used_fallback"`
	FallbackStatus string `json:"fallback_status,omitempty"`
	Reply          string `json:"reply"`
	Took           int64  `json:"took_ms"` // Response time in milliseconds
}
