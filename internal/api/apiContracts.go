package api

// ChatRequest is the /chat input. K defaults to the configured top-k
// when zero.
type ChatRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// Source cites one retrieved passage; Text is truncated for transport.
type Source struct {
	Filename string  `json:"filename"`
	Page     int     `json:"page"`
	Text     string  `json:"text"`
	Score    float32 `json:"score"`
}

type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Model     string `json:"model"`
	Fragments int    `json:"fragments"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
