package models

// ImageRequest is the body of POST /generate-image.
type ImageRequest struct {
	Keyword string `json:"keyword"`
}

type ImageResponse struct {
	ImageURL string `json:"imageUrl"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// GenerationEvent is the data of the event published after a successful
// generation.
type GenerationEvent struct {
	Keyword  string `json:"keyword"`
	ImageURL string `json:"image_url"`
}
