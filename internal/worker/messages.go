package worker

import "github.com/raine/vinscripted/internal/listing"

// Action names a request handled by the worker.
type Action string

const (
	ActionAnalyzeImages Action = "analyzeImages"
	ActionFetchImage    Action = "fetchImage"
)

// Message is a request sent from the page context to the worker.
type Message struct {
	Action     Action   `json:"action"`
	Images     []string `json:"images,omitempty"`
	Language   string   `json:"language,omitempty"`
	BackendURL string   `json:"backendUrl,omitempty"`
	URL        string   `json:"url,omitempty"`
}

// Response is the worker's reply. Error may arrive in any shape and must be
// normalized with listing.ErrorText before display.
type Response struct {
	Success bool            `json:"success"`
	Data    *listing.Result `json:"data,omitempty"`
	Base64  string          `json:"base64,omitempty"`
	Error   any             `json:"error,omitempty"`
}

const (
	MsgUnknownAction = "action inconnue"
	MsgAnalysisError = "Erreur lors de l'analyse"
	MsgFetchError    = "Impossible de récupérer l'image"
)
