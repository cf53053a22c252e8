package ipc

import (
	"encoding/json"

	"encodeforge/internal/subtitles"
)

// Request is the envelope for one inbound line. Exactly one of the payload
// fields is read, selected by Action.
type Request struct {
	Action    string                     `json:"action"` // "search", "batch_search", "download"
	VideoPath string                     `json:"videoPath,omitempty"`
	Languages []string                   `json:"languages,omitempty"`
	Files     []subtitles.BatchEntry     `json:"files,omitempty"`
	Download  *subtitles.DownloadRequest `json:"download,omitempty"`
}

// ErrorResponse reports a request the server could not act on at all, as
// opposed to engine-level outcomes which have their own shapes.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorResponse(message string) ErrorResponse {
	return ErrorResponse{Status: "error", Message: message}
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Every message type in this package is marshalable; a failure here
		// is a programming error.
		panic(err)
	}
	return data
}
