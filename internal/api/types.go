package api

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// MessageResponse is the body of the root endpoint
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the body of the health check
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// TranscriptionResponse carries a transcript or the sentinel text that
// replaces it
type TranscriptionResponse struct {
	Text      string `json:"text"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// ChatResponse carries the completion or the fallback reply
type ChatResponse struct {
	Response  string `json:"response"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// VoiceChatErrorResponse reports where a voice chat round stopped and the
// text produced before that
type VoiceChatErrorResponse struct {
	Error      string `json:"error"`
	Stage      string `json:"stage"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Response   string `json:"response,omitempty"`
}
