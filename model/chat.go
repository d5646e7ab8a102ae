package model

// MessageType distinguishes who authored a transcript entry
type MessageType string

const (
	MessageUser MessageType = "user"
	MessageAI   MessageType = "ai"
)

// ChatMessage is one transcript entry
type ChatMessage struct {
	Type     MessageType `json:"type"`
	Text     string      `json:"text"`
	Source   string      `json:"source,omitempty"`
	FileName string      `json:"file_name,omitempty"`
}

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Query string `json:"query"`
	DocID string `json:"doc_id,omitempty"`
}

// ChatResponse is the body returned by POST /chat
type ChatResponse struct {
	Answer string `json:"answer"`
	Source string `json:"source,omitempty"`
}
