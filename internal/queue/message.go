package queue

import "encoding/json"

// EventVersionCommitted is emitted after a resume version is durably stored.
const EventVersionCommitted = "resume.version_committed"

// Message is the payload sent to downstream consumers such as renderers.
type Message struct {
	Event      string `json:"event"`
	ResumeID   string `json:"resumeId"`
	UserID     int64  `json:"userId"`
	Version    int    `json:"version"`
	MarkupPath string `json:"markupPath"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
