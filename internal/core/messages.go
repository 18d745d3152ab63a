package core

import (
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/ssml-service/internal/ssml"
)

// ValidationRequest asks the service to validate a document. Exactly one of
// SSML and DocumentKey is expected; DocumentKey refers to the documents
// bucket. Speak requests audio for the document regardless of the verdict.
type ValidationRequest struct {
	Header      events.EventHeader `json:"header"`
	SSML        string             `json:"ssml,omitempty"`
	DocumentKey string             `json:"document_key,omitempty"`
	Speak       bool               `json:"speak,omitempty"`
}

// ValidationReply answers a ValidationRequest. Result is nil when the
// document could not be obtained.
type ValidationReply struct {
	Header            events.EventHeader `json:"header"`
	Result            *ssml.Result       `json:"result,omitempty"`
	Variant           ssml.Variant       `json:"variant,omitempty"`
	ReportKey         string             `json:"report_key,omitempty"`
	AudioKey          string             `json:"audio_key,omitempty"`
	PlainTextFallback bool               `json:"plain_text_fallback,omitempty"`
	Error             string             `json:"error,omitempty"`
}

// ValidationReport is the document stored in the reports bucket.
type ValidationReport struct {
	Header      events.EventHeader `json:"header"`
	DocumentKey string             `json:"document_key,omitempty"`
	Variant     ssml.Variant       `json:"variant"`
	Result      ssml.Result        `json:"result"`
	ValidatedAt time.Time          `json:"validated_at"`
}
