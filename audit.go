package goAttend

import (
	"io"

	"github.com/MrEthical07/goAttend/internal/audit"
)

// AuditEvent is a single session-lifecycle record. It never carries tokens
// or passwords.
type AuditEvent = audit.Event

// AuditSink receives audit events from the Manager's dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink delivers audit events on a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes audit events as JSON lines.
type JSONWriterSink = audit.JSONWriterSink

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
