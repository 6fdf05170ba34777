package goBoard

import (
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/goBoard/internal/audit"
)

// AuditEvent is one session or guard event.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the Engine's dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink discards events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers events in a channel, for tests and in-process consumers.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink logs events through a slog.Logger. It is the Engine's sink when audit is
// enabled and no other sink was configured.
type SlogSink = internalaudit.SlogSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
