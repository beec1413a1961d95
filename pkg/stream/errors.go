package stream

import "errors"

// Common errors for the stream package.
var (
	// ErrRemoteClosed indicates the peer sent a close frame.
	ErrRemoteClosed = errors.New("connection closed by remote")
	// ErrMessageTooLarge indicates a message exceeded the configured size limit.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrInvalidUTF8 indicates a text message that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("text message is not valid utf-8")
	// ErrQueueFull indicates the queue reached its maximum depth.
	ErrQueueFull = errors.New("message queue full")
	// ErrRetriesExhausted indicates the worker gave up after too many failed connection attempts.
	ErrRetriesExhausted = errors.New("connection retries exhausted")
	// ErrUnknownTransport indicates an unsupported transport name.
	ErrUnknownTransport = errors.New("unknown transport")
)
