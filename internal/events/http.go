// Package events defines the payload types published on the event bus.
// Subscribers (telemetry, logging) observe the request lifecycle without
// the serving path depending on them.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when the handler begins serving a request.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the response is written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}
