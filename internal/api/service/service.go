// Package service provides business logic for the REST API.
package service

import (
	"errors"
	"os"

	"github.com/remiblancher/cast5-cms/internal/audit"
)

// ErrInvalidRequest indicates a request the service cannot act on.
var ErrInvalidRequest = errors.New("invalid request")

// ServiceName identifies the API in audit events.
const ServiceName = "cast5cms-api"

func serviceActor() audit.Actor {
	host, _ := os.Hostname()
	return audit.Actor{Type: "service", ID: ServiceName, Host: host}
}

// record writes event with the outcome of the operation. An audit failure
// replaces a nil opErr; otherwise opErr is returned unchanged.
func record(event *audit.Event, opErr error) error {
	event.WithActor(serviceActor()).WithError(opErr)
	if err := audit.MustLog(event); err != nil && opErr == nil {
		return err
	}
	return opErr
}
