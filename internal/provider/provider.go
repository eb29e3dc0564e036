// Package provider defines the common interface every remote calendar
// source implements, and dispatches a credential to its concrete
// implementation. Grounded on spec.md §4.9's "small sum type" provider
// design and original_source/common/src/calendar's per-service modules.
package provider

import (
	"context"

	"github.com/watson-app/watson/internal/caldav"
	"github.com/watson-app/watson/internal/calmodel"
	"github.com/watson-app/watson/internal/credstore"
	"github.com/watson-app/watson/internal/google"
)

// Provider is implemented by every remote calendar source.
type Provider interface {
	// Init performs any one-time setup a provider needs before it can
	// list calendars (e.g. CalDAV principal discovery).
	Init(ctx context.Context) error

	// Refresh renews short-lived credentials if the provider has any,
	// writing updated tokens back into the credential it was
	// constructed with.
	Refresh(ctx context.Context) error

	// ListCalendars enumerates the calendars this credential can see.
	ListCalendars(ctx context.Context) ([]calmodel.CalendarInfo, error)

	// FetchEvents fetches every event for the given calendars.
	FetchEvents(ctx context.Context, calendars []calmodel.CalendarInfo) ([]calmodel.Event, error)
}

// New dispatches on cred.Service to the matching Provider
// implementation. Service == ServiceNone returns (nil, nil): the
// orchestrator skips credentials with no matching provider rather than
// treating it as an error (spec.md §4.9).
func New(cred *credstore.Credential) (Provider, error) {
	switch cred.Service {
	case credstore.ServiceICloud:
		return caldav.New(cred), nil
	case credstore.ServiceGoogle:
		return google.New(cred), nil
	default:
		return nil, nil
	}
}
