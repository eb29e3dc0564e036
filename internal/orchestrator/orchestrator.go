// Package orchestrator ties the credential store, the remote
// providers, the event store, and the layout cache into the single
// cooperative refresh pipeline spec.md §4.10/§5 describes. There is no
// mutex on the event store: every mutation happens inside Run's loop,
// on the one goroutine that owns it; provider fetches run on their own
// goroutines and hand results back as a posted continuation, standing
// in for the single-threaded UI task of the original design. Grounded
// on original_source/client/src/ui/widgets/calendar/data_store.rs's
// refresh and main.rs's startup sequence.
package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watson-app/watson/internal/calmodel"
	"github.com/watson-app/watson/internal/credstore"
	"github.com/watson-app/watson/internal/eventstore"
	"github.com/watson-app/watson/internal/layout"
	"github.com/watson-app/watson/internal/provider"
)

// CalendarFilter decides whether an event from the named calendar is
// admitted into the store; nil means "allow everything" (data_store.rs's
// refresh: Some(selection) vs. the else branch).
type CalendarFilter func(calendarName string) bool

type windowState struct {
	width       float64
	height      float64
	windowStart time.Time
}

// Orchestrator owns the event store and the layout cache and is the
// only thing allowed to mutate either.
type Orchestrator struct {
	store  *eventstore.Store
	cache  *layout.Cache
	window layout.Window

	continuations chan func()

	// Updated receives a value every time the store or the layout cache
	// changes in a way that warrants a redraw. It is buffered at 1:
	// a pending signal is enough, coalescing bursts of updates.
	Updated chan struct{}

	lastWindow windowState
}

// New builds an Orchestrator around an already-loaded store.
func New(store *eventstore.Store, window layout.Window) *Orchestrator {
	return &Orchestrator{
		store:         store,
		cache:         &layout.Cache{},
		window:        window,
		continuations: make(chan func(), 64),
		Updated:       make(chan struct{}, 1),
	}
}

// Cache exposes the orchestrator's layout cache to the draw path.
func (o *Orchestrator) Cache() *layout.Cache { return o.cache }

// Load reads the on-disk cache (best-effort; a missing file is not an
// error) and builds an Orchestrator around it, per spec.md §4.10 step 1.
func Load(window layout.Window) (*Orchestrator, error) {
	today := time.Now().Local()
	store, err := eventstore.Load(today)
	if err != nil {
		return nil, err
	}
	return New(store, window), nil
}

// Run drains posted continuations until ctx is done. It must be
// called from exactly one goroutine: every store or cache mutation
// happens here.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-o.continuations:
			fn()
		}
	}
}

// Post enqueues a continuation to run on the orchestrator's goroutine.
// Safe to call from any goroutine, matching spec.md §5's "cross-task
// delivery happens by scheduling a continuation onto the UI task".
func (o *Orchestrator) Post(fn func()) {
	o.continuations <- fn
}

func (o *Orchestrator) signalUpdated() {
	select {
	case o.Updated <- struct{}{}:
	default:
	}
}

// Refresh runs one credential-manager unlock plus an Init ->
// ListCalendars -> FetchEvents pass per credential, on a background
// goroutine, then posts the merged result back onto Run's goroutine.
// A credential whose provider fails any step is logged and skipped;
// its failure never discards other credentials' events (spec.md §4.10,
// §5's "on error, the store is left untouched").
func (o *Orchestrator) Refresh(ctx context.Context, allowed CalendarFilter) {
	go o.refreshAsync(ctx, allowed)
}

func (o *Orchestrator) refreshAsync(ctx context.Context, allowed CalendarFilter) {
	mgr, err := credstore.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load credential manager")
		return
	}
	if err := mgr.Unlock(); err != nil {
		log.Error().Err(err).Msg("failed to unlock credential manager")
		return
	}

	var batch []calmodel.Event
	for i := range mgr.Credentials {
		cred := &mgr.Credentials[i]

		p, err := provider.New(cred)
		if err != nil {
			log.Error().Err(err).Str("credential", cred.ID).Msg("failed to build provider")
			continue
		}
		if p == nil {
			continue
		}

		if err := p.Init(ctx); err != nil {
			log.Error().Err(err).Str("credential", cred.ID).Msg("provider init failed")
			continue
		}

		calendars, err := p.ListCalendars(ctx)
		if err != nil {
			log.Error().Err(err).Str("credential", cred.ID).Msg("list calendars failed")
			continue
		}

		events, err := p.FetchEvents(ctx, calendars)
		if err != nil {
			log.Error().Err(err).Str("credential", cred.ID).Msg("fetch events failed")
			continue
		}

		batch = append(batch, events...)
	}

	o.Post(func() {
		o.mergeBatch(batch, allowed)
	})
}

// mergeBatch admits batch into the store, rewrites the on-disk cache
// if anything new was admitted, and invalidates the layout cache so
// the next draw recomputes hitboxes (spec.md §4.10 step 3).
func (o *Orchestrator) mergeBatch(batch []calmodel.Event, allowed CalendarFilter) {
	if len(batch) == 0 {
		return
	}

	today := time.Now().Local()
	admitted := o.store.Merge(batch, today, allowed)
	if admitted == 0 {
		return
	}

	if err := o.store.Save(); err != nil {
		log.Error().Err(err).Msg("failed to save event cache")
	}

	o.cache.Hitboxes = nil
	o.signalUpdated()
}

// Tick re-evaluates the draw window for (width, height) at now; if
// the window start, width, or height changed since the last tick, it
// drops the cached hitboxes and signals an update so the next draw
// recomputes them. Intended to be driven by a 60-second ticker
// (spec.md §4.10).
func (o *Orchestrator) Tick(now time.Time, width, height float64) {
	_, windowStart, _ := o.window.Compute(now)

	if width == o.lastWindow.width &&
		height == o.lastWindow.height &&
		windowStart.Equal(o.lastWindow.windowStart) {
		return
	}

	o.lastWindow = windowState{width: width, height: height, windowStart: windowStart}
	o.cache.Hitboxes = nil
	o.signalUpdated()
}
