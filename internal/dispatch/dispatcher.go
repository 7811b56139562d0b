package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joss/termfolio/internal/domain"
	"github.com/joss/termfolio/internal/logging"
	"github.com/joss/termfolio/internal/metrics"
	"github.com/joss/termfolio/internal/selftest"
	tfstrings "github.com/joss/termfolio/internal/strings"
)

// State is the lifecycle of the command registry.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	initializingText = "initializing command modules..."
	failedText       = "command modules failed to load"
	detailLimit      = 160
)

// ErrNoLoader is reported when a dispatcher has nothing to build a registry with.
var ErrNoLoader = errors.New("no command loader configured")

// Sink receives the dispatcher's own lines and status. It is only called on
// the owner's loop.
type Sink struct {
	AppendResponse     func(domain.CommandResponse)
	SetLastInteraction func(string)
}

// Options configures a Dispatcher.
type Options struct {
	Loader Loader
	// Deps is handed to the loader and, through it, to handlers.
	Deps Deps
	// Sink defaults to the output functions in Deps.
	Sink Sink

	// Post runs fn on the owner's loop. Registry completion is delivered
	// through it so that dispatcher state only changes on that loop.
	Post func(fn func())

	Metrics *metrics.Metrics
}

type deferredRun struct {
	ctx context.Context
	id  int
}

// Dispatcher routes numbered commands to registry handlers. Its methods
// must be called from the owner's loop; handlers run on their own
// goroutines and only talk back through Deps. Handler failures are posted
// back to the loop before they are reported.
type Dispatcher struct {
	loader  Loader
	deps    Deps
	out     Sink
	post    func(func())
	metrics *metrics.Metrics
	log     *logging.Logger

	state    State
	registry *Registry
	loadErr  error
	deferred []deferredRun
	running  int
}

// New creates a dispatcher. The registry is not loaded until Load or the
// first numbered command. The last recorded error starts out empty.
func New(opts Options) *Dispatcher {
	selftest.ClearLastError()
	post := opts.Post
	if post == nil {
		post = func(fn func()) { fn() }
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.Global()
	}
	out := opts.Sink
	if out.AppendResponse == nil {
		out.AppendResponse = opts.Deps.AppendResponse
	}
	if out.SetLastInteraction == nil {
		out.SetLastInteraction = opts.Deps.SetLastInteraction
	}
	return &Dispatcher{
		loader:  opts.Loader,
		deps:    opts.Deps,
		out:     out,
		post:    post,
		metrics: m,
		log:     logging.New("dispatch"),
	}
}

// State reports the registry state.
func (d *Dispatcher) State() State { return d.state }

// Running is the number of handlers that have not finished yet.
func (d *Dispatcher) Running() int { return d.running }

// LoadErr is the reason the registry failed to load, if it did.
func (d *Dispatcher) LoadErr() error { return d.loadErr }

// Modules lists the loaded modules; nil until the registry is loaded.
func (d *Dispatcher) Modules() []Module {
	if d.state != StateLoaded {
		return nil
	}
	return d.registry.List()
}

// Resolve looks up a handler in the loaded registry.
func (d *Dispatcher) Resolve(id int) (Handler, bool) {
	if d.state != StateLoaded {
		return nil, false
	}
	return Resolve(d.registry, id)
}

// Load starts building the registry in the background. It is a no-op once
// loading has started; a failed load is not retried.
func (d *Dispatcher) Load(ctx context.Context) {
	if d.state != StateUninitialized {
		return
	}
	d.state = StateLoading
	loader, deps := d.loader, d.deps
	logging.SafeGo("dispatch", func() {
		start := time.Now()
		var reg *Registry
		err := logging.NewRecoveryHandler("dispatch.loader").WrapError(func() error {
			if loader == nil {
				return ErrNoLoader
			}
			var err error
			reg, err = loader(ctx, deps)
			return err
		})
		if err == nil && reg.Len() == 0 {
			err = errors.New("registry is empty")
		}
		logging.RegistryEvent(reg.Len(), time.Since(start), err)
		d.post(func() { d.finishLoad(reg, err) })
	})
}

func (d *Dispatcher) finishLoad(reg *Registry, err error) {
	d.metrics.RecordRegistryLoad(err == nil)
	pending := d.deferred
	d.deferred = nil

	if err != nil {
		d.state = StateFailed
		d.loadErr = err
		selftest.SetLastError(fmt.Errorf("registry: %w", err))
		d.reportLoadFailure()
		return
	}
	d.state = StateLoaded
	d.registry = reg
	for _, p := range pending {
		d.Run(p.ctx, p.id)
	}
}

func (d *Dispatcher) reportLoadFailure() {
	lines := []domain.LineSpec{{Kind: domain.KindError, Text: failedText, Instant: true}}
	if d.loadErr != nil {
		lines = append(lines, domain.LineSpec{
			Kind:    domain.KindMuted,
			Text:    detail(d.loadErr),
			Instant: true,
		})
	}
	d.out.AppendResponse(domain.CommandResponse{Lines: lines})
	d.out.SetLastInteraction("modules: failed")
}

// Run dispatches numbered command id. While the registry is loading the
// command is acknowledged with one line and replayed once it resolves.
func (d *Dispatcher) Run(ctx context.Context, id int) {
	switch d.state {
	case StateUninitialized:
		d.Load(ctx)
		fallthrough
	case StateLoading:
		d.deferred = append(d.deferred, deferredRun{ctx: ctx, id: id})
		d.out.AppendResponse(domain.Respond(domain.LineSpec{
			Kind: domain.KindMuted, Text: initializingText, Instant: true,
		}))
		d.out.SetLastInteraction("initializing")
	case StateFailed:
		d.reportLoadFailure()
	case StateLoaded:
		mod, ok := d.registry.Get(id)
		if !ok || mod.Handler == nil {
			d.metrics.RecordUnknown()
			d.out.AppendResponse(domain.Respond(
				domain.LineSpec{Kind: domain.KindError, Text: fmt.Sprintf("unknown command: %d", id), Instant: true},
				domain.LineSpec{Kind: domain.KindMuted, Text: d.rangeHint(), Instant: true},
			))
			d.out.SetLastInteraction(fmt.Sprintf("unknown command %d", id))
			return
		}
		d.launch(ctx, mod)
	}
}

func (d *Dispatcher) rangeHint() string {
	mods := d.registry.List()
	if len(mods) == 0 {
		return "no sections available"
	}
	return fmt.Sprintf("choose %d-%d, or type /help", mods[0].ID, mods[len(mods)-1].ID)
}

// launch runs a handler on its own goroutine. Errors and panics stop at
// this boundary and become output. Completion is always posted back, after
// anything the handler itself posted.
func (d *Dispatcher) launch(ctx context.Context, mod Module) {
	ctx = logging.WithTraceID(ctx, "")
	log := d.log.WithContext(ctx)
	log.Debug("module_start", map[string]interface{}{"module": mod.Name, "id": mod.ID})
	d.out.SetLastInteraction(mod.Name + ": loading")
	d.running++

	go func() {
		start := time.Now()
		err := logging.NewRecoveryHandler("module." + mod.Name).WrapError(func() error {
			return mod.Handler(ctx)
		})
		d.metrics.RecordModule(err == nil, time.Since(start).Milliseconds())
		log.TimedEvent("module_done", start, map[string]interface{}{
			"module":  mod.Name,
			"success": err == nil,
		}, err)
		d.post(func() {
			d.running--
			if err != nil {
				d.reportFailure(mod, err)
			}
		})
	}()
}

func (d *Dispatcher) reportFailure(mod Module, err error) {
	selftest.SetLastError(fmt.Errorf("%s: %w", mod.Name, err))
	d.out.AppendResponse(domain.Respond(
		domain.LineSpec{Kind: domain.KindError, Text: fmt.Sprintf("[error] %s unavailable", mod.Name), Instant: true},
		domain.LineSpec{Kind: domain.KindMuted, Text: detail(err), Instant: true},
	))
	d.out.SetLastInteraction(mod.Name + ": failed")
}

func detail(err error) string {
	return tfstrings.TruncateRunes(tfstrings.Oneline(err.Error()), detailLimit)
}
