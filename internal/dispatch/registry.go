package dispatch

import (
	"context"
	"net/http"
	"sort"

	"github.com/joss/termfolio/internal/domain"
	"github.com/joss/termfolio/internal/viewer"
)

// Doer is the HTTP client shape handlers fetch with.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Deps is the bundle a registry is built from. Every function is safe to
// call from a handler goroutine; the session routes them onto its loop.
type Deps struct {
	// AppendResponse is the only way handler output reaches the screen.
	AppendResponse     func(domain.CommandResponse)
	SetLastInteraction func(string)
	Viewer             viewer.Viewer
	HTTP               Doer
	FlushTyping        func()
}

// Handler runs one numbered command. A returned error (or a panic) is
// reported by the dispatcher as an error line plus a muted detail line.
type Handler func(ctx context.Context) error

// Module is a registered numbered command.
type Module struct {
	ID      int
	Name    string
	Title   string
	Handler Handler
}

// Loader builds the registry once. It runs off the session loop.
type Loader func(ctx context.Context, deps Deps) (*Registry, error)

// Registry maps command ids to modules.
type Registry struct {
	modules map[int]Module
}

// NewRegistry returns a registry holding mods.
func NewRegistry(mods ...Module) *Registry {
	r := &Registry{modules: make(map[int]Module, len(mods))}
	for _, m := range mods {
		r.Register(m)
	}
	return r
}

// Register adds or replaces a module.
func (r *Registry) Register(m Module) {
	r.modules[m.ID] = m
}

// Get returns the module registered for id.
func (r *Registry) Get(id int) (Module, bool) {
	if r == nil {
		return Module{}, false
	}
	m, ok := r.modules[id]
	return m, ok
}

// Len is the number of registered modules.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.modules)
}

// List returns the modules ordered by id.
func (r *Registry) List() []Module {
	if r == nil {
		return nil
	}
	mods := make([]Module, 0, len(r.modules))
	for _, m := range r.modules {
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool {
		return mods[i].ID < mods[j].ID
	})
	return mods
}

// Resolve returns the handler for commandID, if registered.
func Resolve(r *Registry, commandID int) (Handler, bool) {
	m, ok := r.Get(commandID)
	if !ok || m.Handler == nil {
		return nil, false
	}
	return m.Handler, true
}
