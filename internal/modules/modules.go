// Package modules holds the numbered sections of the portfolio. Each one
// fetches a JSON document from the API, validates its shape and prints it.
package modules

import (
	"context"
	"fmt"
	"sort"

	"github.com/joss/termfolio/internal/config"
	"github.com/joss/termfolio/internal/dispatch"
	"github.com/joss/termfolio/internal/domain"
)

// Names lists the module names in command order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, s := range catalog {
		names[i] = s.name
	}
	return names
}

// Default returns the loader for the built-in sections, fetching from
// cfg.APIBase.
func Default(cfg config.Config) dispatch.Loader {
	return func(ctx context.Context, deps dispatch.Deps) (*dispatch.Registry, error) {
		if err := checkEndpoints(cfg.Endpoints); err != nil {
			return nil, err
		}
		client := NewClient(cfg.APIBase, deps.HTTP, cfg.HTTPTimeout, cfg.Endpoints)
		e := env{client: client, viewer: deps.Viewer}

		reg := dispatch.NewRegistry()
		for _, s := range catalog {
			reg.Register(dispatch.Module{
				ID:      s.id,
				Name:    s.name,
				Title:   s.title,
				Handler: s.handler(client, e, deps),
			})
		}
		return reg, nil
	}
}

func checkEndpoints(endpoints map[string]string) error {
	known := make(map[string]bool, len(catalog))
	for _, s := range catalog {
		known[s.endpoint] = true
	}
	var unknown []string
	for name := range endpoints {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("endpoint override for unknown module %q", unknown[0])
}

// handler prints a progress line, fetches and renders. Failures are
// returned to the dispatcher, which reports them.
func (s section) handler(client *Client, e env, deps dispatch.Deps) dispatch.Handler {
	return func(ctx context.Context) error {
		deps.AppendResponse(domain.Respond(domain.LineSpec{
			Kind: domain.KindMuted, Text: "fetching " + s.name + "...", Instant: true,
		}))
		deps.SetLastInteraction(s.name + ": fetching")

		doc, err := client.Fetch(ctx, s.endpoint, s.schema)
		if err != nil {
			return err
		}
		deps.AppendResponse(s.render(doc, e))
		deps.SetLastInteraction(s.name + ": ok")
		return nil
	}
}
