package modules

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/termfolio/internal/config"
	"github.com/joss/termfolio/internal/dispatch"
	"github.com/joss/termfolio/internal/domain"
	"github.com/joss/termfolio/internal/viewer"
)

var fixtures = map[string]string{
	"bio":         `{"name":"Jo","headline":"builder","summary":["one","two"]}`,
	"cv":          `{"roles":[{"title":"eng","org":"acme","period":"2020-2024"}],"pdf_url":"/files/cv.pdf"}`,
	"projects":    `{"projects":[{"name":"termfolio","description":"a terminal","url":"https://x.test"}]}`,
	"links":       `{"links":[{"label":"github","href":"https://github.com/jo"},{"label":"blog","href":"/blog"}]}`,
	"investments": `{"holdings":[{"ticker":"AAA","change":1.5},{"ticker":"BBB","change":-2},{"ticker":"CCC","change":0}],"as_of":"today"}`,
	"writing":     `{"posts":[{"title":"first","date":"2024-01-01","url":"/w/first"}]}`,
	"reel":        `{"title":"showreel","url":"https://video.test/reel"}`,
	"contact":     `{"email":"jo@example.com","socials":[{"label":"x","href":"https://x.test/jo"}]}`,
}

type recorder struct {
	mu        sync.Mutex
	responses []domain.CommandResponse
	status    []string
}

func (r *recorder) deps(v viewer.Viewer, doer dispatch.Doer) dispatch.Deps {
	return dispatch.Deps{
		AppendResponse: func(resp domain.CommandResponse) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.responses = append(r.responses, resp)
		},
		SetLastInteraction: func(s string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.status = append(r.status, s)
		},
		Viewer: v,
		HTTP:   doer,
	}
}

func fixtureServer(t *testing.T, overrides map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/api/")
		body, ok := overrides[name]
		if !ok {
			body, ok = fixtures[name]
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func load(t *testing.T, srv *httptest.Server, rec *recorder, v viewer.Viewer) *dispatch.Registry {
	t.Helper()
	cfg := config.Config{APIBase: srv.URL, HTTPTimeout: time.Second}
	reg, err := Default(cfg)(context.Background(), rec.deps(v, srv.Client()))
	require.NoError(t, err)
	return reg
}

func texts(resp domain.CommandResponse) []string {
	out := make([]string, len(resp.Lines))
	for i, l := range resp.Lines {
		out[i] = l.Text
	}
	return out
}

func TestDefaultRegistersEightSections(t *testing.T) {
	srv := fixtureServer(t, nil)
	reg := load(t, srv, &recorder{}, nil)

	require.Equal(t, 8, reg.Len())
	var names []string
	for _, m := range reg.List() {
		names = append(names, m.Name)
	}
	assert.Equal(t, Names(), names)
	assert.Equal(t, []string{"bio", "cv", "projects", "links", "investments", "writing", "reel", "contact"}, names)
}

func TestDefaultRejectsUnknownOverride(t *testing.T) {
	cfg := config.Config{Endpoints: map[string]string{"zeta": "/z", "alpha": "/a"}}
	_, err := Default(cfg)(context.Background(), dispatch.Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"alpha"`)
}

func run(t *testing.T, reg *dispatch.Registry, id int) {
	t.Helper()
	h, ok := dispatch.Resolve(reg, id)
	require.True(t, ok)
	require.NoError(t, h(context.Background()))
}

func TestSections(t *testing.T) {
	tests := []struct {
		id     int
		name   string
		expect []string
	}{
		{1, "bio", []string{"Jo", "builder", "one", "two"}},
		{2, "cv", []string{"experience", "eng @ acme (2020-2024)", "opening pdf..."}},
		{3, "projects", []string{"projects", "termfolio a terminal"}},
		{4, "links", []string{"links", "github https://github.com/jo", "blog /blog"}},
		{5, "investments", []string{"investments as of today", "AAA +1.50%", "BBB -2.00%", "CCC +0.00%"}},
		{6, "writing", []string{"writing", "first 2024-01-01"}},
		{7, "reel", []string{"showreel", "opening reel..."}},
		{8, "contact", []string{"contact", "email jo@example.com", "x https://x.test/jo"}},
	}

	srv := fixtureServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			reg := load(t, srv, rec, &viewer.Recorder{})
			run(t, reg, tt.id)

			require.Len(t, rec.responses, 2)
			progress := rec.responses[0].Lines
			require.Len(t, progress, 1)
			assert.Equal(t, "fetching "+tt.name+"...", progress[0].Text)
			assert.True(t, progress[0].Instant)
			assert.Equal(t, domain.KindMuted, progress[0].Kind)

			assert.Equal(t, tt.expect, texts(rec.responses[1]))
			assert.Equal(t, []string{tt.name + ": fetching", tt.name + ": ok"}, rec.status)
		})
	}
}

func TestInvestmentKinds(t *testing.T) {
	srv := fixtureServer(t, nil)
	rec := &recorder{}
	run(t, load(t, srv, rec, nil), 5)

	var kinds []domain.Kind
	for _, l := range rec.responses[1].Lines[1:] {
		kinds = append(kinds, l.Segments[1].Kind)
	}
	assert.Equal(t, []domain.Kind{domain.KindGain, domain.KindLoss, domain.KindFlat}, kinds)
}

func TestSideEffects(t *testing.T) {
	srv := fixtureServer(t, nil)

	tests := []struct {
		id     int
		opened []string
		copied []string
	}{
		{2, []string{srv.URL + "/files/cv.pdf"}, nil},
		{4, nil, []string{"https://github.com/jo"}},
		{7, []string{"https://video.test/reel"}, nil},
		{8, nil, []string{"jo@example.com"}},
	}

	for _, tt := range tests {
		rec := &recorder{}
		v := &viewer.Recorder{}
		run(t, load(t, srv, rec, v), tt.id)

		resp := rec.responses[1]
		require.NotNil(t, resp.SideEffect, "section %d", tt.id)
		opened, copied := v.Snapshot()
		assert.Empty(t, opened, "side effects wait for the session")
		assert.Empty(t, copied)

		resp.SideEffect()
		opened, copied = v.Snapshot()
		assert.Equal(t, tt.opened, opened, "section %d", tt.id)
		assert.Equal(t, tt.copied, copied, "section %d", tt.id)
	}
}

func TestSideEffectsSkipDisallowedTargets(t *testing.T) {
	srv := fixtureServer(t, map[string]string{
		"reel": `{"title":"showreel","url":"file:///etc/passwd"}`,
		"cv":   `{"roles":[],"pdf_url":"C:\\Windows\\System32\\calc.exe"}`,
	})

	tests := []struct {
		id     int
		expect []string
	}{
		{2, []string{"experience", "no roles yet."}},
		{7, []string{"showreel"}},
	}

	for _, tt := range tests {
		rec := &recorder{}
		v := &viewer.Recorder{}
		run(t, load(t, srv, rec, v), tt.id)

		resp := rec.responses[1]
		assert.Nil(t, resp.SideEffect, "section %d", tt.id)
		assert.Equal(t, tt.expect, texts(resp), "section %d", tt.id)
		opened, _ := v.Snapshot()
		assert.Empty(t, opened, "section %d", tt.id)
	}
}

func TestContactMailtoSegment(t *testing.T) {
	srv := fixtureServer(t, nil)
	rec := &recorder{}
	run(t, load(t, srv, rec, nil), 8)

	email := rec.responses[1].Lines[1]
	require.Len(t, email.Segments, 2)
	assert.Equal(t, "mailto:jo@example.com", email.Segments[1].Href)
	assert.Nil(t, rec.responses[1].SideEffect, "no viewer, no side effect")
}

func TestEmptyCollections(t *testing.T) {
	srv := fixtureServer(t, map[string]string{"projects": `{"projects":[]}`})
	rec := &recorder{}
	run(t, load(t, srv, rec, nil), 3)

	assert.Equal(t, []string{"projects", "no projects yet."}, texts(rec.responses[1]))
}

func TestFailuresAreReturned(t *testing.T) {
	srv := fixtureServer(t, map[string]string{"bio": `{"name":"Jo"}`})
	rec := &recorder{}
	reg := load(t, srv, rec, nil)

	h, ok := dispatch.Resolve(reg, 1)
	require.True(t, ok)
	err := h(context.Background())
	assert.ErrorIs(t, err, ErrSchema)

	require.Len(t, rec.responses, 1, "only the progress line; the dispatcher reports the error")
	assert.Equal(t, []string{"bio: fetching"}, rec.status)
}
