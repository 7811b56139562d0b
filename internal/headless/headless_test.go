package headless

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/termfolio/internal/config"
	"github.com/joss/termfolio/internal/dispatch"
	"github.com/joss/termfolio/internal/domain"
	"github.com/joss/termfolio/internal/logging"
	"github.com/joss/termfolio/internal/metrics"
)

func testConfig() config.Config {
	return config.Config{
		APIBase:     "http://api.test",
		HTTPTimeout: time.Second,
		Theme:       "dark",
		BootMessage: []string{"termfolio ready."},
		AdminURL:    "/admin",
		OnePagerURL: "/onepager",
	}
}

func loader(ctx context.Context, deps dispatch.Deps) (*dispatch.Registry, error) {
	return dispatch.NewRegistry(
		dispatch.Module{ID: 1, Name: "bio", Handler: func(context.Context) error {
			time.Sleep(10 * time.Millisecond)
			deps.AppendResponse(domain.Respond(
				domain.Text(domain.KindAccent, "bio"),
				domain.Text(domain.KindOutput, "hello from bio"),
			))
			return nil
		}},
		dispatch.Module{ID: 2, Name: "cv", Handler: func(context.Context) error {
			return errors.New("cv returned 502")
		}},
	), nil
}

func run(t *testing.T, opts Options, cmds ...string) (Result, []string) {
	t.Helper()
	logging.SetOutput(nil)
	var out bytes.Buffer
	opts.Out = &out
	if opts.Loader == nil {
		opts.Loader = loader
	}
	opts.Config = testConfig()
	opts.Metrics = metrics.New()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := Run(ctx, opts, cmds)
	require.NoError(t, err)
	return res, strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func TestRunPrintsInOrder(t *testing.T) {
	res, lines := run(t, Options{}, "1", "2", "1")

	assert.Equal(t, []string{
		"termfolio ready.",
		"bio",
		"hello from bio",
		"[error] cv unavailable",
		"cv returned 502",
		"bio",
		"hello from bio",
	}, lines)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, len(lines), res.Lines)
	assert.NotEmpty(t, res.SessionID)
}

func TestRunEcho(t *testing.T) {
	_, lines := run(t, Options{Echo: true, Quiet: true}, "1")
	assert.Equal(t, []string{"> 1", "initializing command modules...", "bio", "hello from bio"}, lines)
}

func TestRunStopsAtQuit(t *testing.T) {
	res, lines := run(t, Options{Quiet: true}, "/status", "exit", "1")
	assert.True(t, res.Quit)
	assert.Equal(t, "bye.", lines[len(lines)-1])
	assert.NotContains(t, lines, "hello from bio")
}

func TestRunLoadFailure(t *testing.T) {
	failing := func(context.Context, dispatch.Deps) (*dispatch.Registry, error) {
		return nil, errors.New("api unreachable")
	}
	res, lines := run(t, Options{Loader: failing, Quiet: true}, "3")
	assert.Equal(t, []string{
		"initializing command modules...",
		"command modules failed to load",
		"api unreachable",
	}, lines)
	assert.Equal(t, 1, res.Errors)
}

func TestRunSideEffectsPrint(t *testing.T) {
	_, lines := run(t, Options{Quiet: true}, "/admin")
	assert.Contains(t, lines, "open: http://api.test/admin")
}

func TestRunPretty(t *testing.T) {
	color.NoColor = true
	_, lines := run(t, Options{Pretty: true, Quiet: true}, "2")
	var found bool
	for _, l := range lines {
		if strings.Contains(l, "cv unavailable") {
			found = true
			assert.Contains(t, l, domain.KindError.Marker())
		}
	}
	assert.True(t, found)
}

func TestRunCancelled(t *testing.T) {
	logging.SetOutput(nil)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	block := func(context.Context, dispatch.Deps) (*dispatch.Registry, error) {
		<-release
		return nil, errors.New("released")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	_, err := Run(ctx, Options{Config: testConfig(), Loader: block, Out: &out, Quiet: true, Metrics: metrics.New()}, []string{"1", "2"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReadCommands(t *testing.T) {
	cmds, err := ReadCommands(strings.NewReader("1\n\n# comment\n  /theme light \nexit\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "/theme light", "exit"}, cmds)
}
