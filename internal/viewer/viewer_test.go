package viewer

import (
	"bytes"
	"errors"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpener(t *testing.T) {
	name, args := opener("darwin")
	assert.Equal(t, "open", name)
	assert.Empty(t, args)

	name, args = opener("windows")
	assert.Equal(t, "rundll32", name)
	assert.Equal(t, []string{"url.dll,FileProtocolHandler"}, args)

	name, _ = opener("linux")
	assert.Equal(t, "xdg-open", name)
}

func TestLaunchReapsProcess(t *testing.T) {
	path, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not available")
	}

	done, err := launch(exec.Command(path))
	require.NoError(t, err)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("process was not waited on")
	}
}

func TestLaunchStartError(t *testing.T) {
	done, err := launch(exec.Command("/nonexistent/termfolio-opener"))
	assert.Error(t, err)
	assert.Nil(t, done)
}

func TestSystemOpen(t *testing.T) {
	var gotName string
	var gotArgs []string
	s := &System{
		lookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
		run: func(name string, args ...string) error {
			gotName, gotArgs = name, args
			return nil
		},
	}

	require.NoError(t, s.Open("https://example.com"))
	want, _ := opener(runtime.GOOS)
	assert.Equal(t, want, gotName)
	assert.Equal(t, "https://example.com", gotArgs[len(gotArgs)-1])
}

func TestSystemOpenMissingOpener(t *testing.T) {
	s := &System{
		lookPath: func(string) (string, error) { return "", errors.New("not found") },
		run:      func(string, ...string) error { t.Fatal("run should not be called"); return nil },
	}
	err := s.Open("https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no opener")
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	require.NoError(t, p.Open("/cv.pdf"))
	require.NoError(t, p.Copy("me@example.com"))
	assert.Equal(t, "open: /cv.pdf\ncopy: me@example.com\n", buf.String())
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Open("a"))
	require.NoError(t, r.Copy("b"))
	opened, copied := r.Snapshot()
	assert.Equal(t, []string{"a"}, opened)
	assert.Equal(t, []string{"b"}, copied)

	r.Err = errors.New("fail")
	assert.Error(t, r.Open("c"))
}
