package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryRecall(t *testing.T) {
	h := NewHistory()
	h.Add("1")
	h.Add("/help")
	h.Add("3")

	got, ok := h.Prev("dra")
	assert.True(t, ok)
	assert.Equal(t, "3", got)
	got, _ = h.Prev("ignored")
	assert.Equal(t, "/help", got)
	got, _ = h.Prev("")
	assert.Equal(t, "1", got)
	_, ok = h.Prev("")
	assert.False(t, ok, "oldest entry")

	got, _ = h.Next()
	assert.Equal(t, "/help", got)
	got, _ = h.Next()
	assert.Equal(t, "3", got)
	got, ok = h.Next()
	assert.True(t, ok)
	assert.Equal(t, "dra", got, "live input restored")
	_, ok = h.Next()
	assert.False(t, ok)
}

func TestHistoryAdd(t *testing.T) {
	h := NewHistory()
	h.Add("")
	h.Add("a")
	h.Add("a")
	assert.Equal(t, []string{"a", "a"}, h.Entries(), "repeats are kept")

	for i := 0; i < 250; i++ {
		h.Add("b")
	}
	assert.Equal(t, 252, h.Len(), "no cap on length")
}

func TestHistoryAddResetsCursor(t *testing.T) {
	h := NewHistory()
	h.Add("a")
	h.Add("b")
	h.Prev("")
	h.Add("c")

	got, _ := h.Prev("")
	assert.Equal(t, "c", got)
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory()
	_, ok := h.Prev("x")
	assert.False(t, ok)
	_, ok = h.Next()
	assert.False(t, ok)
}
