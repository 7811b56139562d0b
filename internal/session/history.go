package session

// History is the submitted-input list with a recall cursor.
// index -1 means the user is editing live input.
type History struct {
	entries []string
	index   int
	saved   string
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{index: -1}
}

// Add appends a submission and resets the cursor to live input. The list
// only grows; blank input is not recorded.
func (h *History) Add(entry string) {
	h.index = -1
	h.saved = ""
	if entry == "" {
		return
	}
	h.entries = append(h.entries, entry)
}

// Prev moves to the previous entry. current is the live input, kept so
// Next can restore it. ok is false at the oldest entry.
func (h *History) Prev(current string) (string, bool) {
	switch {
	case len(h.entries) == 0:
		return "", false
	case h.index == -1:
		h.saved = current
		h.index = len(h.entries) - 1
	case h.index > 0:
		h.index--
	default:
		return "", false
	}
	return h.entries[h.index], true
}

// Next moves toward live input. Past the newest entry the saved live
// input comes back.
func (h *History) Next() (string, bool) {
	if h.index == -1 {
		return "", false
	}
	h.index++
	if h.index >= len(h.entries) {
		h.index = -1
		saved := h.saved
		h.saved = ""
		return saved, true
	}
	return h.entries[h.index], true
}

// Entries returns the recorded submissions, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Len is the number of recorded submissions.
func (h *History) Len() int { return len(h.entries) }
