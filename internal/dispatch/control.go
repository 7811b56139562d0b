// Package dispatch turns normalized input into work: control tokens that
// steer the session, and numbered commands routed through a lazily loaded
// registry of asynchronous handlers.
package dispatch

import (
	"strconv"
	"strings"
)

// Control identifies a built-in control token.
type Control int

const (
	ControlNone Control = iota
	ControlSkip
	ControlFastForward
	ControlTheme
	ControlMotion
	ControlStream
	ControlHelp
	ControlMenu
	ControlAdmin
	ControlOnePager
	ControlClear
	ControlHistory
	ControlStatus
	ControlQuit
)

var controlNames = map[Control]string{
	ControlNone:        "none",
	ControlSkip:        "skip",
	ControlFastForward: "fast-forward",
	ControlTheme:       "theme",
	ControlMotion:      "motion",
	ControlStream:      "stream",
	ControlHelp:        "help",
	ControlMenu:        "menu",
	ControlAdmin:       "admin",
	ControlOnePager:    "onepager",
	ControlClear:       "clear",
	ControlHistory:     "history",
	ControlStatus:      "status",
	ControlQuit:        "quit",
}

func (c Control) String() string {
	if s, ok := controlNames[c]; ok {
		return s
	}
	return "control(" + strconv.Itoa(int(c)) + ")"
}

// Token is a parsed control token. Arg is only set for tokens that take one.
type Token struct {
	Control Control
	Arg     string
}

type controlSpec struct {
	control Control
	takeArg bool
	arg     string // fixed argument, e.g. the theme name for "dark"
}

// Themes are the names accepted by the theme tokens, in cycle order.
var Themes = []string{"dark", "light", "amber"}

// controlTokens maps a normalized head token to its control.
// No key is a bare integer, which keeps controls and numbered commands disjoint.
var controlTokens = map[string]controlSpec{
	"s":         {control: ControlSkip},
	"/skip":     {control: ControlSkip},
	"f":         {control: ControlFastForward},
	"/ff":       {control: ControlFastForward},
	"t":         {control: ControlTheme},
	"/theme":    {control: ControlTheme, takeArg: true},
	"dark":      {control: ControlTheme, arg: "dark"},
	"light":     {control: ControlTheme, arg: "light"},
	"amber":     {control: ControlTheme, arg: "amber"},
	"m":         {control: ControlMotion},
	"/motion":   {control: ControlMotion},
	"/stream":   {control: ControlStream},
	"h":         {control: ControlHelp},
	"?":         {control: ControlHelp},
	"help":      {control: ControlHelp},
	"/help":     {control: ControlHelp},
	"menu":      {control: ControlMenu},
	"/menu":     {control: ControlMenu},
	"ls":        {control: ControlMenu},
	"/admin":    {control: ControlAdmin},
	"/onepager": {control: ControlOnePager},
	"/print":    {control: ControlOnePager},
	"clear":     {control: ControlClear},
	"/clear":    {control: ControlClear},
	"cls":       {control: ControlClear},
	"/history":  {control: ControlHistory},
	"/status":   {control: ControlStatus},
	"exit":      {control: ControlQuit},
	"quit":      {control: ControlQuit},
	"/quit":     {control: ControlQuit},
}

// Normalize trims and lowercases raw input before matching.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseControl matches normalized input against the control-token table.
// Tokens that take no argument must match exactly.
func ParseControl(normalized string) (Token, bool) {
	fields := strings.Fields(normalized)
	if len(fields) == 0 {
		return Token{}, false
	}
	spec, ok := controlTokens[fields[0]]
	if !ok {
		return Token{}, false
	}
	rest := strings.Join(fields[1:], " ")
	switch {
	case spec.takeArg:
		return Token{Control: spec.control, Arg: rest}, true
	case rest != "":
		return Token{}, false
	default:
		return Token{Control: spec.control, Arg: spec.arg}, true
	}
}

// ParseNumeric accepts "3" or "/3" and returns the command id. Signs,
// spaces and anything non-decimal are rejected.
func ParseNumeric(normalized string) (int, bool) {
	s := strings.TrimPrefix(normalized, "/")
	if s == "" || len(s) > 6 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Help lists the control tokens for the help screen, in display order.
func Help() [][2]string {
	return [][2]string{
		{"1-8 or /1-/8", "open a section"},
		{"menu, ls", "list sections"},
		{"s, /skip", "finish printing immediately"},
		{"f, /ff", "print faster"},
		{"t, /theme <name>", "switch theme (" + strings.Join(Themes, ", ") + ")"},
		{"m, /motion", "toggle reduced motion"},
		{"/stream", "toggle the typewriter effect"},
		{"/history", "show recent commands"},
		{"/status", "show session status"},
		{"/admin, /onepager", "open the admin dashboard or printable page"},
		{"clear", "reset the screen"},
		{"exit", "leave"},
	}
}
