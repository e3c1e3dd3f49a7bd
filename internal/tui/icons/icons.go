// ABOUTME: Admin screen glyphs in Nerd Font and plain Unicode variants
// ABOUTME: Glyphs for the admin screens; CLEANOPS_NERD_FONTS overrides detection

package icons

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// Terminals whose default setups ship a Nerd Font, keyed by TERM_PROGRAM
var nerdFontPrograms = map[string]bool{
	"iTerm.app": true,
	"WezTerm":   true,
	"ghostty":   true,
}

// TERM prefixes set by terminals that usually run with a Nerd Font
var nerdFontTerms = []string{"xterm-kitty", "alacritty", "xterm-ghostty", "wezterm"}

// Detect reports whether Nerd Font glyphs should be used, reading the
// environment through getenv. CLEANOPS_NERD_FONTS wins when it parses as a
// boolean; otherwise the terminal is recognized by TERM_PROGRAM or TERM.
func Detect(getenv func(string) string) bool {
	if v, err := strconv.ParseBool(getenv("CLEANOPS_NERD_FONTS")); err == nil {
		return v
	}
	if nerdFontPrograms[getenv("TERM_PROGRAM")] {
		return true
	}
	term := getenv("TERM")
	for _, prefix := range nerdFontTerms {
		if strings.HasPrefix(term, prefix) {
			return true
		}
	}
	return false
}

// HasNerdFonts detects once per process from the real environment
var HasNerdFonts = sync.OnceValue(func() bool { return Detect(os.Getenv) })

// Icon is one glyph with a plain Unicode stand-in for terminals without Nerd Fonts
type Icon struct {
	NerdFont string
	Fallback string
}

// String picks the variant the terminal can draw
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

var (
	// Marketplace entities
	Customer     = Icon{"󰀄", "●"} // nf-md-account
	Cleaner      = Icon{"󰃢", "◆"} // nf-md-broom
	Booking      = Icon{"󰃭", "■"} // nf-md-calendar
	Report       = Icon{"󰈻", "⚑"} // nf-md-flag
	Money        = Icon{"󰄔", "$"} // nf-md-cash
	Notification = Icon{"󰂚", "♪"} // nf-md-bell
	Request      = Icon{"󰈙", "▤"} // nf-md-file_document

	// Status indicators
	CheckOK  = Icon{"", "✓"} // nf-oct-check_circle
	Warning  = Icon{"", "⚠"} // nf-oct-alert
	Critical = Icon{"", "✗"} // nf-oct-x_circle
	Info     = Icon{"", "ℹ"} // nf-oct-info
	Lock     = Icon{"󰌾", "⊘"} // nf-md-lock

	// Trends and charts
	TrendUp   = Icon{"󰄬", "↗"} // nf-md-trending_up
	TrendDown = Icon{"󰄰", "↘"} // nf-md-trending_down
	Chart     = Icon{"󰄭", "▁"} // nf-md-chart_line

	// Actions
	Refresh = Icon{"󰑓", "↻"} // nf-md-refresh
	Search  = Icon{"󰍉", "⌕"} // nf-md-magnify
	Back    = Icon{"󰁍", "←"} // nf-md-arrow_left
	Quit    = Icon{"󰗼", "×"} // nf-md-exit_to_app
	Logout  = Icon{"󰍃", "⏏"} // nf-md-logout

	// Application
	App  = Icon{"󰃢", "◈"} // nf-md-broom
	User = Icon{"󰀉", "☺"} // nf-md-account_circle
)
