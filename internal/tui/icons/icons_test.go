// ABOUTME: Tests for Nerd Font detection
// ABOUTME: Feeds a fake environment so results do not depend on the host terminal

package icons

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"plain terminal", map[string]string{"TERM": "xterm-256color"}, false},
		{"kitty by TERM", map[string]string{"TERM": "xterm-kitty"}, true},
		{"iTerm by program", map[string]string{"TERM_PROGRAM": "iTerm.app"}, true},
		{"apple terminal", map[string]string{"TERM_PROGRAM": "Apple_Terminal"}, false},
		{"override on", map[string]string{"CLEANOPS_NERD_FONTS": "1", "TERM": "dumb"}, true},
		{"override off wins", map[string]string{"CLEANOPS_NERD_FONTS": "false", "TERM": "xterm-kitty"}, false},
		{"unparsable override ignored", map[string]string{"CLEANOPS_NERD_FONTS": "maybe", "TERM": "alacritty"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			if got := Detect(getenv); got != tt.want {
				t.Errorf("Detect(%v) = %v, want %v", tt.env, got, tt.want)
			}
		})
	}
}
