package ui

import (
	"testing"

	"github.com/five82/regsync/internal/portal"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames = %v, want 3 themes", names)
	}
	for _, name := range names {
		if got := GetTheme(name).Name; got != name {
			t.Fatalf("GetTheme(%q).Name = %q", name, got)
		}
	}
}

func TestGetTheme_UnknownFallsBack(t *testing.T) {
	if got := GetTheme("Dracula").Name; got != "Nightfox" {
		t.Fatalf("GetTheme unknown = %q, want Nightfox", got)
	}
}

func TestNextTheme_Cycles(t *testing.T) {
	name := "Nightfox"
	seen := map[string]bool{}
	for range ThemeNames() {
		seen[name] = true
		name = NextTheme(name)
	}
	if name != "Nightfox" || len(seen) != len(ThemeNames()) {
		t.Fatalf("NextTheme did not cycle through every theme: %v", seen)
	}
	if got := NextTheme("missing"); got != "Nightfox" {
		t.Fatalf("NextTheme(missing) = %q, want Nightfox", got)
	}
}

func TestThemes_CoverEveryLoginState(t *testing.T) {
	states := []portal.State{
		portal.StateUnauthenticated,
		portal.StateProbing,
		portal.StateAuthenticated,
		portal.StateDiscoveryFailed,
		portal.StateTransportFailed,
		portal.StateAuthRejected,
	}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, st := range states {
			if th.StateColors[st.String()] == "" {
				t.Fatalf("theme %s has no color for %s", name, st)
			}
		}
	}
}
