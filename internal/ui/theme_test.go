package ui

import (
	"log/slog"
	"testing"
)

func TestGetThemeFallsBack(t *testing.T) {
	if got := GetTheme("Nightfox").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Nightfox).Name = %q", got)
	}
	if got := GetTheme("nope").Name; got != "Dracula" {
		t.Fatalf("GetTheme(nope).Name = %q, want Dracula", got)
	}
}

func TestNextThemeCycles(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() = %v, want 3 themes", names)
	}
	current := names[0]
	for i := 1; i <= len(names); i++ {
		current = NextTheme(current)
		if want := names[i%len(names)]; current != want {
			t.Fatalf("NextTheme step %d = %q, want %q", i, current, want)
		}
	}
	if got := NextTheme("unknown"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
}

func TestThemesDefineStatusColors(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, status := range []string{"pending", "applied", "rolled_back", "running", "stopped", "offline"} {
			if th.StatusColors[status] == "" {
				t.Fatalf("theme %s missing status color %q", name, status)
			}
		}
	}
}

func TestStatusStyleUnknownUsesMuted(t *testing.T) {
	th := GetTheme("Dracula")
	s := th.Styles()
	got := s.StatusStyle("mystery").GetBackground()
	want := s.StatusStyle("").GetBackground()
	if got != want {
		t.Fatalf("unknown status background = %v, want muted %v", got, want)
	}
	if s.StatusStyle("applied").GetBackground() == want {
		t.Fatal("applied status uses the muted fallback")
	}
}

func TestNextLevelCycles(t *testing.T) {
	level := slog.LevelDebug
	want := []slog.Level{slog.LevelInfo, slog.LevelWarn, slog.LevelError, slog.LevelDebug}
	for i, w := range want {
		level = nextLevel(level)
		if level != w {
			t.Fatalf("nextLevel step %d = %v, want %v", i, level, w)
		}
	}
}
