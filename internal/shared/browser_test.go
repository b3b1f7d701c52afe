package shared

import (
	"errors"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	origRuntime, origLaunch := getRuntime, launch
	t.Cleanup(func() { getRuntime, launch = origRuntime, origLaunch })

	var gotName string
	var gotArgs []string
	launch = func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}

	t.Run("platform openers", func(t *testing.T) {
		tests := []struct {
			goos string
			name string
		}{
			{"darwin", "open"},
			{"linux", "xdg-open"},
			{"windows", "cmd"},
		}

		for _, tt := range tests {
			getRuntime = func() string { return tt.goos }
			if err := OpenBrowser("https://covers.example.com/dune.jpg"); err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.goos, err)
			}
			if gotName != tt.name {
				t.Errorf("%s: expected %s, got %s", tt.goos, tt.name, gotName)
			}
			if last := gotArgs[len(gotArgs)-1]; last != "https://covers.example.com/dune.jpg" {
				t.Errorf("%s: expected url as last arg, got %s", tt.goos, last)
			}
		}
	})

	t.Run("rejects non-http urls", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		for _, raw := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "/relative/cover.png"} {
			if err := OpenBrowser(raw); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("%q: expected ErrInvalidArgument, got %v", raw, err)
			}
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})

	t.Run("launch failure", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		launch = func(string, ...string) error { return errors.New("no opener") }
		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected launch error to surface")
		}
	})
}
