package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// launch starts the platform opener without waiting on it; replaced in tests.
var launch = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// OpenBrowser opens rawURL (a book cover, usually) in the default system browser.
//
// Only absolute http and https URLs are accepted. Supports macOS, Linux, and Windows.
func OpenBrowser(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: not an http(s) URL: %q", ErrInvalidArgument, rawURL)
	}

	var name string
	var args []string
	switch rt := getRuntime(); rt {
	case "darwin":
		name, args = "open", []string{u.String()}
	case "linux":
		name, args = "xdg-open", []string{u.String()}
	case "windows":
		name, args = "cmd", []string{"/c", "start", u.String()}
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := launch(name, args...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
