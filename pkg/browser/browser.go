// Package browser opens listing links in the system browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// Launcher starts a system command without waiting for it.
type Launcher func(name string, args ...string) error

// Browser opens URLs through the platform's URL handler.
type Browser struct {
	goos   string
	launch Launcher
}

// New returns a Browser for the running platform.
func New() *Browser {
	return &Browser{goos: runtime.GOOS, launch: startCommand}
}

// NewWithLauncher returns a Browser for goos that starts commands through launch.
func NewWithLauncher(goos string, launch Launcher) *Browser {
	return &Browser{goos: goos, launch: launch}
}

// Open opens the specified URL in the default browser.
func Open(urlString string) error {
	return New().Open(urlString)
}

// Open validates urlString and hands it to the platform URL handler.
func (b *Browser) Open(urlString string) error {
	if err := Validate(urlString); err != nil {
		return err
	}

	name, args, err := command(b.goos, urlString)
	if err != nil {
		return err
	}
	return b.launch(name, args...)
}

// Validate accepts absolute http and https URLs with a host and no whitespace.
func Validate(urlString string) error {
	if strings.ContainsAny(urlString, " \t\r\n") {
		return fmt.Errorf("invalid URL: contains whitespace")
	}

	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https allowed)", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}
	return nil
}

func command(goos, urlString string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{urlString}, nil
	case "darwin":
		return "open", []string{urlString}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", urlString}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start() // #nosec G204 -- URL validated before launch
}
