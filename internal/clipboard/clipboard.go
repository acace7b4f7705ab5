// Package clipboard copies artifact coordinates to the system clipboard via
// the platform's clipboard command.
package clipboard

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no clipboard command is found.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// commandFor returns the clipboard command for goos, consulting lookPath
// for which tools are installed.
func commandFor(goos string, lookPath func(string) (string, error)) ([]string, error) {
	switch goos {
	case "darwin":
		if _, err := lookPath("pbcopy"); err == nil {
			return []string{"pbcopy"}, nil
		}
	case "linux":
		if _, err := lookPath("wl-copy"); err == nil {
			return []string{"wl-copy"}, nil
		}
		if _, err := lookPath("xclip"); err == nil {
			return []string{"xclip", "-selection", "clipboard"}, nil
		}
		if _, err := lookPath("xsel"); err == nil {
			return []string{"xsel", "--clipboard", "--input"}, nil
		}
	}
	return nil, ErrClipboardUnavailable
}

// IsAvailable reports whether a clipboard command exists on this system.
func IsAvailable() bool {
	_, err := commandFor(runtime.GOOS, exec.LookPath)
	return err == nil
}

// Copy copies text to the system clipboard.
func Copy(text string) error {
	argv, err := commandFor(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
