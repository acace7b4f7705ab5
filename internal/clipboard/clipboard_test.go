package clipboard

import (
	"errors"
	"os/exec"
	"reflect"
	"testing"
)

func lookPathOf(installed ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, n := range installed {
			if n == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestCommandFor(t *testing.T) {
	tests := []struct {
		name      string
		goos      string
		installed []string
		want      []string
	}{
		{"darwin", "darwin", []string{"pbcopy"}, []string{"pbcopy"}},
		{"wayland preferred", "linux", []string{"xclip", "wl-copy"}, []string{"wl-copy"}},
		{"xclip", "linux", []string{"xclip", "xsel"}, []string{"xclip", "-selection", "clipboard"}},
		{"xsel", "linux", []string{"xsel"}, []string{"xsel", "--clipboard", "--input"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := commandFor(tt.goos, lookPathOf(tt.installed...))
			if err != nil {
				t.Fatalf("commandFor() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("commandFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandFor_Unavailable(t *testing.T) {
	for _, goos := range []string{"linux", "darwin", "windows"} {
		_, err := commandFor(goos, lookPathOf())
		if !errors.Is(err, ErrClipboardUnavailable) {
			t.Errorf("commandFor(%q) error = %v, want ErrClipboardUnavailable", goos, err)
		}
	}
}

func TestCopy(t *testing.T) {
	if !IsAvailable() {
		t.Skip("clipboard not available on this system")
	}
	if err := Copy("com.acme:app:1.0"); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
}
