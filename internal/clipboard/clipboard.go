// Package clipboard reads text from the system clipboard via shell commands.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no clipboard tool is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// pasteCommands lists, per OS, the tools that print the clipboard to
// stdout, in order of preference.
var pasteCommands = map[string][][]string{
	"darwin": {{"pbpaste"}},
	"linux": {
		{"wl-paste", "--no-newline"},
		{"xclip", "-selection", "clipboard", "-o"},
		{"xsel", "--clipboard", "--output"},
	},
}

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// pasteCommand returns the first installed paste tool for goos.
func pasteCommand(goos string) ([]string, error) {
	for _, args := range pasteCommands[goos] {
		if _, err := lookPath(args[0]); err == nil {
			return args, nil
		}
	}
	return nil, ErrClipboardUnavailable
}

// IsAvailable reports whether the clipboard can be read on this system.
func IsAvailable() bool {
	_, err := pasteCommand(runtime.GOOS)
	return err == nil
}

// Paste returns the clipboard text with surrounding whitespace trimmed.
func Paste() (string, error) {
	args, err := pasteCommand(runtime.GOOS)
	if err != nil {
		return "", err
	}
	out, err := exec.Command(args[0], args[1:]...).Output()
	if err != nil {
		return "", fmt.Errorf("running %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}
