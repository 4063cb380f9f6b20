//go:build linux

package autostart

import (
	"strings"

	goautostart "github.com/emersion/go-autostart"
)

// Desktop Entry string values carry escapes for control characters.
var entryValueEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// newApp describes the XDG autostart entry. The desktop file is named after
// the lowercased app name.
func newApp(name string, command []string) *goautostart.App {
	exec := make([]string, len(command))
	for i, arg := range command {
		// Field codes start with %; a literal % is written %%.
		exec[i] = strings.ReplaceAll(arg, "%", "%%")
	}
	return &goautostart.App{
		Name:        strings.ToLower(singleLine(name)),
		DisplayName: entryValueEscaper.Replace(name),
		Exec:        exec,
	}
}

// singleLine drops line breaks and tabs so the name is usable as a file name.
func singleLine(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', '/':
			return -1
		}
		return r
	}, s)
}
