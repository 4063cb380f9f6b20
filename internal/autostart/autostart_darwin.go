//go:build darwin

package autostart

import (
	"bytes"
	"encoding/xml"
	"strings"

	goautostart "github.com/emersion/go-autostart"
)

// newApp describes the LaunchAgent; Name becomes the job label and plist name.
func newApp(name string, command []string) *goautostart.App {
	label := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			return r
		}
		return -1
	}, strings.ToLower(name))
	return &goautostart.App{
		Name:        "com." + label + ".relay",
		DisplayName: name,
		Exec:        plistStrings(command),
	}
}

// plistStrings escapes values for the plist, whose template writes them verbatim.
func plistStrings(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		var b bytes.Buffer
		_ = xml.EscapeText(&b, []byte(v))
		out[i] = b.String()
	}
	return out
}
