package service

import (
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// safePart normalizes a string for use in storage paths.
func safePart(s string) string {
	s = strings.TrimSpace(os.ExpandEnv(s))
	repl := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "|", "_", " ", "_", "@", "_")
	return repl.Replace(s)
}

// normalize trims and NFC-composes user supplied characters.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
