package util

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
)

const maxFileNameLen = 255

// ErrInvalidFileName is returned for names that are empty after sanitizing.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName strips directory components and characters unsafe for
// logs or file systems, keeping letters (including Polish diacritics), digits,
// dot, dash and underscore.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "\\", "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "", ErrInvalidFileName
	}
	if runes := []rune(out); len(runes) > maxFileNameLen {
		out = string(runes[len(runes)-maxFileNameLen:])
	}
	return out, nil
}

// Ext returns the lower-cased extension of name including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}
