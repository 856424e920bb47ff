// Package domain contains entities without transport, just meta-data and validation.
package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxSenderLen  = 20
	DefaultSender = "Anonymous"
)

// NormalizeSender trims a display name and truncates it to MaxSenderLen runes.
func NormalizeSender(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultSender
	}
	if utf8.RuneCountInString(name) <= MaxSenderLen {
		return name
	}
	return string([]rune(name)[:MaxSenderLen])
}
