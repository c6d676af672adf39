package moderation

import (
	"fmt"
	"unicode/utf8"
)

const (
	MaxTextBytes = 4096 // 4KB max payload size
	MaxTextChars = 2000 // max character count
)

// ValidateText checks that message text is well-formed enough to evaluate.
// Oversized or non-UTF-8 payloads are rejected before they reach the rule
// engine; how to treat them (the worker fails open) is the caller's policy.
func ValidateText(text string) error {
	if len(text) > MaxTextBytes {
		return fmt.Errorf("text exceeds %d byte limit", MaxTextBytes)
	}
	if utf8.RuneCountInString(text) > MaxTextChars {
		return fmt.Errorf("text exceeds %d character limit", MaxTextChars)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("text contains invalid UTF-8")
	}
	return nil
}
