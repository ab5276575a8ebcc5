package session

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MaxMessageBytes is the byte limit on outgoing message content.
	MaxMessageBytes = 4096

	// MaxMessageChars is the character limit on outgoing message content.
	MaxMessageChars = 2000
)

// ValidateContent checks that outgoing message content meets the server's
// requirements. Violations are rejected before any network call.
func ValidateContent(text string) error {
	if len(text) == 0 {
		return fmt.Errorf("message text is empty")
	}
	if len(text) > MaxMessageBytes {
		return fmt.Errorf("message exceeds %d byte limit", MaxMessageBytes)
	}
	if utf8.RuneCountInString(text) > MaxMessageChars {
		return fmt.Errorf("message exceeds %d character limit", MaxMessageChars)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("message contains invalid UTF-8")
	}
	return nil
}
