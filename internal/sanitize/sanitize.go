// Package sanitize scrubs free-form user input before it reaches the
// store or an outbound prompt.
package sanitize

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"
)

// MaxTextLen caps stored message bodies in characters (Telegram's
// message limit).
const MaxTextLen = 4096

// Text cleans a message body: SQL metacharacters are stripped, HTML is
// entity-escaped, control characters are dropped, and the result is
// capped at MaxTextLen. Empty input yields "".
func Text(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isStrippedRune(r) {
			b.WriteRune(r)
		}
		i += size
	}

	out := html.EscapeString(b.String())
	// Cap counts runes, not bytes: a byte slice could split a
	// multibyte character and leave invalid UTF-8 in the store.
	if utf8.RuneCountInString(out) > MaxTextLen {
		runes := []rune(out)
		out = string(runes[:MaxTextLen])
	}
	return out
}

func isStrippedRune(r rune) bool {
	switch {
	// SQL metacharacters. Dropping '-' also kills comment sequences.
	case r == ';' || r == '\'' || r == '"' || r == '-':
		return true
	// Control characters.
	case r < 0x20:
		return true
	default:
		return false
	}
}

// UserData cleans the sender fields. Non-positive user ids are invalid.
func UserData(userID int64, username, firstName string) (int64, string, string, error) {
	if userID <= 0 {
		return 0, "", "", fmt.Errorf("invalid user id %d", userID)
	}
	return userID, Text(username), Text(firstName), nil
}
