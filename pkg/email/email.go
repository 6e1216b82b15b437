// Package email defines the outbound-email collaborator boundary. Actual
// delivery (SMTP, provider API) lives outside this service; invitations only
// need something satisfying Sender.
package email

import (
	"context"
	"strings"
	"unicode"
)

// Sender delivers a single message. Implementations are expected to be
// best-effort; membership flows never fail because mail bounced.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NopSender discards messages. Used when no mail backend is configured and
// in tests.
type NopSender struct{}

func (NopSender) Send(context.Context, string, string, string) error { return nil }

// DeriveNameFromEmail guesses a display name from an address local part.
// Used when an invitation targets an address with no profile name yet.
func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
