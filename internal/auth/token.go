package auth

import "fmt"

// Token wraps the secret bearer token. Its fmt and zap renderings are always
// redacted so the secret cannot leak into logs through a stray %v or a
// structured field. Serialization is explicit: only the credential store's
// storedCredential form touches the raw value.
type Token struct {
	raw string
}

// NewToken wraps raw token material.
func NewToken(raw string) Token {
	return Token{raw: raw}
}

// Reveal returns the raw secret. Callers are limited to the credential store
// (persistence) and the remote client (Authorization header).
func (t Token) Reveal() string {
	return t.raw
}

// IsZero reports whether the token holds no material.
func (t Token) IsZero() bool {
	return t.raw == ""
}

// String implements fmt.Stringer with a redacted rendering.
func (t Token) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer so %#v is redacted as well.
func (t Token) GoString() string {
	return "auth.Token([REDACTED])"
}

// Format implements fmt.Formatter, covering every verb with the redacted
// rendering. Without this, %s on a *Token or reflection-based formatting
// could still reach the raw field.
func (t Token) Format(f fmt.State, verb rune) {
	fmt.Fprint(f, "[REDACTED]")
}

// MarshalJSON redacts the token in any accidental JSON serialization.
// The credential store bypasses this via storedCredential.
func (t Token) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}

// Credential is a stored authentication credential: the secret token, the
// scheme string used in the Authorization header, and optional expiry and
// refresh metadata kept for the additive OAuth device-flow path.
type Credential struct {
	Token            Token
	Scheme           string // "Bearer"
	AccessExpiresAt  *int64 // epoch seconds
	RefreshToken     Token
	RefreshExpiresAt *int64 // epoch seconds
}

// NewCredential builds a bearer credential from raw token material.
func NewCredential(raw string) Credential {
	return Credential{Token: NewToken(raw), Scheme: "Bearer"}
}
