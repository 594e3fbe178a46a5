package gate

import "context"

// Verifier decides whether a challenge response unlocks a village.
type Verifier interface {
	Verify(ctx context.Context, village, code string) bool
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, village, code string) bool

// Verify implements Verifier.
func (f VerifierFunc) Verify(ctx context.Context, village, code string) bool {
	return f(ctx, village, code)
}

// CodeLength is the number of digits in a challenge response.
const CodeLength = 6

// PrefixCodeVerifier accepts any six-digit code starting with Prefix. It is a
// stand-in for a real one-time-code check and ignores the village.
type PrefixCodeVerifier struct {
	Prefix byte
}

// Verify implements Verifier.
func (v PrefixCodeVerifier) Verify(_ context.Context, _ string, code string) bool {
	prefix := v.Prefix
	if prefix == 0 {
		prefix = '1'
	}
	if len(code) != CodeLength || code[0] != prefix {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
