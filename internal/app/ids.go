package app

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

// Order codes skip characters that are easy to confuse on printed tickets
// (0/O, 1/I, 2/Z, 5/S, 6/G).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ3789"

// randomCode draws uniformly from the alphabet. Bytes outside the largest
// multiple of the alphabet size are rejected to avoid modulo bias.
func randomCode(length int) (string, error) {
	const limit = byte(len(codeAlphabet) * (256 / len(codeAlphabet)))
	out := make([]byte, 0, length)
	buf := make([]byte, 2*length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("random code: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

func newOrderCode() (string, error) {
	return randomCode(5)
}

func newCustomerIdentifier() (string, error) {
	return randomCode(8)
}

// newPositionSecret returns the per-ticket secret embedded in QR codes.
func newPositionSecret() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
