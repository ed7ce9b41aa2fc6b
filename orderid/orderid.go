// Package orderid generates the short public identifiers that orders are
// addressed by. Identifiers come from crypto/rand so they cannot be
// enumerated; 12 symbols over a 36-symbol alphabet is ~62 bits.
package orderid

import (
	"crypto/rand"
	"fmt"
)

const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const Length = 12

func New() (string, error) {
	return NewWithLength(Length)
}

func NewWithLength(n int) (string, error) {
	if n < 10 {
		n = Length
	}
	buf := make([]byte, n)
	out := make([]byte, n)
	filled := 0
	for filled < n {
		if _, err := rand.Read(buf[:n-filled]); err != nil {
			return "", fmt.Errorf("rand.Read: %w", err)
		}
		// rejection sampling: take the low 6 bits, discard values >= 36
		// so every symbol stays uniformly distributed
		for _, b := range buf[:n-filled] {
			v := b & 0x3f
			if int(v) < len(Alphabet) {
				out[filled] = Alphabet[v]
				filled++
			}
		}
	}
	return string(out), nil
}
