// Package apikey mints the bearer credentials sold by the store.
package apikey

import (
	"crypto/rand"
	"strings"
)

const (
	Prefix = "sk_live_"
	Length = 32

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// largest multiple of len(alphabet) that fits in a byte
	maxByte = 256 - 256%len(alphabet)
)

type Generator interface {
	Generate() string
}

type randomGenerator struct{}

func NewGenerator() Generator {
	return randomGenerator{}
}

// Generate returns Prefix followed by Length symbols drawn uniformly from the
// alphanumeric alphabet. Keys are not checked for uniqueness.
func (randomGenerator) Generate() string {
	var sb strings.Builder
	sb.Grow(len(Prefix) + Length)
	sb.WriteString(Prefix)

	buf := make([]byte, Length*2)
	n := 0
	for n < Length {
		// crypto/rand.Read never returns an error on supported platforms
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			sb.WriteByte(alphabet[int(b)%len(alphabet)])
			n++
			if n == Length {
				break
			}
		}
	}
	return sb.String()
}

func Valid(key string) bool {
	body, ok := strings.CutPrefix(key, Prefix)
	if !ok || len(body) != Length {
		return false
	}
	for i := 0; i < len(body); i++ {
		if strings.IndexByte(alphabet, body[i]) < 0 {
			return false
		}
	}
	return true
}
