// Package ids generates short layer and variable identifiers.
package ids

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// Length is the number of characters in a generated identifier.
const Length = 7

// Alphabet is the set of characters identifiers are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// New returns a random identifier of Length alphanumeric characters.
// Uniqueness is probabilistic (62^7 possibilities).
func New() string {
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			panic("ids: reading random source: " + err.Error())
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf)
}

// Valid reports whether s has the shape of a generated identifier.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum {
			return false
		}
	}
	return true
}

// Generator is a source of identifiers. New satisfies it.
type Generator func() string

// Sequence returns a deterministic Generator that yields prefix1, prefix2, ...
// It is meant for tests and fixtures.
func Sequence(prefix string) Generator {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}
