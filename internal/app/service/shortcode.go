package service

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/sifan077/LinkPulse/internal/app/model"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Bytes at or above this value are discarded so every symbol stays equally likely.
const unbiasedByteLimit = 256 - 256%len(codeAlphabet)

// CodeGenerator produces short code candidates. Implementations must be safe for concurrent use.
type CodeGenerator interface {
	Generate() (string, error)
}

type randomCodeGenerator struct {
	length int
	source io.Reader
}

// NewCodeGenerator returns a crypto/rand backed generator of fixed-length alphanumeric codes.
func NewCodeGenerator(length int) CodeGenerator {
	if length <= 0 {
		length = model.ShortCodeLength
	}
	return &randomCodeGenerator{length: length, source: rand.Reader}
}

func (g *randomCodeGenerator) Generate() (string, error) {
	code := make([]byte, 0, g.length)
	buf := make([]byte, g.length+g.length/4+1)

	for len(code) < g.length {
		if _, err := io.ReadFull(g.source, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= unbiasedByteLimit {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == g.length {
				break
			}
		}
	}

	return string(code), nil
}
