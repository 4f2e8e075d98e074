package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const defaultTokenSize = 32

type TokenGenerator interface {
	Generate() (string, error)
}

// RandomTokenGenerator выдает непредсказуемые токены приглашения из crypto/rand
type RandomTokenGenerator struct {
	Size int
}

func (g RandomTokenGenerator) Generate() (string, error) {
	size := g.Size
	if size <= 0 {
		size = defaultTokenSize
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
