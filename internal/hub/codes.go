package hub

import (
	"crypto/rand"
	"math/big"
)

// Alphabet leaves out glyphs that are easy to misread: I, L, O, 0 and 1.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	CodeLength  = 5
	TokenLength = 6
)

func randomString(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(Alphabet))))
		if err != nil {
			return "", err
		}
		b[i] = Alphabet[num.Int64()]
	}
	return string(b), nil
}

func GenerateCode() (string, error) { return randomString(CodeLength) }

func GenerateToken() (string, error) { return randomString(TokenLength) }
