package service

import (
	"crypto/rand"
	"math/big"
)

const (
	codeLength = 8
	charset    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CodeGenerator выдаёт новый кандидат короткого кода
type CodeGenerator func() (string, error)

// RandomCode генерирует случайный код длиной 8 символов из [a-zA-Z0-9]
func RandomCode() (string, error) {
	result := make([]byte, codeLength)
	max := big.NewInt(int64(len(charset)))
	for i := 0; i < codeLength; i++ {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}
