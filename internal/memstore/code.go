package memstore

import "math/rand/v2"

const (
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength   = 5

	// при 36^5 кодах упереться в лимит можно только с подменённым генератором
	maxCodeAttempts = 1000
)

// CodeGenerator выдаёт кандидата в коды комнат. Уникальность проверяет репозиторий.
type CodeGenerator func() string

// RandomCode — короткий код из [0-9A-Z]. Криптостойкость не нужна.
func RandomCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}
