package auth

import (
	"crypto/subtle"
	"encoding/hex"

	"crimetrack/core/utils"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

type PasswordHash struct {
	Hash string
	Salt string
}

func hashWith(password, salt, pepper string) string {
	key := argon2.IDKey([]byte(password+pepper), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(key)
}

func HashPassword(password, pepper string) (PasswordHash, error) {
	salt, err := utils.RandString(16)
	if err != nil {
		return PasswordHash{}, err
	}
	return PasswordHash{Hash: hashWith(password, salt, pepper), Salt: salt}, nil
}

func MustHashPassword(password, pepper string) PasswordHash {
	ph, err := HashPassword(password, pepper)
	if err != nil {
		panic(err)
	}
	return ph
}

func VerifyPassword(password, pepper, salt, wantHash string) bool {
	got := hashWith(password, salt, pepper)
	return subtle.ConstantTimeCompare([]byte(got), []byte(wantHash)) == 1
}
