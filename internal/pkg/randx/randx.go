/*
Package randx provides functions for generating cryptographically secure random values and unique identifiers.

It is used to generate session IDs for connection logs and fallback guest nicknames for the
interactive client.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// GuestNicknamePrefix is the prefix of generated guest nicknames.
	GuestNicknamePrefix = "User_"

	// GuestNicknameRandomLength is the number of random Base62 characters after the prefix.
	GuestNicknameRandomLength = 6
)

// SessionID generates a standard UUID v4 string identifying one connection for its lifetime.
func SessionID() string {
	return uuid.New().String()
}

// GuestNickname generates a random nickname with a "User_" prefix and 6 random Base62 characters.
func GuestNickname() (string, error) {
	result := make([]byte, GuestNicknameRandomLength)

	for i := range GuestNicknameRandomLength {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for nickname: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return GuestNicknamePrefix + string(result), nil
}
