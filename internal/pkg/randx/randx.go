/*
Package randx provides functions for generating cryptographically secure random identifiers.

Durable records (messages, rooms) are keyed by UUID v4 strings; ephemeral
connection sessions use short Base62 tokens with a fixed prefix.
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

	// SessionIDPrefix is the prefix of every connection session identifier.
	SessionIDPrefix = "sess_"

	// SessionIDRawLength is the fixed length of the Base62 part of a session identifier.
	SessionIDRawLength = 12
)

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a message.
func MessageID() string {
	return uuid.New().String()
}

// RoomID generates a standard UUID v4 string for a new chat room.
func RoomID() string {
	return uuid.New().String()
}

// SessionID generates a Base62 session identifier using crypto/rand.
func SessionID() (string, error) {
	result := make([]byte, SessionIDRawLength)

	for i := range SessionIDRawLength {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for session id: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return SessionIDPrefix + string(result), nil
}

// IsValidUUID reports whether id parses as a UUID.
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
