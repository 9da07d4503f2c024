package randx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionID(t *testing.T) {
	seen := make(map[string]struct{})

	for range 200 {
		id, err := SessionID()
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(id, SessionIDPrefix), id)
		raw := strings.TrimPrefix(id, SessionIDPrefix)
		require.Len(t, raw, SessionIDRawLength)
		for _, c := range raw {
			assert.True(t, strings.ContainsRune(Base62Chars, c), id)
		}

		_, dup := seen[id]
		assert.False(t, dup, "duplicate session id %s", id)
		seen[id] = struct{}{}
	}
}

func TestUUIDs(t *testing.T) {
	assert.True(t, IsValidUUID(MessageID()))
	assert.True(t, IsValidUUID(RoomID()))
	assert.NotEqual(t, RoomID(), RoomID())
	assert.False(t, IsValidUUID("r1"))
}
