package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcore/internal/pkg/errs"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code int
		want func(t *testing.T, ev Event)
	}{
		{
			name: "join with bare room id",
			raw:  `{"type":"join_chatroom","payload":"r1"}`,
			want: func(t *testing.T, ev Event) { assert.Equal(t, "r1", ev.Room.RoomID) },
		},
		{
			name: "leave with object",
			raw:  `{"type":"leave_chatroom","payload":{"roomId":"r2"}}`,
			want: func(t *testing.T, ev Event) { assert.Equal(t, "r2", ev.Room.RoomID) },
		},
		{
			name: "send keeps fields for the pipeline",
			raw:  `{"type":"send_message","tempId":"t1","payload":{"sender":"u1","chatRoomId":"r1","content":""}}`,
			want: func(t *testing.T, ev Event) {
				assert.Equal(t, "t1", ev.TempID)
				assert.Equal(t, SendMessagePayload{Sender: "u1", ChatRoomID: "r1"}, *ev.Send)
			},
		},
		{
			name: "typing",
			raw:  `{"type":"typing","payload":{"roomId":"r1"}}`,
			want: func(t *testing.T, ev Event) { assert.Equal(t, "r1", ev.Typing.RoomID) },
		},
		{name: "invalid json", raw: `{"type":`, code: errs.ErrInvalidJSONFormat},
		{name: "missing type", raw: `{"payload":"r1"}`, code: errs.ErrInvalidPayload},
		{name: "unknown type", raw: `{"type":"dance","payload":{}}`, code: errs.ErrUnsupportedEvent},
		{name: "missing payload", raw: `{"type":"join_chatroom"}`, code: errs.ErrInvalidPayload},
		{name: "empty room", raw: `{"type":"join_chatroom","payload":""}`, code: errs.ErrInvalidPayload},
		{name: "typing without room", raw: `{"type":"stop_typing","payload":{"senderId":"u1"}}`, code: errs.ErrInvalidPayload},
		{name: "authenticate without token", raw: `{"type":"authenticate","payload":{}}`, code: errs.ErrInvalidPayload},
		{name: "wrong payload shape", raw: `{"type":"send_message","payload":[1,2]}`, code: errs.ErrInvalidJSONFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, customErr := DecodeEvent([]byte(tt.raw))
			if tt.code != 0 {
				require.NotNil(t, customErr)
				assert.Equal(t, tt.code, customErr.Code)
				return
			}
			require.Nil(t, customErr)
			tt.want(t, ev)
		})
	}
}

func TestUnsupportedEventMessageNamesType(t *testing.T) {
	_, customErr := DecodeEvent([]byte(`{"type":"dance","payload":{}}`))
	require.NotNil(t, customErr)
	assert.Equal(t, "Unsupported event type: dance.", customErr.Message)

	_, customErr = DecodeEvent([]byte(`{"type":"join_chatroom","payload":{}}`))
	require.NotNil(t, customErr)
	assert.Equal(t, "Missing required field: roomId.", customErr.Message)
}
