/*
Package chat contains the live-delivery core: the session registry, the
room channel router, the message ingestion pipeline and the websocket
client that carries events between a connection and the Hub.

This file defines the socket wire format: the tagged set of inbound events
with their required fields, and the outbound events sent to sessions.
*/
package chat

import (
	"bytes"
	"encoding/json"
	"time"

	"chatcore/internal/app/user"
	"chatcore/internal/pkg/errs"
)

// EventType enumerates the fixed set of socket event kinds.
type EventType string

const (
	// inbound
	EventAuthenticate  EventType = "authenticate"
	EventJoinChatroom  EventType = "join_chatroom"
	EventLeaveChatroom EventType = "leave_chatroom"
	EventSendMessage   EventType = "send_message"

	// inbound and outbound
	EventTyping     EventType = "typing"
	EventStopTyping EventType = "stop_typing"

	// outbound
	EventAuthenticated  EventType = "authenticated"
	EventJoined         EventType = "joined"
	EventLeft           EventType = "left"
	EventReceiveMessage EventType = "receive_message"
	EventMessageAck     EventType = "message_ack"
	EventError          EventType = "error"
)

// Envelope is the raw frame shape of every inbound event.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	TempID  string          `json:"tempId,omitempty"`
}

// Outbound is the frame shape of every event sent to a session.
type Outbound struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// AuthenticatePayload binds an identity token to the session.
type AuthenticatePayload struct {
	Token string `json:"token"`
}

// RoomPayload names a room. It also decodes from a bare JSON string.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// UnmarshalJSON accepts either "r1" or {"roomId":"r1"}.
func (p *RoomPayload) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &p.RoomID)
	}

	type plain RoomPayload
	return json.Unmarshal(data, (*plain)(p))
}

// SendMessagePayload is the Received form of a send request.
type SendMessagePayload struct {
	Sender     string `json:"sender"`
	ChatRoomID string `json:"chatRoomId"`
	Content    string `json:"content"`
	Type       string `json:"type,omitempty"`
}

// TypingPayload carries a typing signal. SenderID defaults to the session identity.
type TypingPayload struct {
	RoomID   string `json:"roomId"`
	SenderID string `json:"senderId,omitempty"`
}

// AuthenticatedPayload confirms the identity bound to the session.
type AuthenticatedPayload struct {
	UserID string `json:"userId"`
}

// ReceiveMessagePayload is an enriched message delivered to room subscribers.
type ReceiveMessagePayload struct {
	ID        string       `json:"id"`
	Sender    user.Display `json:"sender"`
	ChatRoom  string       `json:"chatRoom"`
	Content   string       `json:"content"`
	Type      string       `json:"type"`
	IsLiked   bool         `json:"isLiked"`
	CreatedAt time.Time    `json:"createdAt"`

	// Time is CreatedAt as a short "15:04" string in the server time zone.
	Time string `json:"time"`
}

// AckPayload confirms a persisted message to its sender.
type AckPayload struct {
	TempID    string    `json:"tempId,omitempty"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorPayload is the explicit failure acknowledgment for one inbound event.
type ErrorPayload struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Event   EventType `json:"event,omitempty"`
	TempID  string    `json:"tempId,omitempty"`
}

// Event is a decoded inbound event. Exactly one payload pointer is set, matching Type.
type Event struct {
	Type   EventType
	TempID string

	Authenticate *AuthenticatePayload
	Room         *RoomPayload
	Send         *SendMessagePayload
	Typing       *TypingPayload
}

// DecodeEvent parses a raw frame into an Event, rejecting unknown kinds and
// missing required fields. send_message fields are checked by the Pipeline.
func DecodeEvent(raw []byte) (Event, *errs.CustomError) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, errs.NewError(errs.ErrInvalidJSONFormat)
	}

	ev := Event{Type: env.Type, TempID: env.TempID}

	var target any
	switch env.Type {
	case EventAuthenticate:
		ev.Authenticate = &AuthenticatePayload{}
		target = ev.Authenticate
	case EventJoinChatroom, EventLeaveChatroom:
		ev.Room = &RoomPayload{}
		target = ev.Room
	case EventSendMessage:
		ev.Send = &SendMessagePayload{}
		target = ev.Send
	case EventTyping, EventStopTyping:
		ev.Typing = &TypingPayload{}
		target = ev.Typing
	case "":
		return ev, errs.NewError(errs.ErrInvalidPayload, "type")
	default:
		return ev, errs.NewError(errs.ErrUnsupportedEvent, string(env.Type))
	}

	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return ev, errs.NewError(errs.ErrInvalidPayload, "payload")
	}
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return ev, errs.NewError(errs.ErrInvalidJSONFormat)
	}

	switch {
	case ev.Authenticate != nil && ev.Authenticate.Token == "":
		return ev, errs.NewError(errs.ErrInvalidPayload, "token")
	case ev.Room != nil && ev.Room.RoomID == "":
		return ev, errs.NewError(errs.ErrInvalidPayload, "roomId")
	case ev.Typing != nil && ev.Typing.RoomID == "":
		return ev, errs.NewError(errs.ErrInvalidPayload, "roomId")
	}

	return ev, nil
}

// encode marshals an outbound event.
func encode(t EventType, payload any) ([]byte, error) {
	return json.Marshal(Outbound{Type: t, Payload: payload})
}
