/*
Package chat contains the live-delivery core.

This file defines the message ingestion Pipeline:
Received -> Validated -> Persisted -> Enriched -> Published, with Failed reachable
from validation and from the persistence attempt. A message reaches the Router
only after the store confirmed it, and exactly once.
*/
package chat

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"chatcore/internal/app/message"
	"chatcore/internal/app/room"
	"chatcore/internal/app/user"
	"chatcore/internal/pkg/errs"
	"chatcore/internal/pkg/logx"
)

const (
	// MaxContentLength is the maximum number of characters in a message.
	MaxContentLength = 5000

	// DefaultStoreTimeout bounds a single store call when none is configured.
	DefaultStoreTimeout = 10 * time.Second

	// shortTimeLayout formats the "time" field of receive_message.
	shortTimeLayout = "15:04"
)

// Stage is a state of the ingestion state machine.
type Stage int

const (
	StageReceived Stage = iota
	StageValidated
	StagePersisted
	StageEnriched
	StagePublished
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageValidated:
		return "validated"
	case StagePersisted:
		return "persisted"
	case StageEnriched:
		return "enriched"
	case StagePublished:
		return "published"
	case StageFailed:
		return "failed"
	}
	return "unknown"
}

// SendPolicy decides whether a user may post in a room.
type SendPolicy interface {
	CanSend(ctx context.Context, userID, roomID string) *errs.CustomError
}

// Result is the outcome of one Ingest call.
type Result struct {
	// Stage is StagePublished on success, StageFailed otherwise.
	Stage Stage

	// FailedAt is the stage whose transition failed; meaningful only when Stage is StageFailed.
	FailedAt Stage

	// Message is the persisted record, nil on failure before persistence.
	Message *message.Message

	// Event is the enriched payload handed to the Router.
	Event *ReceiveMessagePayload

	// Delivered is the number of sessions the event reached.
	Delivered int

	Err *errs.CustomError
}

// PipelineConfig holds the collaborators and tunables of a Pipeline.
type PipelineConfig struct {
	Store  message.Store
	Rooms  room.Directory
	Users  user.Lookup
	Router *Router

	// Policy is consulted in the Validated stage; nil allows every sender.
	Policy SendPolicy

	StoreTimeout time.Duration
	TimeZone     *time.Location
}

// Pipeline runs send requests through the ingestion state machine.
type Pipeline struct {
	store        message.Store
	rooms        room.Directory
	users        user.Lookup
	router       *Router
	policy       SendPolicy
	storeTimeout time.Duration
	loc          *time.Location

	// structured logger with Pipeline context.
	logger zerolog.Logger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	p := &Pipeline{
		store:        cfg.Store,
		rooms:        cfg.Rooms,
		users:        cfg.Users,
		router:       cfg.Router,
		policy:       cfg.Policy,
		storeTimeout: cfg.StoreTimeout,
		loc:          cfg.TimeZone,
		logger:       logx.Component("Pipeline"),
	}
	if p.storeTimeout <= 0 {
		p.storeTimeout = DefaultStoreTimeout
	}
	if p.loc == nil {
		p.loc = time.UTC
	}
	return p
}

func failed(at Stage, customErr *errs.CustomError, msg *message.Message) Result {
	return Result{Stage: StageFailed, FailedAt: at, Err: customErr, Message: msg}
}

// Ingest runs one send request submitted by principal.
func (p *Pipeline) Ingest(ctx context.Context, principal user.Principal, req SendMessagePayload) Result {
	// Received -> Validated
	if customErr := p.validate(ctx, principal, req); customErr != nil {
		p.logger.Debug().
			Str("user_id", principal.ID).
			Str("room_id", req.ChatRoomID).
			Int("code", customErr.Code).
			Msg("Send request rejected.")
		return failed(StageValidated, customErr, nil)
	}

	// Validated -> Persisted. The append is bounded by the store timeout only: a sender
	// disconnecting mid-write must not turn a committed insert into a reported failure.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.storeTimeout)
	msg, err := p.store.Append(storeCtx, message.NewMessage{
		Sender:   req.Sender,
		ChatRoom: req.ChatRoomID,
		Content:  req.Content,
		Type:     req.Type,
	})
	cancel()
	if err != nil {
		p.logger.Error().Err(err).
			Str("user_id", req.Sender).
			Str("room_id", req.ChatRoomID).
			Msg("Failed to persist message.")
		return failed(StagePersisted, errs.Wrap(errs.ErrStoreFailure, err), nil)
	}

	// Persisted -> Enriched. From here on the message must reach the Router.
	detached := context.WithoutCancel(ctx)
	event := p.enrich(detached, msg)

	// Enriched -> Published
	data, err := encode(EventReceiveMessage, event)
	if err != nil {
		p.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to encode persisted message.")
		return failed(StageEnriched, errs.NewError(errs.ErrUnknown, err), msg)
	}
	delivered := p.router.Publish(msg.ChatRoom, data, "")

	p.updateLastMessage(detached, msg)

	return Result{Stage: StagePublished, Message: msg, Event: event, Delivered: delivered}
}

func (p *Pipeline) validate(ctx context.Context, principal user.Principal, req SendMessagePayload) *errs.CustomError {
	switch {
	case req.Sender == "":
		return errs.NewError(errs.ErrInvalidPayload, "sender")
	case req.ChatRoomID == "":
		return errs.NewError(errs.ErrInvalidPayload, "chatRoomId")
	case req.Content == "":
		return errs.NewError(errs.ErrInvalidPayload, "content")
	}

	if principal.ID == "" || req.Sender != principal.ID {
		return errs.NewError(errs.ErrUnauthorized)
	}

	if utf8.RuneCountInString(req.Content) > MaxContentLength {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}

	if p.policy != nil {
		return p.policy.CanSend(ctx, principal.ID, req.ChatRoomID)
	}
	return nil
}

// enrich resolves display attributes for the sender, falling back to the bare id.
func (p *Pipeline) enrich(ctx context.Context, msg *message.Message) *ReceiveMessagePayload {
	display := user.Display{ID: msg.Sender}

	if p.users != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, p.storeTimeout)
		resolved, err := p.users.ResolveDisplay(lookupCtx, msg.Sender)
		cancel()

		switch {
		case err == nil:
			display = resolved
			display.ID = msg.Sender
		case errors.Is(err, user.ErrNotFound):
			p.logger.Debug().Str("user_id", msg.Sender).Msg("Sender display not found, using bare id.")
		default:
			p.logger.Warn().Err(err).Str("user_id", msg.Sender).Msg("Sender lookup failed, using bare id.")
		}
	}

	return &ReceiveMessagePayload{
		ID:        msg.ID,
		Sender:    display,
		ChatRoom:  msg.ChatRoom,
		Content:   msg.Content,
		Type:      msg.Type,
		IsLiked:   msg.IsLiked,
		CreatedAt: msg.CreatedAt,
		Time:      msg.CreatedAt.In(p.loc).Format(shortTimeLayout),
	}
}

// updateLastMessage refreshes the room snapshot. Failure does not undo the fan-out.
func (p *Pipeline) updateLastMessage(ctx context.Context, msg *message.Message) {
	if p.rooms == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	createdAt := msg.CreatedAt
	err := p.rooms.UpdateLastMessage(ctx, msg.ChatRoom, room.LastMessage{
		Text:      msg.Content,
		Sender:    msg.Sender,
		CreatedAt: &createdAt,
	})
	if errors.Is(err, room.ErrNotFound) {
		p.logger.Debug().Str("room_id", msg.ChatRoom).Msg("Message posted to a room without a directory record.")
		return
	}
	if err != nil {
		p.logger.Warn().Err(err).
			Str("room_id", msg.ChatRoom).
			Str("message_id", msg.ID).
			Msg("Failed to update room last message.")
	}
}
