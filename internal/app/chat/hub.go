/*
Package chat contains the live-delivery core.

This file defines the Hub, which owns the Registry, the Router and the Pipeline
for the lifetime of the server. Connections hand it decoded events; each event
kind has its own handler returning a typed error.
*/
package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"chatcore/internal/app/message"
	"chatcore/internal/app/room"
	"chatcore/internal/app/user"
	"chatcore/internal/pkg/auth/jwt"
	"chatcore/internal/pkg/errs"
	"chatcore/internal/pkg/logx"
)

// JoinPolicy decides whether a user may subscribe to a room.
type JoinPolicy interface {
	CanJoin(ctx context.Context, userID, roomID string) *errs.CustomError
}

// AccessPolicy restricts both joining and sending.
type AccessPolicy interface {
	JoinPolicy
	SendPolicy
}

// HubConfig holds the tunables of a Hub.
type HubConfig struct {
	JWTSecret    string
	QueueSize    int
	StoreTimeout time.Duration
	TimeZone     *time.Location

	// Access enforces room membership on join and send; nil leaves both open.
	Access AccessPolicy
}

// Stats is a point-in-time view of live state.
type Stats struct {
	Sessions int `json:"sessions"`
	Rooms    int `json:"rooms"`
}

// Hub is the coordinator of live chat state.
type Hub struct {
	registry *Registry
	router   *Router
	pipeline *Pipeline

	secret string
	access AccessPolicy

	// ctx is the parent of every session context; cancelled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	// structured logger with Hub context.
	logger zerolog.Logger
}

// NewHub constructs a Hub over the given collaborators.
func NewHub(cfg HubConfig, store message.Store, rooms room.Directory, users user.Lookup) *Hub {
	router := NewRouter()
	ctx, cancel := context.WithCancel(context.Background())

	pcfg := PipelineConfig{
		Store:        store,
		Rooms:        rooms,
		Users:        users,
		Router:       router,
		Policy:       cfg.Access,
		StoreTimeout: cfg.StoreTimeout,
		TimeZone:     cfg.TimeZone,
	}

	h := &Hub{
		registry: NewRegistry(router, cfg.QueueSize),
		router:   router,
		pipeline: NewPipeline(pcfg),
		secret:   cfg.JWTSecret,
		access:   cfg.Access,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logx.Component("Hub"),
	}

	h.logger.Info().
		Bool("strict_room_access", cfg.Access != nil).
		Int("queue_size", h.registry.queueSize).
		Msg("Hub started.")

	return h
}

// Registry returns the session registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Router returns the room channel router.
func (h *Hub) Router() *Router { return h.router }

// Pipeline returns the ingestion pipeline.
func (h *Hub) Pipeline() *Pipeline { return h.pipeline }

// Stats returns the number of live sessions and subscribed rooms.
func (h *Hub) Stats() Stats {
	return Stats{Sessions: h.registry.Len(), Rooms: h.router.Rooms()}
}

// Connect allocates a session for a new connection.
func (h *Hub) Connect() (*Session, error) {
	return h.registry.Connect(h.ctx)
}

// Disconnect tears the session down. Safe to call any number of times.
func (h *Hub) Disconnect(sessionID string) {
	h.registry.Disconnect(sessionID)
}

// VerifyToken validates an identity token and returns its principal.
func (h *Hub) VerifyToken(token string) (user.Principal, *errs.CustomError) {
	payload, err := jwt.ParseToken(token, h.secret)
	if err != nil {
		return user.Principal{}, errs.Wrap(errs.ErrUnauthorized, err)
	}
	return user.Principal{ID: payload.ID, Role: payload.Role}, nil
}

// Bind attaches principal to the session and confirms it to the client.
func (h *Hub) Bind(s *Session, principal user.Principal) *errs.CustomError {
	if customErr := h.registry.Authenticate(s.SessionID(), principal); customErr != nil {
		return customErr
	}
	h.reply(s, EventAuthenticated, AuthenticatedPayload{UserID: principal.ID})
	return nil
}

// HandleRaw decodes one inbound frame and handles it.
func (h *Hub) HandleRaw(ctx context.Context, s *Session, raw []byte) *errs.CustomError {
	ev, customErr := DecodeEvent(raw)
	if customErr != nil {
		s.logger.Debug().Str("event", string(ev.Type)).Int("code", customErr.Code).Msg("Rejected inbound frame.")
		h.sendError(s, ev.Type, ev.TempID, customErr)
		return customErr
	}
	return h.HandleEvent(ctx, s, ev)
}

// HandleEvent dispatches a decoded event to its handler. A failure is reported
// to the session as an error event and returned.
func (h *Hub) HandleEvent(ctx context.Context, s *Session, ev Event) *errs.CustomError {
	var customErr *errs.CustomError

	switch ev.Type {
	case EventAuthenticate:
		customErr = h.handleAuthenticate(s, ev.Authenticate)
	case EventJoinChatroom:
		customErr = h.handleJoin(ctx, s, ev.Room)
	case EventLeaveChatroom:
		customErr = h.handleLeave(s, ev.Room)
	case EventSendMessage:
		customErr = h.handleSend(ctx, s, ev.TempID, ev.Send)
	case EventTyping, EventStopTyping:
		customErr = h.handleTyping(s, ev.Type, ev.Typing)
	default:
		customErr = errs.NewError(errs.ErrUnsupportedEvent, string(ev.Type))
	}

	if customErr != nil {
		h.sendError(s, ev.Type, ev.TempID, customErr)
	}
	return customErr
}

func (h *Hub) handleAuthenticate(s *Session, p *AuthenticatePayload) *errs.CustomError {
	if p == nil {
		return errs.NewError(errs.ErrInvalidPayload, "token")
	}

	principal, customErr := h.VerifyToken(p.Token)
	if customErr != nil {
		s.logger.Warn().Err(customErr.Cause).Msg("Socket authentication failed.")
		return customErr
	}
	return h.Bind(s, principal)
}

func (h *Hub) handleJoin(ctx context.Context, s *Session, p *RoomPayload) *errs.CustomError {
	if p == nil {
		return errs.NewError(errs.ErrInvalidPayload, "roomId")
	}

	principal, ok := s.Principal()
	if !ok {
		return errs.NewError(errs.ErrUnauthorized)
	}

	if h.access != nil {
		if customErr := h.access.CanJoin(ctx, principal.ID, p.RoomID); customErr != nil {
			return customErr
		}
	}

	added, customErr := h.registry.Join(s.SessionID(), p.RoomID)
	if customErr != nil {
		return customErr
	}

	if added {
		s.logger.Debug().Str("room_id", p.RoomID).Int("subscribers", h.router.Subscribers(p.RoomID)).Msg("Joined room.")
	}
	h.reply(s, EventJoined, RoomPayload{RoomID: p.RoomID})
	return nil
}

func (h *Hub) handleLeave(s *Session, p *RoomPayload) *errs.CustomError {
	if p == nil {
		return errs.NewError(errs.ErrInvalidPayload, "roomId")
	}

	if _, customErr := h.registry.Leave(s.SessionID(), p.RoomID); customErr != nil {
		return customErr
	}
	h.reply(s, EventLeft, RoomPayload{RoomID: p.RoomID})
	return nil
}

func (h *Hub) handleSend(ctx context.Context, s *Session, tempID string, p *SendMessagePayload) *errs.CustomError {
	if p == nil {
		return errs.NewError(errs.ErrInvalidPayload, "payload")
	}

	principal, ok := s.Principal()
	if !ok {
		return errs.NewError(errs.ErrUnauthorized)
	}

	res := h.pipeline.Ingest(ctx, principal, *p)
	if res.Stage == StageFailed {
		return res.Err
	}

	h.reply(s, EventMessageAck, AckPayload{
		TempID:    tempID,
		ID:        res.Message.ID,
		CreatedAt: res.Message.CreatedAt,
	})
	return nil
}

func (h *Hub) handleTyping(s *Session, t EventType, p *TypingPayload) *errs.CustomError {
	if p == nil {
		return errs.NewError(errs.ErrInvalidPayload, "roomId")
	}

	principal, ok := s.Principal()
	if !ok {
		return errs.NewError(errs.ErrUnauthorized)
	}

	signal := *p
	if signal.SenderID == "" {
		signal.SenderID = principal.ID
	}
	if signal.SenderID != principal.ID {
		return errs.NewError(errs.ErrUnauthorized)
	}

	data, err := encode(t, signal)
	if err != nil {
		return errs.NewError(errs.ErrUnknown, err)
	}
	h.router.Publish(signal.RoomID, data, s.SessionID())
	return nil
}

// reply queues a direct event for s.
func (h *Hub) reply(s *Session, t EventType, payload any) {
	data, err := encode(t, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", string(t)).Msg("Failed to encode reply.")
		return
	}
	s.Deliver(data)
}

// sendError queues an explicit failure acknowledgment for one inbound event.
func (h *Hub) sendError(s *Session, event EventType, tempID string, customErr *errs.CustomError) {
	h.reply(s, EventError, ErrorPayload{
		Code:    customErr.Code,
		Message: customErr.Message,
		Event:   event,
		TempID:  tempID,
	})
}

// Shutdown disconnects every session. Each write pump sends a close frame on its way out.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down Hub...")

	h.cancel()
	n := h.registry.DisconnectAll()

	h.logger.Info().Int("sessions_closed", n).Msg("Hub shutdown complete.")
}
