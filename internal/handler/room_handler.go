/*
Package handler provides HTTP handler functions for the Room Directory: creation,
membership, administration and moderation of chat rooms.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatcore/internal/app/room"
	"chatcore/internal/pkg/auth/jwt"
	"chatcore/internal/pkg/errs"
	"chatcore/internal/pkg/randx"
	"chatcore/internal/pkg/req"
	"chatcore/internal/pkg/resp"
)

type OpenPrivateRoomInput struct {
	PeerID string `json:"peerId"`
}

type MembersInput struct {
	Members []string `json:"members"`
}

type AdminInput struct {
	UserID string `json:"userId"`
}

type PrivacyInput struct {
	Type room.Type `json:"type"`
}

// callerID returns the identity set by jwt.RequireIdentity.
func callerID(r *http.Request) string {
	return jwt.GetPayloadFromContext(r).ID
}

// HandleCreateRoom creates a group room owned by the caller.
func HandleCreateRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input room.CreateParams
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		created, customErr := deps.Rooms.CreateGroup(r.Context(), callerID(r), input)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		resp.RespondCreated(w, r, created)
	}
}

// HandleOpenPrivateRoom returns the caller's 1:1 room with a peer, creating it when absent.
func HandleOpenPrivateRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input OpenPrivateRoomInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		found, created, customErr := deps.Rooms.OpenPrivate(r.Context(), callerID(r), input.PeerID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if created {
			resp.RespondCreated(w, r, found)
			return
		}
		resp.RespondSuccess(w, r, found)
	}
}

// RequireRoomID rejects requests whose {id} is not a well-formed room identifier
// before they reach the directory.
func RequireRoomID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !randx.IsValidUUID(chi.URLParam(r, "id")) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleGetRoom returns a room to one of its members.
func HandleGetRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found, customErr := deps.Rooms.Get(r.Context(), callerID(r), chi.URLParam(r, "id"))
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		resp.RespondSuccess(w, r, found)
	}
}

// HandleGetMembers returns the member ids of a room to one of its members.
func HandleGetMembers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, customErr := deps.Rooms.Members(r.Context(), callerID(r), chi.URLParam(r, "id"))
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		resp.RespondSuccess(w, r, map[string]any{"members": members})
	}
}

// HandleAddMembers adds users to a group room.
func HandleAddMembers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input MembersInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		updated, customErr := deps.Rooms.AddMembers(r.Context(), callerID(r), chi.URLParam(r, "id"), input.Members)
		respondRoom(w, r, updated, customErr)
	}
}

// HandleRemoveMember removes a member from a group room.
func HandleRemoveMember(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updated, customErr := deps.Rooms.RemoveMember(r.Context(), callerID(r), chi.URLParam(r, "id"), chi.URLParam(r, "memberId"))
		respondRoom(w, r, updated, customErr)
	}
}

// HandleAddAdmin promotes a member to admin.
func HandleAddAdmin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input AdminInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if input.UserID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		updated, customErr := deps.Rooms.AddAdmin(r.Context(), callerID(r), chi.URLParam(r, "id"), input.UserID)
		respondRoom(w, r, updated, customErr)
	}
}

// HandleUpdateRoom changes the name, description and tags of a group room.
func HandleUpdateRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input room.UpdateParams
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		updated, customErr := deps.Rooms.UpdateInfo(r.Context(), callerID(r), chi.URLParam(r, "id"), input)
		respondRoom(w, r, updated, customErr)
	}
}

// HandleSetPrivacy changes the visibility type of a group room.
func HandleSetPrivacy(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PrivacyInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		updated, customErr := deps.Rooms.SetPrivacy(r.Context(), callerID(r), chi.URLParam(r, "id"), input.Type)
		respondRoom(w, r, updated, customErr)
	}
}

type moderationFunc func(ctx context.Context, caller, roomID, userID string) (*room.Room, *errs.CustomError)

// HandleModerate applies a mute, unmute, ban or unban to the userId path parameter.
func HandleModerate(apply moderationFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updated, customErr := apply(r.Context(), callerID(r), chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
		respondRoom(w, r, updated, customErr)
	}
}

func respondRoom(w http.ResponseWriter, r *http.Request, updated *room.Room, customErr *errs.CustomError) {
	if customErr != nil {
		resp.RespondError(w, r, customErr)
		return
	}
	resp.RespondSuccess(w, r, updated)
}
