package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"chatcore/internal/pkg/errs"
	"chatcore/internal/pkg/req"
	"chatcore/internal/pkg/resp"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// HandleListMessages returns a page of a room's history, newest first, to one of its members.
// The before query parameter is an RFC 3339 cursor; omitted means now.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "id")

		if _, customErr := deps.Rooms.Get(r.Context(), callerID(r), roomID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		limit, customErr := req.QueryInt(r, "limit", defaultHistoryLimit, 1, maxHistoryLimit)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var before time.Time
		if raw := r.URL.Query().Get("before"); raw != "" {
			parsed, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			before = parsed
		}

		msgs, err := deps.Messages.ListByRoom(r.Context(), roomID, before, limit)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		var next string
		if len(msgs) == limit {
			next = msgs[len(msgs)-1].CreatedAt.Format(time.RFC3339Nano)
		}
		resp.RespondPage(w, r, "messages", msgs, next)
	}
}
