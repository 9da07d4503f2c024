package jwt

import (
	"context"
	"net/http"
	"strings"

	"chatcore/internal/pkg/errs"
	"chatcore/internal/pkg/logx"
	"chatcore/internal/pkg/resp"
)

// Define Context Key for storing the Payload struct, preventing key collisions with other packages.
type contextKey string

const (
	// ContextAuthPayloadKey is the key used to store the parsed jwt.Payload (user identity) in the request Context.
	ContextAuthPayloadKey contextKey = "auth_payload"

	// TokenQueryParam is the query parameter accepted by websocket upgrades,
	// since browsers cannot set headers on a websocket handshake.
	TokenQueryParam = "token"
)

// TokenFromRequest extracts a bearer token from the Authorization header,
// falling back to the token query parameter. It returns "" when none is present.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	return r.URL.Query().Get(TokenQueryParam)
}

// IdentityExtractorMiddleware attempts to extract and validate a JWT from the request.
// It injects the Payload into the Context upon success. It does NOT interrupt the request
// on failure or missing token, treating the user as anonymous instead.
func IdentityExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := TokenFromRequest(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			payload, err := ParseToken(tokenString, secretKey)
			if err != nil {
				logx.Warn("Invalid or expired JWT provided, treating as anonymous", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), payload)))
		})
	}
}

// RequireIdentity rejects requests without an identity in the context with ErrUnauthorized.
// It must run after IdentityExtractorMiddleware.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetPayloadFromContext(r) == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPayload returns a copy of ctx carrying payload.
func WithPayload(ctx context.Context, payload *Payload) context.Context {
	return context.WithValue(ctx, ContextAuthPayloadKey, payload)
}

// GetPayloadFromContext safely extracts the authenticated Payload from the request Context.
// In contexts where IdentityExtractorMiddleware is used, a nil return means the user is anonymous.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}
