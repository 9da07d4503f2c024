package user

import (
	"context"
	"strings"
	"time"

	"chatcore/internal/pkg/logx"
)

// AvatarSigner turns an object-storage key into a time-limited download URL.
type AvatarSigner interface {
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)
}

// SignedLookup rewrites avatar object keys returned by next into presigned URLs.
// Absolute URLs pass through untouched; a signing failure drops the avatar, never the display.
type SignedLookup struct {
	next   Lookup
	signer AvatarSigner
	ttl    time.Duration
}

// NewSignedLookup wraps next so that avatar keys are signed for ttl.
func NewSignedLookup(next Lookup, signer AvatarSigner, ttl time.Duration) *SignedLookup {
	return &SignedLookup{next: next, signer: signer, ttl: ttl}
}

// ResolveDisplay implements Lookup.
func (s *SignedLookup) ResolveDisplay(ctx context.Context, userID string) (Display, error) {
	d, err := s.next.ResolveDisplay(ctx, userID)
	if err != nil {
		return Display{}, err
	}

	if d.Avatar == "" || isAbsoluteURL(d.Avatar) {
		return d, nil
	}

	url, err := s.signer.PresignDownload(ctx, d.Avatar, s.ttl)
	if err != nil {
		logx.Warn("Avatar signing failed, omitting avatar", "user_id", userID, "error", err)
		d.Avatar = ""
		return d, nil
	}

	d.Avatar = url
	return d, nil
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
