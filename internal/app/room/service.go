package room

import (
	"context"
	"errors"
	"slices"
	"unicode/utf8"

	"chatcore/internal/pkg/errs"
)

// Service applies authorization rules on top of a Directory. Every method
// returns a *errs.CustomError on failure.
type Service struct {
	dir Directory
}

// NewService creates a Service over dir.
func NewService(dir Directory) *Service {
	return &Service{dir: dir}
}

// Directory exposes the underlying Directory.
func (s *Service) Directory() Directory { return s.dir }

// CreateParams describes a new group room.
type CreateParams struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
	Type        Type     `json:"type"`
	Tags        []string `json:"tags"`
}

// UpdateParams carries the optional fields of an info update; nil means unchanged.
type UpdateParams struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
}

// asCustom maps Directory errors onto application error codes.
func asCustom(err error) *errs.CustomError {
	var customErr *errs.CustomError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &customErr):
		return customErr
	case errors.Is(err, ErrNotFound):
		return errs.NewError(errs.ErrRoomNotFound)
	case errors.Is(err, ErrConflict):
		return errs.Wrap(errs.ErrRoomConflict, err)
	default:
		return errs.NewError(errs.ErrUnknown, err)
	}
}

// MaxDescriptionLength caps a room description, counted in characters.
const MaxDescriptionLength = 200

func validDescription(d string) bool {
	return utf8.RuneCountInString(d) <= MaxDescriptionLength
}

// CreateGroup creates a group room owned by creator. The creator becomes a member and an admin.
func (s *Service) CreateGroup(ctx context.Context, creator string, p CreateParams) (*Room, *errs.CustomError) {
	if p.Name == "" || !validDescription(p.Description) {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	if p.Type == "" {
		p.Type = TypePrivate
	}
	if !p.Type.Valid() {
		return nil, errs.NewError(errs.ErrRoomTypeInvalid)
	}

	r, err := s.dir.Create(ctx, &Room{
		Name:        p.Name,
		Description: p.Description,
		IsGroup:     true,
		Type:        p.Type,
		Members:     addUnique([]string{creator}, p.Members...),
		Admins:      []string{creator},
		CreatedBy:   creator,
		Tags:        p.Tags,
	})
	return r, asCustom(err)
}

// OpenPrivate returns the 1:1 room between caller and peer, creating it when absent.
func (s *Service) OpenPrivate(ctx context.Context, caller, peer string) (*Room, bool, *errs.CustomError) {
	if peer == "" || peer == caller {
		return nil, false, errs.NewError(errs.ErrInvalidParams)
	}
	r, created, err := s.dir.FindOrCreatePrivate(ctx, caller, peer)
	return r, created, asCustom(err)
}

// Get returns the room when caller is a member.
func (s *Service) Get(ctx context.Context, caller, id string) (*Room, *errs.CustomError) {
	r, err := s.dir.Get(ctx, id)
	if err != nil {
		return nil, asCustom(err)
	}
	if !r.IsMember(caller) {
		return nil, errs.NewError(errs.ErrNotRoomMember)
	}
	return r, nil
}

// Members returns the member ids of the room when caller is a member.
func (s *Service) Members(ctx context.Context, caller, id string) ([]string, *errs.CustomError) {
	members, err := s.dir.GetMembers(ctx, id)
	if err != nil {
		return nil, asCustom(err)
	}
	if !slices.Contains(members, caller) {
		return nil, errs.NewError(errs.ErrNotRoomMember)
	}
	return members, nil
}

// mutate runs fn inside an atomic update after checking caller is an admin of a group room.
func (s *Service) mutate(ctx context.Context, caller, id string, fn func(r *Room) error) (*Room, *errs.CustomError) {
	r, err := s.dir.Update(ctx, id, func(r *Room) error {
		if !r.IsGroup {
			return errs.NewError(errs.ErrRoomNotGroup)
		}
		if !r.IsAdmin(caller) {
			return errs.NewError(errs.ErrNotRoomAdmin)
		}
		return fn(r)
	})
	return r, asCustom(err)
}

// AddMembers adds users to the room. Banned users are skipped.
func (s *Service) AddMembers(ctx context.Context, caller, id string, members []string) (*Room, *errs.CustomError) {
	members = uniq(members)
	if len(members) == 0 {
		return nil, errs.NewError(errs.ErrNoMembersProvided)
	}

	return s.mutate(ctx, caller, id, func(r *Room) error {
		for _, m := range members {
			if !r.IsBanned(m) {
				r.Members = addUnique(r.Members, m)
			}
		}
		return nil
	})
}

// RemoveMember removes member from the room and from its admins.
// Admins may remove anyone; a member may remove itself.
func (s *Service) RemoveMember(ctx context.Context, caller, id, member string) (*Room, *errs.CustomError) {
	r, err := s.dir.Update(ctx, id, func(r *Room) error {
		if !r.IsGroup {
			return errs.NewError(errs.ErrRoomNotGroup)
		}
		if caller != member && !r.IsAdmin(caller) {
			return errs.NewError(errs.ErrNotRoomAdmin)
		}
		if !r.IsMember(member) {
			return errs.NewError(errs.ErrNotRoomMember)
		}
		r.Members = remove(r.Members, member)
		r.Admins = remove(r.Admins, member)
		return nil
	})
	return r, asCustom(err)
}

// AddAdmin promotes a member to admin.
func (s *Service) AddAdmin(ctx context.Context, caller, id, userID string) (*Room, *errs.CustomError) {
	return s.mutate(ctx, caller, id, func(r *Room) error {
		if !r.IsMember(userID) {
			return errs.NewError(errs.ErrNotRoomMember)
		}
		r.Admins = addUnique(r.Admins, userID)
		return nil
	})
}

// UpdateInfo changes the name, description and tags of a group room.
func (s *Service) UpdateInfo(ctx context.Context, caller, id string, p UpdateParams) (*Room, *errs.CustomError) {
	if p.Name != nil && *p.Name == "" {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	if p.Description != nil && !validDescription(*p.Description) {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	return s.mutate(ctx, caller, id, func(r *Room) error {
		if p.Name != nil {
			r.Name = *p.Name
		}
		if p.Description != nil {
			r.Description = *p.Description
		}
		if p.Tags != nil {
			r.Tags = uniq(*p.Tags)
		}
		return nil
	})
}

// SetPrivacy changes the visibility type of a group room.
func (s *Service) SetPrivacy(ctx context.Context, caller, id string, t Type) (*Room, *errs.CustomError) {
	if !t.Valid() {
		return nil, errs.NewError(errs.ErrRoomTypeInvalid)
	}
	return s.mutate(ctx, caller, id, func(r *Room) error {
		r.Type = t
		return nil
	})
}

// Mute prevents userID from sending in the room.
func (s *Service) Mute(ctx context.Context, caller, id, userID string) (*Room, *errs.CustomError) {
	return s.moderate(ctx, caller, id, userID, func(r *Room) {
		r.MutedUsers = addUnique(r.MutedUsers, userID)
	})
}

// Unmute lifts a mute.
func (s *Service) Unmute(ctx context.Context, caller, id, userID string) (*Room, *errs.CustomError) {
	return s.moderate(ctx, caller, id, userID, func(r *Room) {
		r.MutedUsers = remove(r.MutedUsers, userID)
	})
}

// Ban prevents userID from joining the room and drops its membership.
func (s *Service) Ban(ctx context.Context, caller, id, userID string) (*Room, *errs.CustomError) {
	return s.moderate(ctx, caller, id, userID, func(r *Room) {
		r.BannedUsers = addUnique(r.BannedUsers, userID)
		r.Members = remove(r.Members, userID)
		r.Admins = remove(r.Admins, userID)
	})
}

// Unban lifts a ban. Membership is not restored.
func (s *Service) Unban(ctx context.Context, caller, id, userID string) (*Room, *errs.CustomError) {
	return s.moderate(ctx, caller, id, userID, func(r *Room) {
		r.BannedUsers = remove(r.BannedUsers, userID)
	})
}

func (s *Service) moderate(ctx context.Context, caller, id, userID string, apply func(r *Room)) (*Room, *errs.CustomError) {
	if userID == "" || userID == caller {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	return s.mutate(ctx, caller, id, func(r *Room) error {
		apply(r)
		return nil
	})
}

// CanJoin reports whether userID may subscribe to the room under strict access.
func (s *Service) CanJoin(ctx context.Context, userID, id string) *errs.CustomError {
	r, err := s.dir.Get(ctx, id)
	if err != nil {
		return asCustom(err)
	}
	if r.IsBanned(userID) {
		return errs.NewError(errs.ErrUserBanned)
	}
	if !r.IsMember(userID) {
		return errs.NewError(errs.ErrNotRoomMember)
	}
	return nil
}

// CanSend reports whether userID may post in the room under strict access.
func (s *Service) CanSend(ctx context.Context, userID, id string) *errs.CustomError {
	r, err := s.dir.Get(ctx, id)
	if err != nil {
		return asCustom(err)
	}
	if !r.IsMember(userID) {
		return errs.NewError(errs.ErrNotRoomMember)
	}
	if r.IsMuted(userID) {
		return errs.NewError(errs.ErrUserMuted)
	}
	return nil
}
