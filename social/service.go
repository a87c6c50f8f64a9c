package social

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/orbstation/portal/model"
	"github.com/orbstation/portal/upstream"
	"go.uber.org/zap"
)

// MutationStatus classifies the outcome of a friendship mutation so callers
// can tell "already handled elsewhere" from a transient failure.
type MutationStatus string

const (
	MutationOK       MutationStatus = "ok"
	MutationConflict MutationStatus = "conflict"
	MutationNotFound MutationStatus = "not_found"
	MutationFailed   MutationStatus = "failed"
)

// MutationResult carries the outcome of one friendship mutation.
// Friendship is set only for MutationOK, and may still be nil when the
// upstream deleted the record (decline/remove).
type MutationResult struct {
	Status     MutationStatus
	Friendship *model.Friendship
}

// Service manages the friendship lifecycle against the upstream API.
// The friendship id space and pair uniqueness are owned and serialized by
// the upstream; this layer never re-validates them locally.
type Service struct {
	api    *upstream.Client
	logger *zap.Logger
}

// NewService creates a friendship Service.
func NewService(api *upstream.Client, logger *zap.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// Add creates a pending request from ckey to friend.
func (s *Service) Add(ctx context.Context, ckey, friend string) MutationResult {
	return s.mutate(ctx, "/v2/player/add_friend", url.Values{"ckey": {ckey}, "friend": {friend}})
}

// Accept transitions a pending request to accepted. Only the recipient may
// accept; enforcement is the upstream's job.
func (s *Service) Accept(ctx context.Context, ckey string, friendshipID int64) MutationResult {
	return s.mutate(ctx, "/v2/player/accept_friend", idQuery(ckey, friendshipID))
}

// Decline cancels a pending request from either side; the record is deleted.
func (s *Service) Decline(ctx context.Context, ckey string, friendshipID int64) MutationResult {
	return s.mutate(ctx, "/v2/player/decline_friend", idQuery(ckey, friendshipID))
}

// Remove deletes an accepted friendship.
func (s *Service) Remove(ctx context.Context, ckey string, friendshipID int64) MutationResult {
	return s.mutate(ctx, "/v2/player/remove_friend", idQuery(ckey, friendshipID))
}

func idQuery(ckey string, friendshipID int64) url.Values {
	return url.Values{
		"ckey":          {ckey},
		"friendship_id": {strconv.FormatInt(friendshipID, 10)},
	}
}

func (s *Service) mutate(ctx context.Context, path string, query url.Values) MutationResult {
	var f *model.Friendship
	err := s.api.Post(ctx, path, query, nil, &f)
	switch {
	case err == nil:
		return MutationResult{Status: MutationOK, Friendship: f}
	case errors.Is(err, upstream.ErrNotFound):
		return MutationResult{Status: MutationNotFound}
	case upstream.IsConflict(err):
		return MutationResult{Status: MutationConflict}
	default:
		s.logger.Warn("friendship mutation failed", zap.String("path", path), zap.Error(err))
		return MutationResult{Status: MutationFailed}
	}
}

// List composes the accepted list and the pending invites from two upstream
// calls issued concurrently. Either call failing fails the whole
// composition; partial results are never returned.
func (s *Service) List(ctx context.Context, ckey string) (*model.FriendshipList, error) {
	query := url.Values{"ckey": {ckey}}

	var friends []model.Friendship
	var invites struct {
		Received []model.Friendship `json:"received"`
		Sent     []model.Friendship `json:"sent"`
	}

	errCh := make(chan error, 2)
	go func() { errCh <- s.api.Get(ctx, "/v2/player/friends", query, &friends) }()
	go func() { errCh <- s.api.Get(ctx, "/v2/player/friend_invites", query, &invites) }()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	list := &model.FriendshipList{
		Friends:  friends,
		Received: invites.Received,
		Sent:     invites.Sent,
	}
	// Keep the JSON shape stable for the client: arrays, never null.
	if list.Friends == nil {
		list.Friends = []model.Friendship{}
	}
	if list.Received == nil {
		list.Received = []model.Friendship{}
	}
	if list.Sent == nil {
		list.Sent = []model.Friendship{}
	}
	return list, nil
}

// Check resolves whether any relationship exists between ckey and friend,
// regardless of which side initiated it. (nil, nil) means no relationship.
func (s *Service) Check(ctx context.Context, ckey, friend string) (*model.Friendship, error) {
	var f *model.Friendship
	err := s.api.Get(ctx, "/v2/player/check_friends", url.Values{"ckey": {ckey}, "friend": {friend}}, &f)
	if errors.Is(err, upstream.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
