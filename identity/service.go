package identity

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/orbstation/portal/upstream"
	"go.uber.org/zap"
)

// Service binds Discord identities to game-account ckeys via the upstream
// API and implements the session link-refresh policy.
type Service struct {
	api    *upstream.Client
	logger *zap.Logger
}

// NewService creates an identity Service.
func NewService(api *upstream.Client, logger *zap.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// Resolve looks up the upstream discord-id→ckey mapping.
// 200 means linked, 404 means confirmed unlinked; anything else is a
// transient failure and the caller must keep its previous state.
func (s *Service) Resolve(ctx context.Context, discordID string) (Link, error) {
	var ckey string
	err := s.api.Get(ctx, "/v2/player/discord", url.Values{"discord_id": {discordID}}, &ckey)
	switch {
	case err == nil:
		return Linked(ckey), nil
	case errors.Is(err, upstream.ErrNotFound):
		return Unlinked(), nil
	default:
		return Unresolved(), err
	}
}

// RefreshLink applies the session (re)issuance policy. An explicit ckey
// supplied by a completed verification always wins without re-querying;
// otherwise the mapping is resolved fresh, and a transient upstream failure
// leaves the current state untouched.
func (s *Service) RefreshLink(ctx context.Context, discordID string, current Link, explicit *string) Link {
	if explicit != nil {
		return Linked(*explicit)
	}
	next, err := s.Resolve(ctx, discordID)
	if err != nil {
		s.logger.Warn("link resolution failed, keeping cached state",
			zap.String("discord_id", discordID),
			zap.Error(err),
		)
		return current.Normalize()
	}
	return next
}

// VerifyStatus classifies the outcome of a verification-code exchange.
type VerifyStatus string

const (
	VerifyOK            VerifyStatus = "ok"
	VerifyInvalidCode   VerifyStatus = "invalid_code"
	VerifyAlreadyLinked VerifyStatus = "already_linked"
	VerifyServerError   VerifyStatus = "server_error"
)

// VerifyResult is the discriminated outcome of ExchangeCode. It is a value,
// not an error: every failure mode has a user-facing message.
type VerifyResult struct {
	Status  VerifyStatus `json:"status"`
	Ckey    string       `json:"ckey,omitempty"`
	Message string       `json:"message"`
}

func (r VerifyResult) OK() bool { return r.Status == VerifyOK }

type verifyRequest struct {
	DiscordID    string `json:"discord_id"`
	OneTimeToken string `json:"one_time_token"`
}

// ExchangeCode trades a one-time code plus Discord identity for a permanent
// link. The code format and expiry are owned by the game server; it is
// forwarded as-is apart from whitespace trimming.
func (s *Service) ExchangeCode(ctx context.Context, code, discordID string) VerifyResult {
	body := verifyRequest{DiscordID: discordID, OneTimeToken: strings.TrimSpace(code)}

	var ckey string
	err := s.api.Post(ctx, "/v2/verify", nil, body, &ckey)
	switch {
	case err == nil:
		return VerifyResult{Status: VerifyOK, Ckey: ckey, Message: "Account verified."}
	case errors.Is(err, upstream.ErrNotFound):
		return VerifyResult{Status: VerifyInvalidCode, Message: "The verification code is invalid or has expired."}
	case upstream.IsConflict(err):
		return VerifyResult{Status: VerifyAlreadyLinked, Message: "This account is already linked to another account."}
	default:
		s.logger.Error("verification exchange failed", zap.Error(err))
		return VerifyResult{Status: VerifyServerError, Message: "A server error occurred, try again later."}
	}
}
