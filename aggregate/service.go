package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/orbstation/portal/cache"
	"github.com/orbstation/portal/model"
	"github.com/orbstation/portal/upstream"
	"go.uber.org/zap"
)

// Ban records older than this are not part of the public profile; the server
// wiped its ban database on this date.
const bansSince = "2023-08-23 23:59:59"

// StatusChannel is the pub/sub channel server-status changes are published to.
const StatusChannel = "server_status"

const statusKey = "resp:server_status"

// Service is the read-only gateway that fans portal reads out to the
// upstream API and caches the merged responses. It holds no state of its
// own beyond the shared response cache.
type Service struct {
	api         *upstream.Client
	cache       cache.Cache
	resourceTTL time.Duration
	statusTTL   time.Duration
	logger      *zap.Logger
}

// NewService creates the aggregation Service.
func NewService(api *upstream.Client, c cache.Cache, resourceTTL, statusTTL time.Duration, logger *zap.Logger) *Service {
	if resourceTTL <= 0 {
		resourceTTL = time.Hour
	}
	if statusTTL <= 0 {
		statusTTL = 30 * time.Second
	}
	return &Service{api: api, cache: c, resourceTTL: resourceTTL, statusTTL: statusTTL, logger: logger}
}

// Player aggregates the profile sub-resources for one ckey: base record,
// characters, roletime, activity, achievements, and bans, fetched
// concurrently. Returns upstream.ErrNotFound when the player does not
// exist; any other failure of any call fails the whole aggregate.
func (s *Service) Player(ctx context.Context, ckey string) (*model.PlayerProfile, error) {
	cacheKey := "resp:player:" + ckey
	cached := &model.PlayerProfile{}
	if ok, _ := cache.GetJSON(ctx, s.cache, cacheKey, cached); ok {
		return cached, nil
	}

	profile := &model.PlayerProfile{}
	byCkey := url.Values{"ckey": {ckey}}
	achQuery := url.Values{"ckey": {ckey}, "achievement_type": {"achievement"}}
	banQuery := url.Values{"ckey": {ckey}, "permanent": {"true"}, "since": {bansSince}}

	calls := []struct {
		path  string
		query url.Values
		out   any
	}{
		{"/v2/player", byCkey, &profile.Player},
		{"/v2/player/characters", byCkey, &profile.Characters},
		{"/v2/player/roletime", byCkey, &profile.Roletime},
		{"/v2/player/activity", byCkey, &profile.Activity},
		{"/v2/player/achievements", achQuery, &profile.Achievements},
		{"/v2/player/ban", banQuery, &profile.Bans},
	}

	errs := make([]error, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, path string, query url.Values, out any) {
			defer wg.Done()
			errs[i] = s.api.Get(ctx, path, query, out)
		}(i, call.path, call.query, call.out)
	}
	wg.Wait()

	// 404 on the primary record means "no such player"; everything else is
	// a server-side problem.
	if errors.Is(errs[0], upstream.ErrNotFound) {
		return nil, upstream.ErrNotFound
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// The ban edit trail is admin-only detail; drop it before the profile
	// leaves the server.
	for _, ban := range profile.Bans {
		delete(ban, "edits")
	}

	_ = cache.SetJSON(ctx, s.cache, cacheKey, profile, s.resourceTTL)
	return profile, nil
}

// Round fetches one round by id. Returns upstream.ErrNotFound for unknown
// rounds.
func (s *Service) Round(ctx context.Context, roundID int64) (json.RawMessage, error) {
	key := "resp:round:" + strconv.FormatInt(roundID, 10)
	return s.cachedRaw(ctx, key, s.resourceTTL, func() (json.RawMessage, error) {
		var round json.RawMessage
		query := url.Values{"round_id": {strconv.FormatInt(roundID, 10)}}
		if err := s.api.Get(ctx, "/v2/round", query, &round); err != nil {
			return nil, err
		}
		return round, nil
	})
}

// Rounds passes the paginated round listing through unmodified.
func (s *Service) Rounds(ctx context.Context, fetchSize, page int, roundID string) (json.RawMessage, error) {
	query := url.Values{
		"fetch_size": {strconv.Itoa(fetchSize)},
		"page":       {strconv.Itoa(page)},
	}
	if roundID != "" {
		query.Set("round_id", roundID)
	}
	key := fmt.Sprintf("resp:rounds:%d:%d:%s", fetchSize, page, roundID)
	return s.cachedRaw(ctx, key, s.resourceTTL, func() (json.RawMessage, error) {
		var rounds json.RawMessage
		if err := s.api.Get(ctx, "/v2/rounds", query, &rounds); err != nil {
			return nil, err
		}
		return rounds, nil
	})
}

// Crimes passes the paginated security event feed through unmodified.
func (s *Service) Crimes(ctx context.Context, fetchSize, page int) (json.RawMessage, error) {
	key := fmt.Sprintf("resp:crimes:%d:%d", fetchSize, page)
	return s.cachedRaw(ctx, key, s.resourceTTL, func() (json.RawMessage, error) {
		query := url.Values{
			"fetch_size": {strconv.Itoa(fetchSize)},
			"page":       {strconv.Itoa(page)},
		}
		var crimes json.RawMessage
		if err := s.api.Get(ctx, "/v2/events/crimes", query, &crimes); err != nil {
			return nil, err
		}
		return crimes, nil
	})
}

// Overview returns the landing-page round statistics. An upstream 404 is an
// empty feed, not an error.
func (s *Service) Overview(ctx context.Context) (json.RawMessage, error) {
	return s.cachedRaw(ctx, "resp:overview", s.resourceTTL, func() (json.RawMessage, error) {
		var overview json.RawMessage
		err := s.api.Get(ctx, "/v2/events/overview", url.Values{"limit": {"100"}}, &overview)
		if errors.Is(err, upstream.ErrNotFound) {
			return json.RawMessage("[]"), nil
		}
		if err != nil {
			return nil, err
		}
		return overview, nil
	})
}

// ServerStatus returns the live server status, cached for the short status
// window.
func (s *Service) ServerStatus(ctx context.Context) (json.RawMessage, error) {
	return s.cachedRaw(ctx, statusKey, s.statusTTL, func() (json.RawMessage, error) {
		var status json.RawMessage
		if err := s.api.Get(ctx, "/v2/server", nil, &status); err != nil {
			return nil, err
		}
		return status, nil
	})
}

// RefreshServerStatus bypasses the cache, stores the fresh status, and
// publishes it to StatusChannel when it changed. Driven by the scheduler.
func (s *Service) RefreshServerStatus(ctx context.Context, ps cache.PubSub) error {
	var status json.RawMessage
	if err := s.api.Get(ctx, "/v2/server", nil, &status); err != nil {
		return err
	}
	prev, _ := s.cache.Get(ctx, statusKey)
	if err := s.cache.Set(ctx, statusKey, string(status), s.statusTTL); err != nil {
		s.logger.Warn("status cache write failed", zap.Error(err))
	}
	if prev != string(status) {
		var parsed model.ServerStatus
		if err := json.Unmarshal(status, &parsed); err == nil {
			s.logger.Info("server status changed",
				zap.Int("players", parsed.Players),
				zap.Int64("round_id", parsed.RoundID),
				zap.String("map", parsed.Map),
			)
		}
		return ps.Publish(ctx, StatusChannel, string(status))
	}
	return nil
}

func (s *Service) cachedRaw(ctx context.Context, key string, ttl time.Duration, fetch func() (json.RawMessage, error)) (json.RawMessage, error) {
	if raw, err := s.cache.Get(ctx, key); err == nil {
		return json.RawMessage(raw), nil
	}
	fresh, err := fetch()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, string(fresh), ttl); err != nil {
		s.logger.Warn("response cache write failed", zap.String("key", key), zap.Error(err))
	}
	return fresh, nil
}
