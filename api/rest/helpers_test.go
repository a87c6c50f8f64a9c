package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orbstation/portal/aggregate"
	"github.com/orbstation/portal/api/rest"
	"github.com/orbstation/portal/cache"
	"github.com/orbstation/portal/config"
	"github.com/orbstation/portal/identity"
	mw "github.com/orbstation/portal/middleware"
	"github.com/orbstation/portal/scheduler"
	"github.com/orbstation/portal/social"
	"github.com/orbstation/portal/testutil"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-32bytes-padded!!"
const testAdminKey = "test-admin-key"

type portal struct {
	router *gin.Engine
	fake   *testutil.FakeUpstream
	cache  cache.Cache
	sched  *scheduler.Scheduler
}

// newPortal wires a full router against a fake upstream, mirroring the
// production route table.
func newPortal(t *testing.T) *portal {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := testutil.NewFakeUpstream(t)
	api := fake.Client(t)
	c, _ := testutil.SetupTestCache(t)
	logger := testutil.Logger(t)

	cfg := &config.Config{}
	cfg.Server.AdminKey = testAdminKey
	cfg.Security.JWTSecret = testJWTSecret
	cfg.Security.SessionTTL = time.Hour
	cfg.Discord.ClientID = "client"
	cfg.Discord.ClientSecret = "secret"

	identSvc := identity.NewService(api, logger)
	socialSvc := social.NewService(api, logger)
	aggSvc := aggregate.NewService(api, c, time.Hour, 30*time.Second, logger)
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	authH := rest.NewAuthHandler(cfg, identSvc, c, logger)
	playerH := rest.NewPlayerHandler(aggSvc, api, logger)
	socialH := rest.NewSocialHandler(socialSvc, logger)
	roundsH := rest.NewRoundsHandler(aggSvc, logger)
	eventsH := rest.NewEventsHandler(aggSvc, logger)
	serverH := rest.NewServerHandler(aggSvc, logger)
	adminH := rest.NewAdminHandler(c, sched, logger)

	r := gin.New()
	r.Use(mw.Session(cfg.Security, c))

	apiG := r.Group("/api")
	authG := apiG.Group("/auth")
	authG.GET("/login", authH.Login)
	authG.POST("/logout", authH.Logout)
	authG.POST("/refresh", mw.RequireAuth(), authH.Refresh)
	apiG.GET("/session", mw.RequireAuth(), authH.Session)
	apiG.POST("/verify", mw.RequireAuth(), authH.Verify)

	apiG.GET("/server", serverH.Status)
	apiG.GET("/rounds", roundsH.List)
	apiG.GET("/rounds/:round_id", roundsH.Detail)
	apiG.GET("/events/crimes", eventsH.Crimes)
	apiG.GET("/events/overview", eventsH.Overview)
	apiG.GET("/players/:ckey", playerH.Profile)
	apiG.GET("/player/favorite_character", playerH.FavoriteCharacter)
	apiG.GET("/autocomplete/ckey", playerH.Autocomplete)

	playerG := apiG.Group("/player")
	playerG.Use(mw.RequireLink())
	playerG.GET("/friends", socialH.List)
	playerG.GET("/friends/check", socialH.Check)
	playerG.POST("/friends", socialH.Add)
	playerG.POST("/friends/:id/accept", socialH.Accept)
	playerG.POST("/friends/:id/decline", socialH.Decline)
	playerG.DELETE("/friends/:id", socialH.Remove)
	playerG.GET("/bans", playerH.Bans)
	playerG.GET("/rounds", playerH.Rounds)
	playerG.GET("/tickets", playerH.Tickets)

	adminG := apiG.Group("/admin")
	adminG.Use(rest.AdminAuth(cfg.Server.AdminKey))
	adminG.GET("/cache/stats", adminH.CacheStats)
	adminG.POST("/cache/purge", adminH.CachePurge)

	return &portal{router: r, fake: fake, cache: c, sched: sched}
}

// session mints a signed, cache-registered token for the given link state.
func (p *portal) session(t *testing.T, discordID, name string, link identity.Link) string {
	t.Helper()
	tok, err := mw.GenerateToken(discordID, name, link, testJWTSecret, time.Hour)
	require.NoError(t, err)
	require.NoError(t, p.cache.Set(context.Background(), "session:"+tok, discordID, time.Hour))
	return tok
}

func (p *portal) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)
	return w
}

func (p *portal) get(path, token string) *httptest.ResponseRecorder {
	return p.do(http.MethodGet, path, token, nil)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
