package upstream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/orbstation/portal/testutil"
	"github.com/orbstation/portal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGet_DecodesJSON(t *testing.T) {
	fake := testutil.NewFakeUpstream(t)
	fake.Respond("/v2/server", http.StatusOK, `{"players": 42, "map": "MetaStation"}`)
	api := fake.Client(t)

	var out map[string]json.RawMessage
	err := api.Get(context.Background(), "/v2/server", nil, &out)
	require.NoError(t, err)
	assert.JSONEq(t, "42", string(out["players"]))
}

func TestClientGet_PassesQuery(t *testing.T) {
	fake := testutil.NewFakeUpstream(t)
	fake.Handle("/v2/player", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "steve123", r.URL.Query().Get("ckey"))
		w.Write([]byte(`{"ckey": "steve123"}`))
	})
	api := fake.Client(t)

	err := api.Get(context.Background(), "/v2/player", url.Values{"ckey": {"steve123"}}, nil)
	require.NoError(t, err)
}

func TestClientGet_NotFound(t *testing.T) {
	fake := testutil.NewFakeUpstream(t)
	fake.Respond("/v2/player", http.StatusNotFound, `{"error": "no such player"}`)
	api := fake.Client(t)

	err := api.Get(context.Background(), "/v2/player", nil, nil)
	assert.ErrorIs(t, err, upstream.ErrNotFound)
}

func TestClientGet_StatusError(t *testing.T) {
	fake := testutil.NewFakeUpstream(t)
	fake.Respond("/v2/server", http.StatusBadGateway, "")
	api := fake.Client(t)

	err := api.Get(context.Background(), "/v2/server", nil, nil)
	var statusErr *upstream.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.False(t, upstream.IsConflict(err))
}

func TestClientGet_BadAPIKey(t *testing.T) {
	fake := testutil.NewFakeUpstream(t)
	fake.Respond("/v2/server", http.StatusUnauthorized, "")
	api := fake.Client(t)

	err := api.Get(context.Background(), "/v2/server", nil, nil)
	assert.ErrorIs(t, err, upstream.ErrUnauthorized)
}

func TestClientPost_SendsBodyAndDetectsConflict(t *testing.T) {
	fake := testutil.NewFakeUpstream(t)
	fake.Handle("/v2/verify", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "123-456", body["one_time_token"])
		w.WriteHeader(http.StatusConflict)
	})
	api := fake.Client(t)

	err := api.Post(context.Background(), "/v2/verify", nil, map[string]string{"one_time_token": "123-456"}, nil)
	assert.True(t, upstream.IsConflict(err))
}

func TestClientGet_RawPassthrough(t *testing.T) {
	fake := testutil.NewFakeUpstream(t)
	body := `[{"round_id": 1}, {"round_id": 2}]`
	fake.Respond("/v2/rounds", http.StatusOK, body)
	api := fake.Client(t)

	var raw json.RawMessage
	require.NoError(t, api.Get(context.Background(), "/v2/rounds", nil, &raw))
	assert.JSONEq(t, body, string(raw))
}
