package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetJSON loads key and unmarshals the stored value into out. The boolean
// reports a hit; misses and decode failures both read as a miss so a stale
// or corrupt entry degrades to a fresh upstream fetch.
func GetJSON(ctx context.Context, c Cache, key string, out any) (bool, error) {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		_ = c.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

// SetJSON marshals v and stores it under key with the given TTL.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, string(data), ttl)
}
