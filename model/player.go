package model

import "encoding/json"

// Player is the base account record returned by the upstream player lookup.
type Player struct {
	Ckey           string `json:"ckey"`
	ByondKey       string `json:"byond_key"`
	FirstSeen      string `json:"first_seen"`
	LastSeen       string `json:"last_seen"`
	FirstSeenRound int64  `json:"first_seen_round"`
	LastSeenRound  int64  `json:"last_seen_round"`
	ByondAge       string `json:"byond_age"`
}

// PlayerProfile is the aggregated profile served to the portal client.
// Sub-resources keep the upstream's JSON shape; bans stay generic so the
// edit trail can be stripped without re-declaring every upstream field.
type PlayerProfile struct {
	Player
	Characters   json.RawMessage              `json:"characters"`
	Roletime     json.RawMessage              `json:"roletime"`
	Activity     json.RawMessage              `json:"activity"`
	Achievements json.RawMessage              `json:"achievements"`
	Bans         []map[string]json.RawMessage `json:"bans"`
}
