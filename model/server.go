package model

// ServerStatus is the live game-server status feed.
type ServerStatus struct {
	ConnectionInfo string `json:"connection_info"`
	Gamestate      int    `json:"gamestate"`
	Map            string `json:"map"`
	Name           string `json:"name"`
	Players        int    `json:"players"`
	RoundDuration  int64  `json:"round_duration"`
	RoundID        int64  `json:"round_id"`
	SecurityLevel  string `json:"security_level"`
	ServerStatus   int    `json:"server_status"`
	ErrStr         string `json:"err_str,omitempty"`
}
