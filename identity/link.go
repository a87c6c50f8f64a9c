package identity

// LinkState distinguishes "not yet checked" from "confirmed absent". The
// distinction matters: authorization checks must never treat an unresolved
// link as a missing one.
type LinkState string

const (
	LinkUnresolved LinkState = "unresolved"
	LinkUnlinked   LinkState = "unlinked"
	LinkLinked     LinkState = "linked"
)

// Link is the cached binding between a Discord identity and a game-account
// ckey. It travels inside the signed session token; the upstream API owns
// the real mapping.
type Link struct {
	State LinkState `json:"state"`
	Ckey  string    `json:"ckey,omitempty"`
}

func Unresolved() Link { return Link{State: LinkUnresolved} }

func Unlinked() Link { return Link{State: LinkUnlinked} }

func Linked(ckey string) Link { return Link{State: LinkLinked, Ckey: ckey} }

// IsLinked reports whether the link carries a concrete ckey.
func (l Link) IsLinked() bool {
	return l.State == LinkLinked && l.Ckey != ""
}

// Normalize maps the zero value (tokens minted before the link field
// existed, or missing JSON) to the unresolved state.
func (l Link) Normalize() Link {
	switch l.State {
	case LinkUnlinked, LinkLinked:
		return l
	default:
		return Unresolved()
	}
}
