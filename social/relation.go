package social

import "github.com/orbstation/portal/model"

// Relation describes a friendship record from one party's point of view.
type Relation string

const (
	RelationNone     Relation = "none"
	RelationFriends  Relation = "friends"
	RelationSent     Relation = "sent"     // pending, self is the requester
	RelationReceived Relation = "received" // pending, self is the recipient
)

// OtherParty returns the counterpart ckey of f as seen from self. Every
// caller that needs "the other side" of a record goes through here instead
// of comparing the two ckey fields ad hoc.
func OtherParty(f model.Friendship, self string) string {
	if f.UserCkey == self {
		return f.FriendCkey
	}
	return f.UserCkey
}

// RelationTo classifies f from self's point of view. A nil record means no
// relationship exists.
func RelationTo(f *model.Friendship, self string) Relation {
	if f == nil {
		return RelationNone
	}
	switch f.Status {
	case model.FriendshipAccepted:
		return RelationFriends
	case model.FriendshipPending:
		if f.UserCkey == self {
			return RelationSent
		}
		return RelationReceived
	}
	return RelationNone
}
