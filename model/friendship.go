package model

// FriendshipStatus is the lifecycle state of a friendship record.
// Decline and removal delete the record upstream rather than storing a
// third status.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship is a friend-request record owned by the upstream API.
// UserCkey is the requester, FriendCkey the recipient.
type Friendship struct {
	ID         int64            `json:"id"`
	UserCkey   string           `json:"user_ckey"`
	FriendCkey string           `json:"friend_ckey"`
	Status     FriendshipStatus `json:"status"`
}

// FriendshipList is the merged view of accepted friendships and pending
// invites in both directions.
type FriendshipList struct {
	Friends  []Friendship `json:"friends"`
	Received []Friendship `json:"received"`
	Sent     []Friendship `json:"sent"`
}
