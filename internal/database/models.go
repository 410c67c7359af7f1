package database

import "time"

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Event struct {
	Id               int
	ExternalId       string
	Name             string
	Location         string
	Description      string
	Capacity         int
	EventDate        time.Time
	OwnerId          int
	OwnerUsername    string
	ParticipantCount int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsFull reports whether the participant count has reached the capacity.
func (e Event) IsFull() bool {
	return e.ParticipantCount >= e.Capacity
}

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

type Friendship struct {
	Id                int
	RequesterId       int
	RequesterUsername string
	AddresseeId       int
	Status            FriendshipStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// JoinResult describes a successful join as observed inside the join
// transaction. BeforeCount and AfterCount are the participant counts
// immediately before and after the insert.
type JoinResult struct {
	EventId      int
	BeforeCount  int
	AfterCount   int
	Capacity     int
	Participants []User
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
}

type UpdateAccountParams struct {
	UserId       int
	Username     string
	PasswordHash string
}

type CreateEventParams struct {
	ExternalId  string
	Name        string
	Location    string
	Description string
	Capacity    int
	EventDate   time.Time
	OwnerId     int
}
