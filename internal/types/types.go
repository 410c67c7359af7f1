package types

import (
	"time"
)

// User is the identity bound to an HTTP session and to any realtime
// connection opened with that session.
type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Event struct {
	Id             string    `json:"id"`
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	Description    string    `json:"description"`
	Capacity       int       `json:"capacity"`
	EventDate      time.Time `json:"event_date"`
	Owner          User      `json:"owner"`
	IsOwner        bool      `json:"is_owner"`
	AvailableSpots int       `json:"available_spots"`
	IsFull         bool      `json:"is_full"`
	HasJoined      bool      `json:"has_joined"`
	Participants   []User    `json:"participants,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

type JoinResponse struct {
	EventId          string `json:"event_id"`
	ParticipantCount int    `json:"participant_count"`
	Capacity         int    `json:"capacity"`
	IsFull           bool   `json:"is_full"`
}

type Friend struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
	IsOnline bool   `json:"is_online"`
}

type FriendRequest struct {
	Id        int       `json:"id"`
	From      User      `json:"from"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationType string

const (
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationEventFull     NotificationType = "event_full"
)

type Notification struct {
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Username  string           `json:"username,omitempty"`
	RequestId int              `json:"request_id,omitempty"`
	EventId   string           `json:"event_id,omitempty"`
	EventName string           `json:"event_name,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
