package server

import (
	"net/http"
	"time"

	"github.com/npezzotti/go-social/internal/types"
)

const eventFullMessage = "event is full! Get ready!"

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ClientMessage struct {
	BaseMessage
	Chat    *ChatSend       `json:"chat,omitempty"`
	History *HistoryRequest `json:"history,omitempty"`
}

type ChatSend struct {
	ToUsername string `json:"to_username"`
	Message    string `json:"message"`
}

type HistoryRequest struct {
	FriendUsername string `json:"friend_username"`
}

// ServerMessage is the single outbound envelope. Exactly one of its payload
// fields is set. A ServerMessage may be queued to several clients at once and
// must not be mutated after it is queued.
type ServerMessage struct {
	BaseMessage
	Response         *Response         `json:"response,omitempty"`
	Welcome          *Welcome          `json:"welcome,omitempty"`
	ChatMessage      *ChatMessage      `json:"chat_message,omitempty"`
	PreviousMessages *PreviousMessages `json:"previous_messages,omitempty"`
	Notification     *Notification     `json:"notification,omitempty"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
}

type Welcome struct {
	Username string `json:"username"`
}

type ChatMessage struct {
	Message    string    `json:"message"`
	Username   string    `json:"username"`
	UserId     int       `json:"user_id"`
	ToUsername string    `json:"to_username"`
	Timestamp  time.Time `json:"timestamp"`
}

type PreviousMessages struct {
	FriendUsername string        `json:"friend_username"`
	Messages       []ChatMessage `json:"messages"`
}

type Notification struct {
	UserOnline  *Presence  `json:"user_online,omitempty"`
	UserOffline *Presence  `json:"user_offline,omitempty"`
	EventFull   *EventFull `json:"event_full,omitempty"`
}

type Presence struct {
	Username string `json:"username"`
}

type EventFull struct {
	EventId   string `json:"event_id"`
	EventName string `json:"event_name"`
	Message   string `json:"message"`
}

func welcomeMessage(user types.User) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Welcome: &Welcome{Username: user.Username},
	}
}

func chatMessage(from *types.User, toUsername, body string) *ServerMessage {
	ts := Now()
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: ts,
		},
		ChatMessage: &ChatMessage{
			Message:    body,
			Username:   from.Username,
			UserId:     from.Id,
			ToUsername: toUsername,
			Timestamp:  ts,
		},
	}
}

// previousMessages always carries an empty history; chat messages are not
// persisted.
func previousMessages(id int, friendUsername string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		PreviousMessages: &PreviousMessages{
			FriendUsername: friendUsername,
			Messages:       []ChatMessage{},
		},
	}
}

func userOnline(username string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Notification: &Notification{
			UserOnline: &Presence{Username: username},
		},
	}
}

func userOffline(username string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Notification: &Notification{
			UserOffline: &Presence{Username: username},
		},
	}
}

func eventFull(eventId, eventName string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Notification: &Notification{
			EventFull: &EventFull{
				EventId:   eventId,
				EventName: eventName,
				Message:   eventFullMessage,
			},
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func ErrEmptyMessage(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "message cannot be empty",
		},
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
