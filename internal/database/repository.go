package database

import "errors"

var (
	ErrEventFull        = errors.New("event is full")
	ErrAlreadyJoined    = errors.New("already joined event")
	ErrNotJoined        = errors.New("not a participant of event")
	ErrDuplicateAccount = errors.New("username or email already exists")
	ErrFriendshipExists = errors.New("friendship already exists")
)

type GoSocialRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	GetAccountByUsername(username string) (User, error)
	UpdateAccount(params UpdateAccountParams) (User, error)
	CreateEvent(params CreateEventParams) (Event, error)
	GetEventByExternalId(externalId string) (Event, error)
	ListEvents() ([]Event, error)
	ListFullEventsByOwner(ownerId int) ([]Event, error)
	DeleteEvent(eventId int) error
	ListParticipants(eventId int) ([]User, error)
	JoinEvent(eventId, accountId int) (JoinResult, error)
	LeaveEvent(eventId, accountId int) error
	CreateFriendRequest(requesterId, addresseeId int) (Friendship, error)
	RespondFriendRequest(requestId, addresseeId int, accept bool) error
	DeleteFriendship(accountId, friendId int) error
	ListFriends(accountId int) ([]User, error)
	ListPendingFriendRequests(accountId int) ([]Friendship, error)
}
