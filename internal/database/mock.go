package database

import (
	"github.com/stretchr/testify/mock"
)

type MockGoSocialRepository struct {
	mock.Mock
}

func (m *MockGoSocialRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockGoSocialRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockGoSocialRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockGoSocialRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockGoSocialRepository) GetAccountByUsername(username string) (User, error) {
	args := m.Called(username)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockGoSocialRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockGoSocialRepository) CreateEvent(params CreateEventParams) (Event, error) {
	args := m.Called(params)
	return args.Get(0).(Event), args.Error(1)
}
func (m *MockGoSocialRepository) GetEventByExternalId(externalId string) (Event, error) {
	args := m.Called(externalId)
	return args.Get(0).(Event), args.Error(1)
}
func (m *MockGoSocialRepository) ListEvents() ([]Event, error) {
	args := m.Called()
	return args.Get(0).([]Event), args.Error(1)
}
func (m *MockGoSocialRepository) ListFullEventsByOwner(ownerId int) ([]Event, error) {
	args := m.Called(ownerId)
	return args.Get(0).([]Event), args.Error(1)
}
func (m *MockGoSocialRepository) DeleteEvent(eventId int) error {
	args := m.Called(eventId)
	return args.Error(0)
}
func (m *MockGoSocialRepository) ListParticipants(eventId int) ([]User, error) {
	args := m.Called(eventId)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockGoSocialRepository) JoinEvent(eventId, accountId int) (JoinResult, error) {
	args := m.Called(eventId, accountId)
	return args.Get(0).(JoinResult), args.Error(1)
}
func (m *MockGoSocialRepository) LeaveEvent(eventId, accountId int) error {
	args := m.Called(eventId, accountId)
	return args.Error(0)
}
func (m *MockGoSocialRepository) CreateFriendRequest(requesterId, addresseeId int) (Friendship, error) {
	args := m.Called(requesterId, addresseeId)
	return args.Get(0).(Friendship), args.Error(1)
}
func (m *MockGoSocialRepository) RespondFriendRequest(requestId, addresseeId int, accept bool) error {
	args := m.Called(requestId, addresseeId, accept)
	return args.Error(0)
}
func (m *MockGoSocialRepository) DeleteFriendship(accountId, friendId int) error {
	args := m.Called(accountId, friendId)
	return args.Error(0)
}
func (m *MockGoSocialRepository) ListFriends(accountId int) ([]User, error) {
	args := m.Called(accountId)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockGoSocialRepository) ListPendingFriendRequests(accountId int) ([]Friendship, error) {
	args := m.Called(accountId)
	return args.Get(0).([]Friendship), args.Error(1)
}
