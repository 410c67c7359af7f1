package api

import (
	"cmp"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/npezzotti/go-social/internal/database"
	"github.com/npezzotti/go-social/internal/types"
	"github.com/samber/lo"
)

type NotificationsResponse struct {
	Notifications []types.Notification `json:"notifications"`
	Count         int                  `json:"count"`
}

func toFriendRequest(f database.Friendship) types.FriendRequest {
	return types.FriendRequest{
		Id: f.Id,
		From: types.User{
			Id:       f.RequesterId,
			Username: f.RequesterUsername,
		},
		CreatedAt: f.CreatedAt,
	}
}

// lookupAccount resolves the {username} path value.
func (s *GoSocialApp) lookupAccount(w http.ResponseWriter, r *http.Request) (database.User, bool) {
	user, err := s.db.GetAccountByUsername(r.PathValue("username"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
			return database.User{}, false
		}
		s.writeError(w, NewInternalServerError(err))
		return database.User{}, false
	}

	return user, true
}

func (s *GoSocialApp) sendFriendRequest(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	target, ok := s.lookupAccount(w, r)
	if !ok {
		return
	}

	if target.Id == userId {
		s.writeError(w, &ApiError{
			StatusCode: http.StatusBadRequest,
			Message:    "cannot send a friend request to yourself",
		})
		return
	}

	f, err := s.db.CreateFriendRequest(userId, target.Id)
	if err != nil {
		if errors.Is(err, database.ErrFriendshipExists) {
			s.writeError(w, NewConflictError(err.Error()))
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, types.FriendRequest{
		Id:        f.Id,
		From:      types.User{Id: userId},
		CreatedAt: f.CreatedAt,
	})
}

func (s *GoSocialApp) listFriendRequests(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	requests, err := s.db.ListPendingFriendRequests(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, lo.Map(requests, func(f database.Friendship, _ int) types.FriendRequest {
		return toFriendRequest(f)
	}))
}

func (s *GoSocialApp) acceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	s.respondFriendRequest(w, r, true)
}

func (s *GoSocialApp) rejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	s.respondFriendRequest(w, r, false)
}

func (s *GoSocialApp) respondFriendRequest(w http.ResponseWriter, r *http.Request, accept bool) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	requestId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if err := s.db.RespondFriendRequest(requestId, userId, accept); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *GoSocialApp) removeFriend(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	friend, ok := s.lookupAccount(w, r)
	if !ok {
		return
	}

	if err := s.db.DeleteFriendship(userId, friend.Id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listChats returns the caller's friends with their current presence.
func (s *GoSocialApp) listChats(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	friends, err := s.db.ListFriends(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, lo.Map(friends, func(u database.User, _ int) types.Friend {
		return types.Friend{
			Id:       u.Id,
			Username: u.Username,
			IsOnline: s.cs.IsOnline(u.Username),
		}
	}))
}

// listNotifications combines pending friend requests with the caller's events
// that are full, newest first.
func (s *GoSocialApp) listNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	requests, err := s.db.ListPendingFriendRequests(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	fullEvents, err := s.db.ListFullEventsByOwner(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	notifications := make([]types.Notification, 0, len(requests)+len(fullEvents))
	for _, f := range requests {
		notifications = append(notifications, types.Notification{
			Type:      types.NotificationFriendRequest,
			Message:   fmt.Sprintf("%s sent you a friend request", f.RequesterUsername),
			Username:  f.RequesterUsername,
			RequestId: f.Id,
			CreatedAt: f.CreatedAt,
		})
	}
	for _, e := range fullEvents {
		notifications = append(notifications, types.Notification{
			Type:      types.NotificationEventFull,
			Message:   fmt.Sprintf("%q is full", e.Name),
			EventId:   e.ExternalId,
			EventName: e.Name,
			CreatedAt: e.UpdatedAt,
		})
	}

	slices.SortStableFunc(notifications, func(a, b types.Notification) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})

	s.writeJson(w, http.StatusOK, NotificationsResponse{
		Notifications: notifications,
		Count:         len(notifications),
	})
}
