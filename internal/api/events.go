package api

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/npezzotti/go-social/internal/database"
	"github.com/npezzotti/go-social/internal/server"
	"github.com/npezzotti/go-social/internal/types"
	"github.com/samber/lo"
)

type CreateEventRequest struct {
	Name        string    `json:"name" validate:"required,max=255"`
	Location    string    `json:"location" validate:"required,max=255"`
	Description string    `json:"description" validate:"required,max=5000"`
	Capacity    int       `json:"capacity" validate:"required,min=1,max=10000"`
	EventDate   time.Time `json:"event_date" validate:"required"`
}

func toEvent(e database.Event, visitorId int) types.Event {
	return types.Event{
		Id:          e.ExternalId,
		Name:        e.Name,
		Location:    e.Location,
		Description: e.Description,
		Capacity:    e.Capacity,
		EventDate:   e.EventDate,
		Owner: types.User{
			Id:       e.OwnerId,
			Username: e.OwnerUsername,
		},
		IsOwner:        e.OwnerId == visitorId,
		AvailableSpots: max(e.Capacity-e.ParticipantCount, 0),
		IsFull:         e.IsFull(),
		CreatedAt:      e.CreatedAt,
	}
}

// lookupEvent resolves the {id} path value. It writes the error response
// itself and reports false when the event cannot be served.
func (s *GoSocialApp) lookupEvent(w http.ResponseWriter, r *http.Request) (database.Event, bool) {
	event, err := s.db.GetEventByExternalId(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
			return database.Event{}, false
		}
		s.writeError(w, NewInternalServerError(err))
		return database.Event{}, false
	}

	return event, true
}

func (s *GoSocialApp) createEvent(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req CreateEventRequest
	if errResp := decodeJson(r, &req); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	req.Name = s.sanitizer.Sanitize(req.Name)
	req.Location = s.sanitizer.Sanitize(req.Location)
	req.Description = s.sanitizer.Sanitize(req.Description)
	if errResp := validateRequest(&req); errResp != nil {
		s.writeError(w, errResp)
		return
	}
	if !req.EventDate.After(time.Now()) {
		s.writeError(w, &ApiError{
			StatusCode: http.StatusBadRequest,
			Message:    "event date must be in the future",
		})
		return
	}

	externalId, err := s.generateShortId()
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	event, err := s.db.CreateEvent(database.CreateEventParams{
		ExternalId:  externalId,
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		Capacity:    req.Capacity,
		EventDate:   req.EventDate.UTC(),
		OwnerId:     userId,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, toEvent(event, userId))
}

func (s *GoSocialApp) listEvents(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	events, err := s.db.ListEvents()
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, lo.Map(events, func(e database.Event, _ int) types.Event {
		return toEvent(e, userId)
	}))
}

func (s *GoSocialApp) getEvent(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	event, ok := s.lookupEvent(w, r)
	if !ok {
		return
	}

	participants, err := s.db.ListParticipants(event.Id)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	resp := toEvent(event, userId)
	resp.Participants = lo.Map(participants, func(u database.User, _ int) types.User {
		return types.User{Id: u.Id, Username: u.Username}
	})
	resp.HasJoined = lo.ContainsBy(participants, func(u database.User) bool {
		return u.Id == userId
	})

	s.writeJson(w, http.StatusOK, resp)
}

func (s *GoSocialApp) deleteEvent(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	event, ok := s.lookupEvent(w, r)
	if !ok {
		return
	}

	if event.OwnerId != userId {
		s.writeError(w, NewForbiddenError())
		return
	}

	if err := s.db.DeleteEvent(event.Id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// joinEvent admits the caller and, when this join filled the event, notifies
// the connected participants over the realtime channel.
func (s *GoSocialApp) joinEvent(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	event, ok := s.lookupEvent(w, r)
	if !ok {
		return
	}

	res, err := s.db.JoinEvent(event.Id, userId)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrEventFull), errors.Is(err, database.ErrAlreadyJoined):
			s.writeError(w, NewConflictError(err.Error()))
		case errors.Is(err, sql.ErrNoRows):
			s.writeError(w, NewNotFoundError())
		default:
			s.writeError(w, NewInternalServerError(err))
		}
		return
	}

	s.cs.ObserveJoin(server.JoinOutcome{
		EventId:     event.ExternalId,
		EventName:   event.Name,
		BeforeCount: res.BeforeCount,
		AfterCount:  res.AfterCount,
		Capacity:    res.Capacity,
		Participants: lo.Map(res.Participants, func(u database.User, _ int) types.User {
			return types.User{Id: u.Id, Username: u.Username}
		}),
	})

	s.writeJson(w, http.StatusOK, types.JoinResponse{
		EventId:          event.ExternalId,
		ParticipantCount: res.AfterCount,
		Capacity:         res.Capacity,
		IsFull:           res.AfterCount >= res.Capacity,
	})
}

func (s *GoSocialApp) leaveEvent(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	event, ok := s.lookupEvent(w, r)
	if !ok {
		return
	}

	if err := s.db.LeaveEvent(event.Id, userId); err != nil {
		if errors.Is(err, database.ErrNotJoined) {
			s.writeError(w, NewConflictError(err.Error()))
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
