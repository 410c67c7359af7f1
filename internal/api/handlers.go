package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/npezzotti/go-social/internal/database"
	"github.com/npezzotti/go-social/internal/server"
	"github.com/npezzotti/go-social/internal/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type UpdateAccountRequest struct {
	Username string `json:"username" validate:"omitempty,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}

func (s *GoSocialApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *GoSocialApp) writeError(w http.ResponseWriter, errResp *ApiError) {
	if errResp.StatusCode >= http.StatusInternalServerError {
		s.log.Println(errResp.Error())
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

func decodeJson(r *http.Request, v any) *ApiError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return NewBadRequestError()
	}
	return nil
}

func validateRequest(v any) *ApiError {
	if err := validate.Struct(v); err != nil {
		return NewValidationError(err)
	}
	return nil
}

func toUser(u database.User) types.User {
	return types.User{
		Id:           u.Id,
		Username:     u.Username,
		EmailAddress: u.EmailAddress,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (s *GoSocialApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *GoSocialApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if errResp := decodeJson(r, &req); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if errResp := validateRequest(&req); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	newUser, err := s.db.CreateAccount(database.CreateAccountParams{
		Username:     req.Username,
		EmailAddress: req.Email,
		PasswordHash: pwdHash,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateAccount) {
			s.writeError(w, NewConflictError(err.Error()))
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, toUser(newUser))
}

func (s *GoSocialApp) updateAccount(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req UpdateAccountRequest
	if errResp := decodeJson(r, &req); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if errResp := validateRequest(&req); errResp != nil {
		s.writeError(w, errResp)
		return
	}
	if req.Username == "" && req.Password == "" {
		s.writeError(w, NewBadRequestError())
		return
	}

	params := database.UpdateAccountParams{
		UserId:   userId,
		Username: req.Username,
	}

	if req.Password != "" {
		pwdHash, err := hashPassword(req.Password)
		if err != nil {
			s.writeError(w, NewInternalServerError(err))
			return
		}
		params.PasswordHash = pwdHash
	}

	dbUser, err := s.db.UpdateAccount(params)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			s.writeError(w, NewNotFoundError())
		case errors.Is(err, database.ErrDuplicateAccount):
			s.writeError(w, NewConflictError(err.Error()))
		default:
			s.writeError(w, NewInternalServerError(err))
		}
		return
	}

	s.writeJson(w, http.StatusOK, toUser(dbUser))
}

func (s *GoSocialApp) session(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toUser(user))
}

func (s *GoSocialApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if errResp := decodeJson(r, &lr); errResp != nil {
		s.writeError(w, errResp)
		return
	}
	if errResp := validateRequest(&lr); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByEmail(lr.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewUnauthorizedError())
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	if !verifyPassword(dbUser.PasswordHash, lr.Password) {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	u := toUser(dbUser)
	token, err := s.createJwtForSession(u, s.tokenExpiry)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	http.SetCookie(w, createJwtCookie(token, s.tokenExpiry))

	s.writeJson(w, http.StatusOK, u)
}

func (s *GoSocialApp) logout(w http.ResponseWriter, _ *http.Request) {
	// overwrite the cookie with an expired one
	http.SetCookie(w, createJwtCookie("", -time.Hour))
	w.WriteHeader(http.StatusNoContent)
}

func (s *GoSocialApp) serveWs(w http.ResponseWriter, r *http.Request) {
	_, err := s.cs.Connect(w, r, s.upgrader)
	switch {
	case err == nil:
	case errors.Is(err, server.ErrUnauthenticated):
		s.writeError(w, NewUnauthorizedError())
	case errors.Is(err, server.ErrShuttingDown):
		s.writeError(w, NewServiceUnavailableError())
	default:
		// the upgrader has already replied
		s.log.Println("websocket connect:", err)
	}
}
