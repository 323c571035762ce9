package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
	"civiclens_bot/internal/repo/civichttp"
	"civiclens_bot/internal/repo/redisstore"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrLoginFailed      = errors.New("login failed")
)

type AuthRepo interface {
	Login(context.Context, civichttp.LoginInput) (string, error)
	Signup(context.Context, civichttp.SignupInput) (string, error)
	Me(context.Context) (model.User, error)
	RequestPasswordReset(context.Context, string)
}

type Store interface {
	Save(context.Context, int64, model.Session) error
	Get(context.Context, int64) (model.Session, error)
	Delete(context.Context, int64) error
}

type Service struct {
	authRepo AuthRepo
	store    Store
	now      func() time.Time
}

func NewService(authRepo AuthRepo, store Store) *Service {
	return &Service{
		authRepo: authRepo,
		store:    store,
		now:      time.Now,
	}
}

func (s *Service) Login(ctx context.Context, chatID int64, identifier, password string) (model.Session, error) {
	if s.authRepo == nil || s.store == nil {
		return model.Session{}, fmt.Errorf("session service is not configured")
	}

	token, err := s.authRepo.Login(ctx, civichttp.LoginInput{
		Identifier: identifier,
		Password:   password,
	})
	if err != nil {
		return model.Session{}, err
	}
	if strings.TrimSpace(token) == "" {
		return model.Session{}, ErrLoginFailed
	}

	session := decodeToken(token)
	if err := s.store.Save(ctx, chatID, session); err != nil {
		return model.Session{}, err
	}
	return session, nil
}

func (s *Service) Signup(ctx context.Context, chatID int64, input civichttp.SignupInput) (model.Session, error) {
	if s.authRepo == nil || s.store == nil {
		return model.Session{}, fmt.Errorf("session service is not configured")
	}

	token, err := s.authRepo.Signup(ctx, input)
	if err != nil {
		return model.Session{}, err
	}
	if strings.TrimSpace(token) == "" {
		return model.Session{}, ErrLoginFailed
	}

	session := decodeToken(token)
	if err := s.store.Save(ctx, chatID, session); err != nil {
		return model.Session{}, err
	}
	return session, nil
}

func (s *Service) Logout(ctx context.Context, chatID int64) error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, chatID)
}

// Resolve returns the persisted session for the chat. An expired token is
// dropped so the next interaction starts unauthenticated.
func (s *Service) Resolve(ctx context.Context, chatID int64) (model.Session, error) {
	if s.store == nil {
		return model.Session{}, ErrNotAuthenticated
	}

	session, err := s.store.Get(ctx, chatID)
	if errors.Is(err, redisstore.ErrSessionNotFound) {
		return model.Session{}, ErrNotAuthenticated
	}
	if err != nil {
		return model.Session{}, err
	}
	if session.Expired(s.now().UTC()) {
		_ = s.store.Delete(ctx, chatID)
		return model.Session{}, ErrNotAuthenticated
	}

	return session, nil
}

// WithSession attaches the chat's bearer token to the context for API calls.
func (s *Service) WithSession(ctx context.Context, chatID int64) (context.Context, model.Session, error) {
	session, err := s.Resolve(ctx, chatID)
	if err != nil {
		return ctx, model.Session{}, err
	}
	return civichttp.WithToken(ctx, session.Token), session, nil
}

// RequireAdmin re-validates the admin role against the API. The decoded
// claim only gates which menus render; this call decides whether admin
// actions are offered. Any failure, transport included, means "not admin".
func (s *Service) RequireAdmin(ctx context.Context, chatID int64) (model.Session, bool) {
	ctx, session, err := s.WithSession(ctx, chatID)
	if err != nil {
		return model.Session{}, false
	}
	if !session.Role.IsAdmin() {
		return session, false
	}

	user, err := s.authRepo.Me(ctx)
	if err != nil {
		return session, false
	}
	return session, user.Role.IsAdmin()
}

func (s *Service) RequestPasswordReset(ctx context.Context, identifier string) {
	if s.authRepo == nil {
		return
	}
	s.authRepo.RequestPasswordReset(ctx, identifier)
}

// decodeToken extracts the role and expiry claims without verifying the
// signature. The token is opaque client state; the server re-validates it on
// every request, so the decode is display-only.
func decodeToken(token string) model.Session {
	session := model.Session{Token: strings.TrimSpace(token)}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(session.Token, claims); err != nil {
		session.Role = enums.RoleCitizen
		return session
	}

	if role, ok := claims["role"].(string); ok {
		session.Role = enums.ParseRole(role)
	}
	if session.Role == enums.RoleNone {
		session.Role = enums.RoleCitizen
	}
	if username, ok := claims["username"].(string); ok {
		session.Username = strings.TrimSpace(username)
	}
	// Servers vary: sub arrives as a string or, through encoding/json, as a
	// float64.
	switch sub := claims["sub"].(type) {
	case string:
		if userID, err := strconv.ParseInt(strings.TrimSpace(sub), 10, 64); err == nil {
			session.UserID = userID
		}
	case float64:
		session.UserID = int64(sub)
	}
	if expiresAt, err := claims.GetExpirationTime(); err == nil && expiresAt != nil {
		session.ExpiresAt = expiresAt.Time.UTC()
	}

	return session
}
