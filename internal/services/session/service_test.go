package session

import (
	"context"
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
	"civiclens_bot/internal/repo/civichttp"
	"civiclens_bot/internal/repo/redisstore"
)

type stubAuthRepo struct {
	token    string
	loginErr error
	me       model.User
	meErr    error
	resetFor string
}

func (r *stubAuthRepo) Login(ctx context.Context, input civichttp.LoginInput) (string, error) {
	return r.token, r.loginErr
}
func (r *stubAuthRepo) Signup(ctx context.Context, input civichttp.SignupInput) (string, error) {
	return r.token, r.loginErr
}
func (r *stubAuthRepo) Me(ctx context.Context) (model.User, error) { return r.me, r.meErr }
func (r *stubAuthRepo) RequestPasswordReset(ctx context.Context, identifier string) {
	r.resetFor = identifier
}

type memStore struct {
	sessions map[int64]model.Session
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[int64]model.Session)}
}

func (s *memStore) Save(ctx context.Context, chatID int64, session model.Session) error {
	s.sessions[chatID] = session
	return nil
}

func (s *memStore) Get(ctx context.Context, chatID int64) (model.Session, error) {
	session, ok := s.sessions[chatID]
	if !ok {
		return model.Session{}, redisstore.ErrSessionNotFound
	}
	return session, nil
}

func (s *memStore) Delete(ctx context.Context, chatID int64) error {
	delete(s.sessions, chatID)
	return nil
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-only"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestLoginDecodesClaimsAndPersists(t *testing.T) {
	t.Parallel()

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{
		"sub":      "17",
		"username": "reporter",
		"role":     "admin",
		"exp":      expiry.Unix(),
	})

	store := newMemStore()
	service := NewService(&stubAuthRepo{token: token}, store)

	session, err := service.Login(context.Background(), 100, "reporter", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.UserID != 17 || session.Username != "reporter" {
		t.Fatalf("unexpected identity: %+v", session)
	}
	if session.Role != enums.RoleAdmin {
		t.Fatalf("unexpected role: %q", session.Role)
	}
	if !session.ExpiresAt.Equal(expiry) {
		t.Fatalf("unexpected expiry: %v", session.ExpiresAt)
	}
	if _, ok := store.sessions[100]; !ok {
		t.Fatal("session was not persisted")
	}
}

func TestLoginDefaultsUnknownRoleToCitizen(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		token string
	}{
		{name: "missing role claim", token: ""},
		{name: "unknown role value", token: "superuser"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			claims := jwt.MapClaims{"sub": "3"}
			if tc.token != "" {
				claims["role"] = tc.token
			}

			service := NewService(&stubAuthRepo{token: signedToken(t, claims)}, newMemStore())
			session, err := service.Login(context.Background(), 1, "a", "b")
			if err != nil {
				t.Fatalf("login: %v", err)
			}
			if session.Role != enums.RoleCitizen {
				t.Fatalf("unexpected role: %q", session.Role)
			}
		})
	}
}

func TestLoginReadsNumericSubject(t *testing.T) {
	t.Parallel()

	// jwt decodes claims through encoding/json, so a numeric sub arrives as
	// a float64 rather than a string.
	token := signedToken(t, jwt.MapClaims{"sub": 42, "username": "observer"})

	service := NewService(&stubAuthRepo{token: token}, newMemStore())
	session, err := service.Login(context.Background(), 1, "observer", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.UserID != 42 {
		t.Fatalf("unexpected user id: %d", session.UserID)
	}
}

func TestLoginTreatsOpaqueTokenAsCitizen(t *testing.T) {
	t.Parallel()

	service := NewService(&stubAuthRepo{token: "not-a-jwt"}, newMemStore())
	session, err := service.Login(context.Background(), 1, "a", "b")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Role != enums.RoleCitizen {
		t.Fatalf("unexpected role: %q", session.Role)
	}
	if session.Token != "not-a-jwt" {
		t.Fatalf("token not kept verbatim: %q", session.Token)
	}
}

func TestLoginFailsOnEmptyToken(t *testing.T) {
	t.Parallel()

	service := NewService(&stubAuthRepo{token: "   "}, newMemStore())
	if _, err := service.Login(context.Background(), 1, "a", "b"); !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("expected ErrLoginFailed, got %v", err)
	}
}

func TestResolveDropsExpiredSession(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.sessions[5] = model.Session{
		Token:     "stale",
		Role:      enums.RoleCitizen,
		ExpiresAt: time.Now().Add(-time.Minute).UTC(),
	}

	service := NewService(&stubAuthRepo{}, store)
	if _, err := service.Resolve(context.Background(), 5); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if _, ok := store.sessions[5]; ok {
		t.Fatal("expired session left in the store")
	}
}

func TestResolveMissingSession(t *testing.T) {
	t.Parallel()

	service := NewService(&stubAuthRepo{}, newMemStore())
	if _, err := service.Resolve(context.Background(), 404); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestWithSessionAttachesToken(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.sessions[9] = model.Session{Token: "live-token", Role: enums.RoleCitizen}

	service := NewService(&stubAuthRepo{}, store)
	ctx, session, err := service.WithSession(context.Background(), 9)
	if err != nil {
		t.Fatalf("with session: %v", err)
	}
	if session.Token != "live-token" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if got := civichttp.TokenFromContext(ctx); got != "live-token" {
		t.Fatalf("token not in context: %q", got)
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	adminSession := model.Session{Token: "tok", Role: enums.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)}

	testCases := []struct {
		name    string
		session model.Session
		me      model.User
		meErr   error
		want    bool
	}{
		{
			name:    "confirmed admin",
			session: adminSession,
			me:      model.User{Role: enums.RoleAdmin},
			want:    true,
		},
		{
			name:    "claim says admin but server disagrees",
			session: adminSession,
			me:      model.User{Role: enums.RoleCitizen},
			want:    false,
		},
		{
			name:    "server unreachable",
			session: adminSession,
			meErr:   errors.New("timeout"),
			want:    false,
		},
		{
			name:    "citizen claim never reaches the server",
			session: model.Session{Token: "tok", Role: enums.RoleCitizen},
			me:      model.User{Role: enums.RoleAdmin},
			want:    false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newMemStore()
			store.sessions[1] = tc.session

			service := NewService(&stubAuthRepo{me: tc.me, meErr: tc.meErr}, store)
			if _, ok := service.RequireAdmin(context.Background(), 1); ok != tc.want {
				t.Fatalf("unexpected admin verdict: got %v, want %v", ok, tc.want)
			}
		})
	}
}

func TestLogoutDeletesSession(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.sessions[2] = model.Session{Token: "tok"}

	service := NewService(&stubAuthRepo{}, store)
	if err := service.Logout(context.Background(), 2); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := store.sessions[2]; ok {
		t.Fatal("session survived logout")
	}
}
