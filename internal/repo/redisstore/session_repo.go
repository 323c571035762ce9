package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
)

const sessionPrefix = "civiclens:session:"

var ErrSessionNotFound = errors.New("session not found")

func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     strings.TrimSpace(addr),
		Password: password,
		DB:       db,
	})
}

// SessionRepo persists the one string token per chat, plus the decoded
// claims so menus can branch on role without re-decoding on every update.
type SessionRepo struct {
	client *goredis.Client
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Save(ctx context.Context, chatID int64, session model.Session) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if session.IsZero() {
		return fmt.Errorf("session token is empty")
	}

	fields := map[string]interface{}{
		"token":    session.Token,
		"user_id":  session.UserID,
		"username": session.Username,
		"role":     string(session.Role),
	}
	if !session.ExpiresAt.IsZero() {
		fields["expires_at"] = session.ExpiresAt.Unix()
	}

	key := sessionKey(chatID)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	if ttl := ttlFor(session.ExpiresAt); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, chatID int64) (model.Session, error) {
	if r.client == nil {
		return model.Session{}, fmt.Errorf("redis client is nil")
	}

	values, err := r.client.HGetAll(ctx, sessionKey(chatID)).Result()
	if err != nil {
		return model.Session{}, fmt.Errorf("get session hash: %w", err)
	}
	if len(values) == 0 {
		return model.Session{}, ErrSessionNotFound
	}

	session := model.Session{
		Token:    values["token"],
		Username: values["username"],
		Role:     enums.Role(values["role"]),
	}
	if session.Token == "" {
		return model.Session{}, ErrSessionNotFound
	}
	if raw := values["user_id"]; raw != "" {
		if userID, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
			session.UserID = userID
		}
	}
	if raw := values["expires_at"]; raw != "" {
		if unix, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
			session.ExpiresAt = time.Unix(unix, 0).UTC()
		}
	}

	return session, nil
}

func (r *SessionRepo) Delete(ctx context.Context, chatID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, sessionKey(chatID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func sessionKey(chatID int64) string {
	return sessionPrefix + strconv.FormatInt(chatID, 10)
}

func ttlFor(expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return 0
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}
