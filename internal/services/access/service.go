package access

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"civiclens_bot/internal/domain/model"
	"civiclens_bot/internal/repo/postgres"
	"civiclens_bot/internal/security"
)

// totpSessionTTL is how long one validated code keeps the admin surfaces
// unlocked for a chat.
const totpSessionTTL = 12 * time.Hour

var ErrTOTPNotEnrolled = errors.New("totp not enrolled")

type UsersRepo interface {
	Upsert(context.Context, model.BotUser) error
	ListRecent(context.Context, int) ([]model.BotUser, error)
}

type TOTPRepo interface {
	Save(ctx context.Context, tgID int64, encryptedSecret string, enrolledAt time.Time) error
	Get(ctx context.Context, tgID int64) (string, error)
	Delete(ctx context.Context, tgID int64) error
}

// Service tracks who talks to the bot and, when configured, locks the admin
// review queues behind TOTP.
type Service struct {
	usersRepo   UsersRepo
	totpRepo    TOTPRepo
	cipher      *security.SecretCipher
	issuer      string
	requireTOTP bool
	now         func() time.Time

	mu         sync.Mutex
	verifiedAt map[int64]time.Time
}

func NewService(usersRepo UsersRepo, totpRepo TOTPRepo, cipher *security.SecretCipher, issuer string, requireTOTP bool) *Service {
	return &Service{
		usersRepo:   usersRepo,
		totpRepo:    totpRepo,
		cipher:      cipher,
		issuer:      issuer,
		requireTOTP: requireTOTP,
		now:         time.Now,
		verifiedAt:  make(map[int64]time.Time),
	}
}

func (s *Service) TouchUser(ctx context.Context, user model.BotUser) error {
	if s.usersRepo == nil {
		return nil
	}
	if user.LastSeenAt.IsZero() {
		user.LastSeenAt = s.now().UTC()
	}
	return s.usersRepo.Upsert(ctx, user)
}

// AdminUnlocked reports whether the chat may open admin surfaces right now.
// Without the TOTP requirement every admin session is unlocked.
func (s *Service) AdminUnlocked(tgID int64) bool {
	if !s.requireTOTP {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	verifiedAt, ok := s.verifiedAt[tgID]
	if !ok {
		return false
	}
	if s.now().Sub(verifiedAt) > totpSessionTTL {
		delete(s.verifiedAt, tgID)
		return false
	}
	return true
}

func (s *Service) RequiresTOTP() bool {
	return s.requireTOTP
}

func (s *Service) IsEnrolled(ctx context.Context, tgID int64) (bool, error) {
	if s.totpRepo == nil {
		return false, nil
	}
	_, err := s.totpRepo.Get(ctx, tgID)
	if errors.Is(err, postgres.ErrTOTPSecretNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Enroll generates a fresh secret, stores it encrypted, and returns the QR
// PNG for the authenticator app.
func (s *Service) Enroll(ctx context.Context, tgID int64, accountName string) ([]byte, error) {
	if s.totpRepo == nil || s.cipher == nil {
		return nil, fmt.Errorf("totp enrollment is not configured")
	}

	secret, otpURL, err := security.GenerateTOTPSecret(s.issuer, accountName)
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	encrypted, err := s.cipher.Encrypt(secret)
	if err != nil {
		return nil, fmt.Errorf("encrypt totp secret: %w", err)
	}
	if err := s.totpRepo.Save(ctx, tgID, encrypted, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("save totp secret: %w", err)
	}

	return security.MakeQRCodePNG(otpURL, 256)
}

func (s *Service) ValidateCode(ctx context.Context, tgID int64, code string) (bool, error) {
	if s.totpRepo == nil || s.cipher == nil {
		return false, fmt.Errorf("totp validation is not configured")
	}

	encrypted, err := s.totpRepo.Get(ctx, tgID)
	if errors.Is(err, postgres.ErrTOTPSecretNotFound) {
		return false, ErrTOTPNotEnrolled
	}
	if err != nil {
		return false, err
	}

	secret, err := s.cipher.Decrypt(encrypted)
	if err != nil {
		return false, fmt.Errorf("decrypt totp secret: %w", err)
	}

	if !security.ValidateTOTP(secret, code, s.now()) {
		return false, nil
	}

	s.mu.Lock()
	s.verifiedAt[tgID] = s.now()
	s.mu.Unlock()
	return true, nil
}
