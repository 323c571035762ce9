package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"civiclens_bot/internal/config"
	s3infra "civiclens_bot/internal/infra/s3"
	"civiclens_bot/internal/infra/telegram"
	"civiclens_bot/internal/repo/civichttp"
	"civiclens_bot/internal/repo/postgres"
	"civiclens_bot/internal/repo/redisstore"
	"civiclens_bot/internal/security"
	"civiclens_bot/internal/services/access"
	"civiclens_bot/internal/services/adminusers"
	"civiclens_bot/internal/services/audit"
	"civiclens_bot/internal/services/entities"
	"civiclens_bot/internal/services/forum"
	"civiclens_bot/internal/services/policies"
	"civiclens_bot/internal/services/ratings"
	"civiclens_bot/internal/services/session"
	"civiclens_bot/internal/services/vault"
)

type App struct {
	cfg     config.Config
	logger  *zap.Logger
	db      *sql.DB
	tg      *telegram.Client
	webhook *telegram.WebhookServer

	sessionService    *session.Service
	entitiesService   *entities.Service
	ratingsService    *ratings.Service
	policiesService   *policies.Service
	vaultService      *vault.Service
	forumService      *forum.Service
	adminUsersService *adminusers.Service
	accessService     *access.Service
	auditService      *audit.Service

	formMu     sync.Mutex
	formByChat map[int64]formState

	filterMu     sync.Mutex
	filterByChat map[int64]vault.FeedFilter

	viewerMu     sync.Mutex
	viewerByChat map[int64]*vault.MediaViewer
}

func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	apiClient, err := civichttp.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	db, err := postgres.Open(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		logger.Warn("postgres unavailable, continuing without local store", zap.Error(err))
		db = nil
	}

	redisClient := redisstore.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionStore := redisstore.NewSessionRepo(redisClient)

	var signer *s3infra.Signer
	if strings.TrimSpace(cfg.S3.Endpoint) != "" && strings.TrimSpace(cfg.S3.Bucket) != "" {
		signer, err = s3infra.NewSigner(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, cfg.S3.UseSSL)
		if err != nil {
			logger.Warn("s3 signer unavailable, evidence previews will use raw urls", zap.Error(err))
			signer = nil
		}
	}

	var cipher *security.SecretCipher
	if strings.TrimSpace(cfg.Admin.SecretCipherKey) != "" {
		cipher, err = security.NewSecretCipher(cfg.Admin.SecretCipherKey)
		if err != nil {
			return nil, fmt.Errorf("create secret cipher: %w", err)
		}
	}
	if cfg.Admin.RequireTOTP && (cipher == nil || db == nil) {
		return nil, fmt.Errorf("admin totp requires SECRET_CIPHER_KEY and DATABASE_URL")
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		db:     db,

		sessionService:    session.NewService(civichttp.NewAuthRepo(apiClient), sessionStore),
		entitiesService:   entities.NewService(civichttp.NewEntitiesRepo(apiClient)),
		ratingsService:    ratings.NewService(civichttp.NewRatingsRepo(apiClient)),
		policiesService:   policies.NewService(civichttp.NewPoliciesRepo(apiClient)),
		vaultService:      vault.NewService(civichttp.NewVaultRepo(apiClient), signerOrNil(signer)),
		forumService:      forum.NewService(civichttp.NewForumRepo(apiClient)),
		adminUsersService: adminusers.NewService(civichttp.NewAdminRepo(apiClient)),
		accessService: access.NewService(
			postgres.NewBotUsersRepo(db),
			postgres.NewTOTPRepo(db),
			cipher,
			cfg.Admin.TOTPIssuer,
			cfg.Admin.RequireTOTP,
		),
		auditService: audit.NewService(postgres.NewAuditRepo(db)),

		formByChat:   make(map[int64]formState),
		filterByChat: make(map[int64]vault.FeedFilter),
		viewerByChat: make(map[int64]*vault.MediaViewer),
	}

	app.tg, err = telegram.NewClient(cfg.Bot.Token, cfg.Bot.PollTimeoutSeconds, logger, app.routeUpdate)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	if strings.TrimSpace(cfg.Bot.WebhookAddr) != "" {
		app.webhook, err = telegram.NewWebhookServer(cfg.Bot.WebhookAddr, cfg.Bot.WebhookSecretPath, app.tg, logger)
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("create webhook server: %w", err)
		}
	}

	return app, nil
}

// Run blocks until the context is canceled. With a webhook address
// configured the bot serves pushed updates instead of long polling.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if a.webhook != nil {
		return a.webhook.Run(ctx)
	}

	return a.tg.Start(ctx)
}

func (a *App) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("close postgres", zap.Error(err))
		}
	}
}

// signerOrNil keeps the service's interface value nil when no signer was
// built, so the typed-nil does not defeat the service's nil check.
func signerOrNil(signer *s3infra.Signer) vault.URLSigner {
	if signer == nil {
		return nil
	}
	return signer
}
