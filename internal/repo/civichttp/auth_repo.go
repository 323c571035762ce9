package civichttp

import (
	"context"
	"net/http"
	"strings"
	"time"

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
)

type AuthRepo struct {
	client *Client
}

func NewAuthRepo(client *Client) *AuthRepo {
	return &AuthRepo{client: client}
}

type LoginInput struct {
	Identifier string
	Password   string
}

type SignupInput struct {
	Username    string
	Email       string
	Password    string
	IsAnonymous bool
}

func (r *AuthRepo) Login(ctx context.Context, input LoginInput) (string, error) {
	request := map[string]string{
		"identifier": strings.TrimSpace(input.Identifier),
		"password":   input.Password,
	}

	response := tokenResponseDTO{}
	if err := r.client.DoJSON(ctx, http.MethodPost, "/auth/login", request, &response); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.AccessToken), nil
}

func (r *AuthRepo) Signup(ctx context.Context, input SignupInput) (string, error) {
	request := map[string]interface{}{
		"username":     strings.TrimSpace(input.Username),
		"email":        strings.TrimSpace(input.Email),
		"password":     input.Password,
		"is_anonymous": input.IsAnonymous,
	}

	response := tokenResponseDTO{}
	if err := r.client.DoJSON(ctx, http.MethodPost, "/auth/signup", request, &response); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.AccessToken), nil
}

func (r *AuthRepo) Me(ctx context.Context) (model.User, error) {
	response := userDTO{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/auth/me", nil, &response); err != nil {
		return model.User{}, err
	}
	return response.toModel(), nil
}

// RequestPasswordReset fires the reset request and swallows the outcome: the
// caller always reports success so the bot never reveals whether an
// identifier is registered.
func (r *AuthRepo) RequestPasswordReset(ctx context.Context, identifier string) {
	request := map[string]string{"identifier": strings.TrimSpace(identifier)}
	_ = r.client.DoJSON(ctx, http.MethodPost, "/auth/password-reset", request, nil)
}

type tokenResponseDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userDTO struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	IsVerified      bool      `json:"is_verified"`
	IsEmailVerified bool      `json:"is_email_verified"`
	IsAnonymous     bool      `json:"is_anonymous"`
	CreatedAt       time.Time `json:"created_at"`
}

func (dto userDTO) toModel() model.User {
	return model.User{
		ID:              dto.ID,
		Username:        strings.TrimSpace(dto.Username),
		Email:           strings.TrimSpace(dto.Email),
		Role:            enums.ParseRole(dto.Role),
		IsVerified:      dto.IsVerified,
		IsEmailVerified: dto.IsEmailVerified,
		IsAnonymous:     dto.IsAnonymous,
		CreatedAt:       dto.CreatedAt,
	}
}
