package forum

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"civiclens_bot/internal/domain/model"
)

var ErrValidation = errors.New("validation error")

type Repo interface {
	ListPosts(context.Context) ([]model.ForumPost, error)
	GetPost(context.Context, int64) (model.ForumPost, error)
	CreatePost(ctx context.Context, title, body string) (model.ForumPost, error)
	ListComments(context.Context, int64) ([]model.Comment, error)
	AddComment(ctx context.Context, postID int64, content string) (model.Comment, error)
}

type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListPosts(ctx context.Context) ([]model.ForumPost, error) {
	return s.repo.ListPosts(ctx)
}

// GetPost returns the post with its comments; when the post payload does not
// embed them, they are fetched separately.
func (s *Service) GetPost(ctx context.Context, postID int64) (model.ForumPost, error) {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return model.ForumPost{}, err
	}

	if len(post.Comments) == 0 {
		comments, err := s.repo.ListComments(ctx, postID)
		if err == nil {
			post.Comments = comments
		}
	}
	return post, nil
}

func (s *Service) CreatePost(ctx context.Context, title, body string) (model.ForumPost, error) {
	if strings.TrimSpace(title) == "" {
		return model.ForumPost{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(body) == "" {
		return model.ForumPost{}, fmt.Errorf("%w: body is required", ErrValidation)
	}
	return s.repo.CreatePost(ctx, title, body)
}

func (s *Service) AddComment(ctx context.Context, postID int64, content string) (model.Comment, error) {
	if postID <= 0 {
		return model.Comment{}, fmt.Errorf("%w: invalid post id", ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		return model.Comment{}, fmt.Errorf("%w: comment is empty", ErrValidation)
	}
	return s.repo.AddComment(ctx, postID, content)
}
