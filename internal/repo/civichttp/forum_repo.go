package civichttp

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"civiclens_bot/internal/domain/model"
)

type ForumRepo struct {
	client *Client
}

func NewForumRepo(client *Client) *ForumRepo {
	return &ForumRepo{client: client}
}

func (r *ForumRepo) ListPosts(ctx context.Context) ([]model.ForumPost, error) {
	response := []forumPostDTO{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/forum", nil, &response); err != nil {
		return nil, err
	}

	posts := make([]model.ForumPost, 0, len(response))
	for _, dto := range response {
		posts = append(posts, dto.toModel())
	}
	return posts, nil
}

func (r *ForumRepo) GetPost(ctx context.Context, postID int64) (model.ForumPost, error) {
	response := forumPostDTO{}
	err := r.client.DoJSON(ctx, http.MethodGet, "/forum/"+strconv.FormatInt(postID, 10), nil, &response)
	if err != nil {
		return model.ForumPost{}, err
	}
	return response.toModel(), nil
}

func (r *ForumRepo) CreatePost(ctx context.Context, title, body string) (model.ForumPost, error) {
	request := map[string]string{
		"title": strings.TrimSpace(title),
		"body":  strings.TrimSpace(body),
	}

	response := forumPostDTO{}
	if err := r.client.DoJSON(ctx, http.MethodPost, "/forum/create", request, &response); err != nil {
		return model.ForumPost{}, err
	}
	return response.toModel(), nil
}

func (r *ForumRepo) ListComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	response := []commentDTO{}
	path := "/comments?post_id=" + strconv.FormatInt(postID, 10)
	if err := r.client.DoJSON(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}

	comments := make([]model.Comment, 0, len(response))
	for _, dto := range response {
		comments = append(comments, dto.toModel())
	}
	return comments, nil
}

func (r *ForumRepo) AddComment(ctx context.Context, postID int64, content string) (model.Comment, error) {
	request := map[string]interface{}{
		"post_id": postID,
		"content": strings.TrimSpace(content),
	}

	response := commentDTO{}
	if err := r.client.DoJSON(ctx, http.MethodPost, "/comments", request, &response); err != nil {
		return model.Comment{}, err
	}
	return response.toModel(), nil
}

type forumPostDTO struct {
	ID         int64        `json:"id"`
	Title      string       `json:"title"`
	Body       string       `json:"body"`
	AuthorName string       `json:"author_name"`
	CreatedAt  time.Time    `json:"created_at"`
	Comments   []commentDTO `json:"comments"`
}

func (dto forumPostDTO) toModel() model.ForumPost {
	comments := make([]model.Comment, 0, len(dto.Comments))
	for _, c := range dto.Comments {
		comments = append(comments, c.toModel())
	}

	return model.ForumPost{
		ID:         dto.ID,
		Title:      strings.TrimSpace(dto.Title),
		Body:       strings.TrimSpace(dto.Body),
		AuthorName: strings.TrimSpace(dto.AuthorName),
		CreatedAt:  dto.CreatedAt,
		Comments:   comments,
	}
}

type commentDTO struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"post_id"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

func (dto commentDTO) toModel() model.Comment {
	return model.Comment{
		ID:         dto.ID,
		PostID:     dto.PostID,
		Content:    strings.TrimSpace(dto.Content),
		AuthorName: strings.TrimSpace(dto.AuthorName),
		CreatedAt:  dto.CreatedAt,
	}
}
