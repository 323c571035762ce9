package model

import "time"

type ForumPost struct {
	ID         int64
	Title      string
	Body       string
	AuthorName string
	CreatedAt  time.Time
	Comments   []Comment
}

type Comment struct {
	ID         int64
	PostID     int64
	Content    string
	AuthorName string
	CreatedAt  time.Time
}
