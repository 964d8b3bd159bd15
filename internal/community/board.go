// Package community is the bulletin board: posts, comments, and each
// visitor's view of them.
package community

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"mindmosaic-backend/internal/models"
)

var ErrEmptyContent = errors.New("content cannot be empty")

type Board struct {
	store Store
	now   func() time.Time
}

func NewBoard(store Store) *Board {
	return &Board{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func authorLabel(anonymous bool, displayName string) string {
	if anonymous || strings.TrimSpace(displayName) == "" {
		return models.AnonymousAuthor
	}
	return displayName
}

func (b *Board) Posts(ctx context.Context) ([]models.Post, error) {
	return b.store.ListPosts(ctx)
}

func (b *Board) Post(ctx context.Context, id string) (*models.Post, error) {
	return b.store.GetPost(ctx, id)
}

func (b *Board) CreatePost(ctx context.Context, content string, anonymous bool, displayName string) (*models.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	post := &models.Post{
		ID:          uuid.NewString(),
		Content:     content,
		Author:      authorLabel(anonymous, displayName),
		IsAnonymous: anonymous,
		Timestamp:   b.now(),
		Comments:    []models.Comment{},
	}
	if err := b.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// AddComment appends a comment to one post; other posts are untouched.
func (b *Board) AddComment(ctx context.Context, postID, content string, anonymous bool, displayName string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	comment := &models.Comment{
		ID:          uuid.NewString(),
		PostID:      postID,
		Content:     content,
		Author:      authorLabel(anonymous, displayName),
		IsAnonymous: anonymous,
		Timestamp:   b.now(),
	}
	if err := b.store.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
