package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"mindmosaic-backend/internal/community"
	"mindmosaic-backend/internal/models"
)

// CommunityRepo stores posts and comments in Postgres.
type CommunityRepo struct {
	pool *pgxpool.Pool
}

func NewCommunityRepo(pool *pgxpool.Pool) *CommunityRepo {
	return &CommunityRepo{pool: pool}
}

func (r *CommunityRepo) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, content, author, is_anonymous, created_at
		FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	index := make(map[string]int)
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Content, &p.Author, &p.IsAnonymous, &p.Timestamp); err != nil {
			return nil, err
		}
		p.Comments = []models.Comment{}
		index[p.ID] = len(posts)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crow, err := r.pool.Query(ctx, `
		SELECT id, post_id, content, author, is_anonymous, created_at
		FROM comments ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer crow.Close()

	for crow.Next() {
		var c models.Comment
		if err := crow.Scan(&c.ID, &c.PostID, &c.Content, &c.Author, &c.IsAnonymous, &c.Timestamp); err != nil {
			return nil, err
		}
		if i, ok := index[c.PostID]; ok {
			posts[i].Comments = append(posts[i].Comments, c)
		}
	}
	return posts, crow.Err()
}

func (r *CommunityRepo) GetPost(ctx context.Context, id string) (*models.Post, error) {
	p := &models.Post{Comments: []models.Comment{}}
	err := r.pool.QueryRow(ctx, `
		SELECT id, content, author, is_anonymous, created_at
		FROM posts WHERE id = $1`, id).Scan(&p.ID, &p.Content, &p.Author, &p.IsAnonymous, &p.Timestamp)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return nil, community.ErrPostNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, post_id, content, author, is_anonymous, created_at
		FROM comments WHERE post_id = $1 ORDER BY created_at ASC, id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Content, &c.Author, &c.IsAnonymous, &c.Timestamp); err != nil {
			return nil, err
		}
		p.Comments = append(p.Comments, c)
	}
	return p, rows.Err()
}

func (r *CommunityRepo) CreatePost(ctx context.Context, post *models.Post) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO posts (id, content, author, is_anonymous, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		post.ID, post.Content, post.Author, post.IsAnonymous, post.Timestamp)
	return err
}

func (r *CommunityRepo) AddComment(ctx context.Context, c *models.Comment) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO comments (id, post_id, content, author, is_anonymous, created_at)
		SELECT $1, id, $3, $4, $5, $6 FROM posts WHERE id = $2`,
		c.ID, c.PostID, c.Content, c.Author, c.IsAnonymous, c.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return community.ErrPostNotFound
	}
	return nil
}

// SeedIfEmpty inserts the starter posts into an empty board.
func (r *CommunityRepo) SeedIfEmpty(ctx context.Context, seed []models.Post) error {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM posts").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for i := range seed {
		if err := r.CreatePost(ctx, &seed[i]); err != nil {
			return err
		}
		for j := range seed[i].Comments {
			if err := r.AddComment(ctx, &seed[i].Comments[j]); err != nil {
				return err
			}
		}
	}
	return nil
}
