package community

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"mindmosaic-backend/internal/models"
)

var ErrPostNotFound = errors.New("post not found")

// Store persists posts and their comments.
type Store interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	AddComment(ctx context.Context, comment *models.Comment) error
}

type MemoryStore struct {
	mu    sync.RWMutex
	posts []models.Post
}

func NewMemoryStore(seed []models.Post) *MemoryStore {
	s := &MemoryStore{}
	for _, p := range seed {
		s.posts = append(s.posts, clonePost(p))
	}
	sort.SliceStable(s.posts, func(i, j int) bool { return s.posts[i].Timestamp.After(s.posts[j].Timestamp) })
	return s
}

func clonePost(p models.Post) models.Post {
	p.Comments = append([]models.Comment{}, p.Comments...)
	return p
}

func (s *MemoryStore) ListPosts(_ context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, clonePost(p))
	}
	return out, nil
}

func (s *MemoryStore) GetPost(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.ID == id {
			c := clonePost(p)
			return &c, nil
		}
	}
	return nil, ErrPostNotFound
}

// CreatePost prepends, keeping the list newest-first.
func (s *MemoryStore) CreatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append([]models.Post{clonePost(*post)}, s.posts...)
	return nil
}

func (s *MemoryStore) AddComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID == comment.PostID {
			s.posts[i].Comments = append(s.posts[i].Comments, *comment)
			return nil
		}
	}
	return ErrPostNotFound
}

// SeedPosts are the starter posts shown on an empty board.
func SeedPosts() []models.Post {
	return []models.Post{
		{
			ID:        "seed-1",
			Content:   "I've been feeling overwhelmed with work lately. How do you all manage work-related stress?",
			Author:    "Sarah Johnson",
			Timestamp: time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
			Comments: []models.Comment{
				{
					ID:        "seed-1-c1",
					PostID:    "seed-1",
					Content:   "I find that taking regular breaks and practicing deep breathing helps a lot!",
					Author:    "Michael Chen",
					Timestamp: time.Date(2024, 3, 10, 10, 30, 0, 0, time.UTC),
				},
				{
					ID:        "seed-1-c2",
					PostID:    "seed-1",
					Content:   "Regular exercise has been a game-changer for me. Even a short walk helps!",
					Author:    "Emma Wilson",
					Timestamp: time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC),
				},
			},
		},
		{
			ID:          "seed-2",
			Content:     "Just completed my first meditation session! The peace I feel is incredible.",
			Author:      models.AnonymousAuthor,
			IsAnonymous: true,
			Timestamp:   time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
			Comments:    []models.Comment{},
		},
	}
}
