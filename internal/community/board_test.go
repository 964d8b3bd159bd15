package community

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"mindmosaic-backend/internal/models"
)

func newView() (*View, *MemoryStore) {
	store := NewMemoryStore(SeedPosts())
	return NewView(NewBoard(store)), store
}

func TestCreatePost_NewestFirstAndAuthorLabel(t *testing.T) {
	ctx := context.Background()
	v, store := newView()

	if _, err := v.SubmitPost(ctx, "   ", "Sam"); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}

	named, err := v.SubmitPost(ctx, "first", "Sam")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if named.Author != "Sam" || named.IsAnonymous {
		t.Errorf("unexpected author %+v", named)
	}

	v.ToggleAnonymous()
	anon, _ := v.SubmitPost(ctx, "second", "Sam")
	if anon.Author != models.AnonymousAuthor || !anon.IsAnonymous {
		t.Errorf("expected anonymous post, got %+v", anon)
	}
	if v.Anonymous() {
		t.Error("anonymity toggle should reset after posting")
	}

	posts, _ := store.ListPosts(ctx)
	if len(posts) != 4 || posts[0].ID != anon.ID || posts[1].ID != named.ID {
		t.Fatalf("expected newest first, got %v", posts)
	}
}

func TestAddComment_OnlyTouchesSelectedPost(t *testing.T) {
	ctx := context.Background()
	v, store := newView()
	before, _ := store.ListPosts(ctx)

	if _, err := v.OpenReply(ctx, "seed-2"); err != nil {
		t.Fatalf("open reply: %v", err)
	}
	v.ToggleAnonymous()

	comment, err := v.SubmitReply(ctx, "Congrats!", "Sam")
	if err != nil {
		t.Fatalf("submit reply: %v", err)
	}
	if comment.PostID != "seed-2" || comment.Author != models.AnonymousAuthor {
		t.Errorf("unexpected comment %+v", comment)
	}

	after, _ := store.ListPosts(ctx)
	for i := range after {
		if after[i].ID == "seed-2" {
			if len(after[i].Comments) != len(before[i].Comments)+1 {
				t.Errorf("expected one more comment on seed-2")
			}
			continue
		}
		if !reflect.DeepEqual(after[i].Comments, before[i].Comments) {
			t.Errorf("post %s comments changed", after[i].ID)
		}
	}

	state, _ := v.State(ctx)
	if state.ReplyOpen || state.Anonymous {
		t.Error("reply dialog and toggle should reset after success")
	}
}

func TestSubmitReply_Validation(t *testing.T) {
	ctx := context.Background()
	v, _ := newView()

	if _, err := v.SubmitReply(ctx, "hello", "Sam"); !errors.Is(err, ErrNoPostSelected) {
		t.Fatalf("expected ErrNoPostSelected, got %v", err)
	}
	if _, err := v.OpenReply(ctx, "nope"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}

	v.OpenReply(ctx, "seed-1")
	if _, err := v.SubmitReply(ctx, " ", "Sam"); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if state, _ := v.State(ctx); !state.ReplyOpen {
		t.Error("dialog should stay open after a rejected reply")
	}

	v.CloseReply()
	if state, _ := v.State(ctx); state.ReplyOpen {
		t.Error("dialog should close")
	}
}

func TestToggleComments_DoesNotChangeData(t *testing.T) {
	ctx := context.Background()
	v, store := newView()
	before, _ := store.ListPosts(ctx)

	if !v.ToggleComments("seed-1") {
		t.Fatal("expected comments to be shown")
	}

	state, _ := v.State(ctx)
	for _, p := range state.Posts {
		switch p.ID {
		case "seed-1":
			if !p.CommentsVisible || len(p.Comments) != 2 {
				t.Errorf("expected seed-1 comments visible, got %+v", p)
			}
		default:
			if p.CommentsVisible || len(p.Comments) != 0 {
				t.Errorf("post %s should be collapsed", p.ID)
			}
		}
	}

	v.ToggleComments("seed-1")
	state, _ = v.State(ctx)
	if state.Posts[1].CommentsVisible || state.Posts[1].CommentCount != 2 {
		t.Errorf("expected collapsed post with count, got %+v", state.Posts[1])
	}

	after, _ := store.ListPosts(ctx)
	if !reflect.DeepEqual(before, after) {
		t.Fatal("toggling visibility changed stored posts")
	}
}
