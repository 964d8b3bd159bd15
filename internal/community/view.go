package community

import (
	"context"
	"errors"
	"sync"

	"mindmosaic-backend/internal/models"
)

var ErrNoPostSelected = errors.New("no post selected for reply")

// View is one visitor's board state: the anonymity toggle, the reply dialog and
// which posts have their comments expanded. None of it changes stored data.
type View struct {
	mu        sync.Mutex
	board     *Board
	anonymous bool
	selected  *models.Post
	expanded  map[string]bool
}

func NewView(board *Board) *View {
	return &View{board: board, expanded: make(map[string]bool)}
}

func (v *View) ToggleAnonymous() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.anonymous = !v.anonymous
	return v.anonymous
}

func (v *View) Anonymous() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.anonymous
}

// ToggleComments shows or hides one post's comments.
func (v *View) ToggleComments(postID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expanded[postID] = !v.expanded[postID]
	return v.expanded[postID]
}

// SubmitPost creates a post with the current anonymity toggle, then resets it.
func (v *View) SubmitPost(ctx context.Context, content, displayName string) (*models.Post, error) {
	v.mu.Lock()
	anonymous := v.anonymous
	v.mu.Unlock()

	post, err := v.board.CreatePost(ctx, content, anonymous, displayName)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.anonymous = false
	v.mu.Unlock()
	return post, nil
}

// OpenReply resolves the post before the reply dialog opens.
func (v *View) OpenReply(ctx context.Context, postID string) (*models.Post, error) {
	post, err := v.board.Post(ctx, postID)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = post
	return post, nil
}

func (v *View) CloseReply() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = nil
}

// SubmitReply adds a comment to the selected post, then closes the dialog and
// resets the anonymity toggle.
func (v *View) SubmitReply(ctx context.Context, content, displayName string) (*models.Comment, error) {
	v.mu.Lock()
	selected := v.selected
	anonymous := v.anonymous
	v.mu.Unlock()

	if selected == nil {
		return nil, ErrNoPostSelected
	}

	comment, err := v.board.AddComment(ctx, selected.ID, content, anonymous, displayName)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.selected = nil
	v.anonymous = false
	v.mu.Unlock()
	return comment, nil
}

// State renders the board for this visitor.
func (v *View) State(ctx context.Context) (models.CommunityState, error) {
	posts, err := v.board.Posts(ctx)
	if err != nil {
		return models.CommunityState{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	state := models.CommunityState{
		Posts:     make([]models.PostView, 0, len(posts)),
		Anonymous: v.anonymous,
		ReplyOpen: v.selected != nil,
	}
	if v.selected != nil {
		sel := *v.selected
		state.ReplyingTo = &sel
	}
	for _, p := range posts {
		pv := models.PostView{Post: p, CommentCount: len(p.Comments)}
		pv.CommentsVisible = v.expanded[p.ID] && len(p.Comments) > 0
		if !pv.CommentsVisible {
			pv.Comments = []models.Comment{}
		}
		state.Posts = append(state.Posts, pv)
	}
	return state, nil
}
