package models

import "time"

const AnonymousAuthor = "Anonymous"

type Post struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	IsAnonymous bool      `json:"is_anonymous"`
	Timestamp   time.Time `json:"timestamp"`
	Comments    []Comment `json:"comments"`
}

type Comment struct {
	ID          string    `json:"id"`
	PostID      string    `json:"post_id"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	IsAnonymous bool      `json:"is_anonymous"`
	Timestamp   time.Time `json:"timestamp"`
}

type CreatePostRequest struct {
	Content   string `json:"content"`
	Anonymous *bool  `json:"anonymous,omitempty"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

// PostView is a post as rendered for one visitor; Comments is empty unless the
// visitor expanded them.
type PostView struct {
	Post
	CommentCount    int  `json:"comment_count"`
	CommentsVisible bool `json:"comments_visible"`
}

type CommunityState struct {
	Posts      []PostView `json:"posts"`
	Anonymous  bool       `json:"anonymous"`
	ReplyingTo *Post      `json:"replying_to,omitempty"`
	ReplyOpen  bool       `json:"reply_open"`
}
