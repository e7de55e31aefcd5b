package models

import "time"

// FeedPageSize is the fixed number of posts returned per feed page.
const FeedPageSize = 20

type FeedPost struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Body        string        `json:"body"`
	Price       *string       `json:"price"`
	ContactInfo *string       `json:"contact_info"`
	Author      AuthorSummary `json:"author"`
	CreatedAt   time.Time     `json:"created_at"`
}

type FeedItem struct {
	Post           FeedPost    `json:"post"`
	Media          []MediaView `json:"media"`
	LikeCount      int64       `json:"like_count"`
	CommentCount   int64       `json:"comment_count"`
	ViewerHasLiked bool        `json:"viewer_has_liked"`
}

// PostDetail is a single feed item with its full comment thread.
type PostDetail struct {
	FeedItem
	Comments []CommentView `json:"comments"`
}
