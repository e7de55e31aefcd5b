package models

import "time"

// Like is a user's like on a post. The (UserID, PostID) pair is unique and the
// row goes away with its post.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index:idx_comments_post_created" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index:idx_comments_post_created" json:"created_at"`
}

type ToggleLikeRequest struct {
	PostID uint `form:"post_id" json:"post_id" validate:"required,gt=0"`
}

type ToggleLikeResult struct {
	Liked bool `json:"liked"`
}

type AddCommentRequest struct {
	PostID uint   `form:"post_id" json:"post_id" validate:"required,gt=0"`
	Text   string `form:"text" json:"text" validate:"required,max=2000"`
}

type CommentView struct {
	ID        uint          `json:"id"`
	PostID    uint          `json:"post_id"`
	Author    AuthorSummary `json:"author"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
}
