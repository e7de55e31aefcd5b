package models

import "time"

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Media is owned either by a post (PostID set) or by a user as a profile picture.
type Media struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    *uint     `gorm:"index:idx_media_post_position" json:"post_id,omitempty"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	FileName  string    `gorm:"size:64;not null" json:"file_name"`
	Kind      MediaKind `gorm:"size:10;not null" json:"kind"`
	MimeType  string    `gorm:"size:64;not null" json:"mime_type"`
	Size      int64     `gorm:"not null" json:"size"`
	Position  int       `gorm:"not null;default:0;index:idx_media_post_position" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

func (Media) TableName() string {
	return "media"
}

type MediaView struct {
	ID       uint      `json:"id"`
	URL      string    `json:"url"`
	Kind     MediaKind `json:"kind"`
	MimeType string    `json:"mime_type"`
	Size     int64     `json:"size"`
}
