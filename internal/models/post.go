package models

import "time"

type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user"`
	Title       string    `gorm:"size:300" json:"title"`
	Body        string    `gorm:"type:text" json:"body"`
	Price       *string   `gorm:"size:20" json:"price"`
	ContactInfo *string   `gorm:"size:255" json:"contact_info"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

type CreatePostRequest struct {
	Title       string `form:"title" json:"title" validate:"max=300"`
	Body        string `form:"body" json:"body" validate:"max=10000"`
	Price       string `form:"price" json:"price" validate:"omitempty,price"`
	ContactInfo string `form:"contact_info" json:"contact_info" validate:"max=255"`
}

// HasCommerceFields reports whether the request carries innovator-only fields.
func (r *CreatePostRequest) HasCommerceFields() bool {
	return r.Price != "" || r.ContactInfo != ""
}

type AttachmentStatus string

const (
	AttachmentStored   AttachmentStatus = "stored"
	AttachmentRejected AttachmentStatus = "rejected"
	AttachmentDropped  AttachmentStatus = "dropped"
	AttachmentFailed   AttachmentStatus = "failed"
)

// AttachmentOutcome reports what happened to a single uploaded file.
type AttachmentOutcome struct {
	Index    int              `json:"index"`
	FileName string           `json:"file_name"`
	Status   AttachmentStatus `json:"status"`
	Reason   string           `json:"reason,omitempty"`
	MediaID  uint             `json:"media_id,omitempty"`
	URL      string           `json:"url,omitempty"`
}

// CreatePostResult is returned whenever the post row was created, whatever happened
// to the attachments.
type CreatePostResult struct {
	PostID      uint                `json:"post_id"`
	Attachments []AttachmentOutcome `json:"attachments"`
}

// StoredCount returns how many attachments were persisted.
func (r *CreatePostResult) StoredCount() int {
	n := 0
	for _, a := range r.Attachments {
		if a.Status == AttachmentStored {
			n++
		}
	}
	return n
}
