package models

import "time"

type UserRole string

const (
	RoleStudent   UserRole = "student"
	RoleInnovator UserRole = "innovator"
)

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"size:20;not null;default:student" json:"role"`
	Bio          string   `json:"bio"`
	Avatar       string   `gorm:"size:512" json:"avatar"` // URL path of the profile picture

	Socials UserSocials `gorm:"foreignKey:UserID" json:"socials"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSocials is created empty at registration and edited from the profile page.
type UserSocials struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	UserID    uint    `gorm:"uniqueIndex;not null" json:"-"`
	Phone     *string `gorm:"size:50" json:"phone"`
	Facebook  *string `gorm:"size:255" json:"facebook"`
	Instagram *string `gorm:"size:255" json:"instagram"`
	TikTok    *string `gorm:"column:tiktok;size:255" json:"tiktok"`
	GitHub    *string `gorm:"column:github;size:255" json:"github"`
	Discord   *string `gorm:"size:255" json:"discord"`
}

func (UserSocials) TableName() string {
	return "user_socials"
}

// IsInnovator reports whether the user may attach commerce fields to posts.
func (u *User) IsInnovator() bool {
	return u.Role == RoleInnovator
}

// Identity is the authenticated caller of a request. Handlers resolve it from the
// session and pass it explicitly into every service call; nil means anonymous.
type Identity struct {
	UserID    uint
	SessionID string
}

type RegisterRequest struct {
	Username        string   `form:"username" json:"username" validate:"required,min=3,max=50"`
	Email           string   `form:"email" json:"email" validate:"required,email,max=100"`
	Password        string   `form:"password" json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string   `form:"confirm_password" json:"confirm_password" validate:"required,eqfield=Password"`
	Role            UserRole `form:"role" json:"role" validate:"omitempty,user_role"`
}

type LoginRequest struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Bio       string `form:"bio" json:"bio" validate:"max=1000"`
	Phone     string `form:"phone" json:"phone" validate:"max=50"`
	Facebook  string `form:"facebook" json:"facebook" validate:"max=255"`
	Instagram string `form:"instagram" json:"instagram" validate:"max=255"`
	TikTok    string `form:"tiktok" json:"tiktok" validate:"max=255"`
	GitHub    string `form:"github" json:"github" validate:"max=255"`
	Discord   string `form:"discord" json:"discord" validate:"max=255"`
}

// AuthorSummary is the slice of a user embedded into feed items and comments.
type AuthorSummary struct {
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Avatar   string   `json:"avatar"`
	Role     UserRole `json:"role"`
}

func (u *User) Summary() AuthorSummary {
	return AuthorSummary{
		ID:       u.ID,
		Username: u.Username,
		Avatar:   u.Avatar,
		Role:     u.Role,
	}
}

// ProfileView is the public profile; Email is only filled for the owner.
type ProfileView struct {
	ID        uint        `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email,omitempty"`
	Role      UserRole    `json:"role"`
	Bio       string      `json:"bio"`
	Avatar    string      `json:"avatar"`
	Socials   UserSocials `json:"socials"`
	CreatedAt time.Time   `json:"created_at"`
}

// Profile builds the public view of u. includeEmail is set when the viewer is u.
func (u *User) Profile(includeEmail bool) ProfileView {
	view := ProfileView{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
		Socials:   u.Socials,
		CreatedAt: u.CreatedAt,
	}
	if includeEmail {
		view.Email = u.Email
	}
	return view
}
