package userservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/techsphere/techsphere/internal/common"
)

type tokenScope string

type Role string

const (
	TokenScopePasswordReset tokenScope = "token:password-reset"

	PasswordResetTokenTime time.Duration = 45 * time.Minute
	AuthTokenTime          time.Duration = 7 * 24 * time.Hour

	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var (
	AnonymousUser = User{}
)

type UserService struct {
	m      *DBModel
	mb     common.MessageProducer
	assets AssetStore
	secret []byte
	logger *slog.Logger
}

type DBModel struct {
	db *sql.DB
}

type User struct {
	ID             uuid.UUID   `json:"id"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	Password       Password    `json:"-"`
	Role           Role        `json:"role"`
	ProfilePicture string      `json:"profile_picture,omitempty"`
	Bio            string      `json:"bio"`
	SocialLinks    SocialLinks `json:"social_links"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Version        int         `json:"version"`
}

type SocialLinks struct {
	Twitter  string `json:"twitter"`
	GitHub   string `json:"github"`
	LinkedIn string `json:"linkedin"`
	Website  string `json:"website"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

// Token is a single-use password reset token. Only the hash is persisted.
type Token struct {
	Plain  string     `json:"token"`
	Hash   []byte     `json:"-"`
	UserID uuid.UUID  `json:"-"`
	Expiry time.Time  `json:"expiry"`
	Scope  tokenScope `json:"-"`
}

func (u *User) IsAnonymous() bool {
	return u == nil || u.ID == uuid.Nil
}
