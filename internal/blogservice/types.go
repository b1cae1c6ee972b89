package blogservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/techsphere/techsphere/internal/common"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Tags outside this list are rejected; customTags are free text.
var PermittedTags = []string{
	"JavaScript",
	"Python",
	"Web Development",
	"Cyber Security",
	"AI",
	"Machine Learning",
	"Data Science",
	"Cloud Computing",
	"DevOps",
	"Mobile Development",
	"Blockchain",
	"Other",
}

type Blog struct {
	ID            uuid.UUID   `json:"id"`
	Title         string      `json:"title"`
	Content       string      `json:"content,omitempty"`
	Excerpt       string      `json:"excerpt"`
	Author        Author      `json:"author"`
	Tags          []string    `json:"tags"`
	CustomTags    []string    `json:"custom_tags"`
	FeaturedImage string      `json:"featured_image,omitempty"`
	Status        Status      `json:"status"`
	Views         int         `json:"views"`
	Likes         []uuid.UUID `json:"likes"`
	LikesCount    int         `json:"likes_count"`
	CommentIDs    []uuid.UUID `json:"comments"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type Author struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
}

// LikeResult reports the like set after a toggle. The count is derived from
// the membership rows, never tracked independently.
type LikeResult struct {
	Likes      []uuid.UUID `json:"likes"`
	LikesCount int         `json:"likes_count"`
}

type Filters struct {
	Page     int
	Limit    int
	Status   string
	Tags     []string
	Search   string
	AuthorID uuid.UUID
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m      *BlogModel
	mb     common.MessageProducer
	assets common.AssetStore
	logger *slog.Logger
}
