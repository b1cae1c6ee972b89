package commentservice

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID  `json:"id"`
	Content   string     `json:"content"`
	Author    Author     `json:"author"`
	BlogID    *uuid.UUID `json:"blog_id"`
	BlogTitle string     `json:"blog_title,omitempty"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Replies   []Comment  `json:"replies"`
	Deleted   *Deletion  `json:"deleted,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type Author struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
}

// Deletion is the tagged soft-delete state: a comment is deleted exactly when
// this is non-nil, and then both the actor and the time are known.
type Deletion struct {
	By uuid.UUID `json:"by"`
	At time.Time `json:"at"`
}

func (c *Comment) IsDeleted() bool {
	return c.Deleted != nil
}

type CommentModel struct {
	db *sql.DB
}

type CommentService struct {
	m *CommentModel
}
