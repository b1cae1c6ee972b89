package commentservice

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/techsphere/techsphere/internal/common"
	"github.com/techsphere/techsphere/internal/userservice"
)

// setupTestUser is a helper function to create a test user in the database.
func setupTestUser(db *sql.DB, username, email string, role userservice.Role) (*userservice.User, error) {
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (id, username, email, password, role)
		VALUES ($1, $2, $3, $4, $5)`

	id := uuid.New()
	_, err = db.Exec(query, id, username, email, randomBytes, role)
	if err != nil {
		return nil, err
	}

	return &userservice.User{ID: id, Username: username, Email: email, Role: role}, nil
}

func setupTestBlog(db *sql.DB, authorID uuid.UUID) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.Exec(`INSERT INTO blogs (id, title, content, excerpt, user_id) VALUES ($1, $2, $3, $4, $5)`, id, "Test Blog", "Content.", "Content.", authorID)
	return id, err
}

func setupTestEnvironment(t *testing.T) (*CommentService, *sql.DB, *userservice.User, uuid.UUID) {
	db := common.TestDB("file://../../migrations", t)

	author, err := setupTestUser(db, "commenter", "commenter@example.com", userservice.RoleUser)
	if err != nil {
		t.Fatalf("could not create test user: %v", err)
	}

	blogID, err := setupTestBlog(db, author.ID)
	if err != nil {
		t.Fatalf("could not create test blog: %v", err)
	}

	return NewCommentService(db), db, author, blogID
}

func TestCreateComment(t *testing.T) {
	s, _, author, blogID := setupTestEnvironment(t)

	testCases := []struct {
		name        string
		actor       *userservice.User
		req         *CreateCommentRequest
		expectedErr error
	}{
		{
			name:        "valid comment",
			actor:       author,
			req:         &CreateCommentRequest{BlogID: blogID, Content: "Nice post."},
			expectedErr: nil,
		},
		{
			name:        "empty content",
			actor:       author,
			req:         &CreateCommentRequest{BlogID: blogID, Content: ""},
			expectedErr: common.ValidationError{Errors: map[string]string{"content": "must be provided"}},
		},
		{
			name:        "content too long",
			actor:       author,
			req:         &CreateCommentRequest{BlogID: blogID, Content: strings.Repeat("a", 1001)},
			expectedErr: common.ValidationError{Errors: map[string]string{"content": "must not be more than 1000 characters long"}},
		},
		{
			name:        "multibyte content at the limit",
			actor:       author,
			req:         &CreateCommentRequest{BlogID: blogID, Content: strings.Repeat("é", 1000)},
			expectedErr: nil,
		},
		{
			name:        "missing blog",
			actor:       author,
			req:         &CreateCommentRequest{BlogID: uuid.New(), Content: "Nice post."},
			expectedErr: ErrBlogNotFound,
		},
		{
			name:        "anonymous actor",
			actor:       &userservice.AnonymousUser,
			req:         &CreateCommentRequest{BlogID: blogID, Content: "Nice post."},
			expectedErr: userservice.ErrNotPermitted,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			comment, err := s.CreateComment(context.Background(), tc.actor, tc.req)
			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, author.ID, comment.Author.ID)
			assert.NotNil(t, comment.BlogID)
			assert.Nil(t, comment.ParentID)
			assert.False(t, comment.IsDeleted())
		})
	}
}

func TestCreateReply(t *testing.T) {
	s, _, author, blogID := setupTestEnvironment(t)

	parent, err := s.CreateComment(context.Background(), author, &CreateCommentRequest{BlogID: blogID, Content: "Top level."})
	assert.NoError(t, err)

	reply, err := s.CreateComment(context.Background(), author, &CreateCommentRequest{BlogID: blogID, Content: "A reply.", ParentID: &parent.ID})
	assert.NoError(t, err)
	assert.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)

	// the parent's reply list is derived from the reply's parent pointer
	comments, err := s.GetBlogComments(context.Background(), blogID)
	assert.NoError(t, err)
	assert.Len(t, comments, 1)
	assert.Len(t, comments[0].Replies, 1)
	assert.Equal(t, reply.ID, comments[0].Replies[0].ID)
}

func TestCreateCommentMissingBlogPersistsNothing(t *testing.T) {
	s, db, author, _ := setupTestEnvironment(t)

	_, err := s.CreateComment(context.Background(), author, &CreateCommentRequest{BlogID: uuid.New(), Content: "Orphan comment."})
	assert.ErrorIs(t, err, ErrBlogNotFound)

	// a failed create persists nothing
	var count int
	err = db.QueryRow(`SELECT count(*) FROM comments`).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCreateReplyMissingParent(t *testing.T) {
	s, db, author, blogID := setupTestEnvironment(t)

	missing := uuid.New()
	_, err := s.CreateComment(context.Background(), author, &CreateCommentRequest{BlogID: blogID, Content: "Orphan reply.", ParentID: &missing})
	assert.ErrorIs(t, err, ErrParentNotFound)

	// a failed create persists nothing
	var count int
	err = db.QueryRow(`SELECT count(*) FROM comments`).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUpdateComment(t *testing.T) {
	s, db, author, blogID := setupTestEnvironment(t)

	other, err := setupTestUser(db, "other", "other@example.com", userservice.RoleUser)
	assert.NoError(t, err)

	admin, err := setupTestUser(db, "admin", "admin@example.com", userservice.RoleAdmin)
	assert.NoError(t, err)

	comment, err := s.CreateComment(context.Background(), author, &CreateCommentRequest{BlogID: blogID, Content: "Original."})
	assert.NoError(t, err)

	_, err = s.UpdateComment(context.Background(), other, comment.ID, "Hijacked.")
	assert.ErrorIs(t, err, userservice.ErrNotPermitted)

	// edits are author-only, even for admins
	_, err = s.UpdateComment(context.Background(), admin, comment.ID, "Hijacked.")
	assert.ErrorIs(t, err, userservice.ErrNotPermitted)

	updated, err := s.UpdateComment(context.Background(), author, comment.ID, "Edited.")
	assert.NoError(t, err)
	assert.Equal(t, "Edited.", updated.Content)

	_, err = s.UpdateComment(context.Background(), author, uuid.New(), "Edited.")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestUpdateDeletedComment(t *testing.T) {
	s, _, author, blogID := setupTestEnvironment(t)

	comment, err := s.CreateComment(context.Background(), author, &CreateCommentRequest{BlogID: blogID, Content: "Original."})
	assert.NoError(t, err)

	err = s.DeleteComment(context.Background(), author, comment.ID)
	assert.NoError(t, err)

	_, err = s.UpdateComment(context.Background(), author, comment.ID, "Necro edit.")
	assert.ErrorIs(t, err, ErrCommentDeleted)
}

func TestDeleteComment(t *testing.T) {
	s, db, author, blogID := setupTestEnvironment(t)

	other, err := setupTestUser(db, "other", "other@example.com", userservice.RoleUser)
	assert.NoError(t, err)

	admin, err := setupTestUser(db, "admin", "admin@example.com", userservice.RoleAdmin)
	assert.NoError(t, err)

	comment, err := s.CreateComment(context.Background(), author, &CreateCommentRequest{BlogID: blogID, Content: "Doomed."})
	assert.NoError(t, err)

	err = s.DeleteComment(context.Background(), other, comment.ID)
	assert.ErrorIs(t, err, userservice.ErrNotPermitted)

	err = s.DeleteComment(context.Background(), admin, comment.ID)
	assert.NoError(t, err)

	// soft delete: the row and its content survive
	got, err := s.GetComment(context.Background(), comment.ID)
	assert.NoError(t, err)
	assert.True(t, got.IsDeleted())
	assert.Equal(t, admin.ID, got.Deleted.By)
	assert.Equal(t, "Doomed.", got.Content)

	// re-deleting succeeds and keeps the original actor
	err = s.DeleteComment(context.Background(), author, comment.ID)
	assert.NoError(t, err)

	got, err = s.GetComment(context.Background(), comment.ID)
	assert.NoError(t, err)
	assert.Equal(t, admin.ID, got.Deleted.By)

	var count int
	err = db.QueryRow(`SELECT count(*) FROM comments`).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetBlogComments(t *testing.T) {
	s, _, author, blogID := setupTestEnvironment(t)

	first, err := s.CreateComment(context.Background(), author, &CreateCommentRequest{BlogID: blogID, Content: "First."})
	assert.NoError(t, err)

	second, err := s.CreateComment(context.Background(), author, &CreateCommentRequest{BlogID: blogID, Content: "Second."})
	assert.NoError(t, err)

	reply, err := s.CreateComment(context.Background(), author, &CreateCommentRequest{BlogID: blogID, Content: "Reply to first.", ParentID: &first.ID})
	assert.NoError(t, err)

	// deleting a top-level comment hides it from the listing
	err = s.DeleteComment(context.Background(), author, second.ID)
	assert.NoError(t, err)

	comments, err := s.GetBlogComments(context.Background(), blogID)
	assert.NoError(t, err)
	assert.Len(t, comments, 1)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Len(t, comments[0].Replies, 1)

	// a deleted reply stays attached to its parent
	err = s.DeleteComment(context.Background(), author, reply.ID)
	assert.NoError(t, err)

	comments, err = s.GetBlogComments(context.Background(), blogID)
	assert.NoError(t, err)
	assert.Len(t, comments[0].Replies, 1)
	assert.True(t, comments[0].Replies[0].IsDeleted())

	// unknown blog
	_, err = s.GetBlogComments(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrBlogNotFound)
}

func TestGetUserComments(t *testing.T) {
	s, db, author, blogID := setupTestEnvironment(t)

	kept, err := s.CreateComment(context.Background(), author, &CreateCommentRequest{BlogID: blogID, Content: "Kept."})
	assert.NoError(t, err)

	deleted, err := s.CreateComment(context.Background(), author, &CreateCommentRequest{BlogID: blogID, Content: "Deleted."})
	assert.NoError(t, err)

	err = s.DeleteComment(context.Background(), author, deleted.ID)
	assert.NoError(t, err)

	comments, metadata, err := s.GetUserComments(context.Background(), author.ID, 1, 10)
	assert.NoError(t, err)
	assert.Len(t, comments, 1)
	assert.Equal(t, kept.ID, comments[0].ID)
	assert.Equal(t, "Test Blog", comments[0].BlogTitle)
	assert.Equal(t, 1, metadata.Total)
	assert.Equal(t, 1, metadata.Pages)

	// comments survive blog deletion with the title association gone
	_, err = db.Exec(`DELETE FROM blogs WHERE id = $1`, blogID)
	assert.NoError(t, err)

	comments, _, err = s.GetUserComments(context.Background(), author.ID, 1, 10)
	assert.NoError(t, err)
	assert.Len(t, comments, 1)
	assert.Nil(t, comments[0].BlogID)
	assert.Empty(t, comments[0].BlogTitle)
}
