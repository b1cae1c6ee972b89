package commentservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/techsphere/techsphere/internal/common"
	"github.com/techsphere/techsphere/internal/userservice"
)

var ErrCommentDeleted = errors.New("comment has been deleted")

func NewCommentService(db *sql.DB) *CommentService {
	return &CommentService{m: newCommentModel(db)}
}

type CreateCommentRequest struct {
	BlogID   uuid.UUID
	Content  string
	ParentID *uuid.UUID
}

// CreateComment attaches a comment to a blog, optionally as a reply. The blog
// and, when given, the parent must exist; both checks resolve in the same
// insert that creates the row, so a failure leaves nothing behind.
func (s *CommentService) CreateComment(ctx context.Context, actor *userservice.User, req *CreateCommentRequest) (*Comment, error) {
	if actor.IsAnonymous() {
		return nil, userservice.ErrNotPermitted
	}

	v := common.NewValidator()
	validateContent(v, req.Content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blogID := req.BlogID
	comment := &Comment{
		ID:       uuid.New(),
		Content:  req.Content,
		Author:   Author{ID: actor.ID, Username: actor.Username, ProfilePicture: actor.ProfilePicture},
		BlogID:   &blogID,
		ParentID: req.ParentID,
		Replies:  []Comment{},
	}

	if err := s.m.insert(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *CommentService) GetComment(ctx context.Context, id uuid.UUID) (*Comment, error) {
	return s.m.getCommentByID(ctx, id)
}

// UpdateComment rewrites the comment content. Only the original author may
// edit, and a soft-deleted comment can no longer be edited.
func (s *CommentService) UpdateComment(ctx context.Context, actor *userservice.User, id uuid.UUID, content string) (*Comment, error) {
	v := common.NewValidator()
	validateContent(v, content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	comment, err := s.m.getCommentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := actor.CanModifyOwn(comment.Author.ID); err != nil {
		return nil, err
	}

	if comment.IsDeleted() {
		return nil, ErrCommentDeleted
	}

	if err := s.m.updateContent(ctx, id, content); err != nil {
		return nil, err
	}

	comment.Content = content

	return comment, nil
}

// DeleteComment soft-deletes: the row, its content and its links all remain,
// the comment just disappears from default listings. Author or admin only.
// Deleting an already-deleted comment succeeds without changing anything.
func (s *CommentService) DeleteComment(ctx context.Context, actor *userservice.User, id uuid.UUID) error {
	comment, err := s.m.getCommentByID(ctx, id)
	if err != nil {
		return err
	}

	if err := actor.CanModify(comment.Author.ID); err != nil {
		return err
	}

	return s.m.softDelete(ctx, id, actor.ID)
}

// GetBlogComments returns the blog's discussion tree: top-level non-deleted
// comments oldest first, replies attached regardless of their own state.
func (s *CommentService) GetBlogComments(ctx context.Context, blogID uuid.UUID) ([]Comment, error) {
	exists, err := s.m.blogExists(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrBlogNotFound
	}

	return s.m.getBlogComments(ctx, blogID)
}

// GetUserComments lists a user's comments for their profile page.
func (s *CommentService) GetUserComments(ctx context.Context, userID uuid.UUID, page, limit int) ([]Comment, common.Metadata, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	return s.m.getUserComments(ctx, userID, page, limit)
}
