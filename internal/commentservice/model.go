package commentservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/techsphere/techsphere/internal/common"
)

var (
	ErrRecordNotFound = errors.New("comment not found")
	ErrBlogNotFound   = errors.New("blog not found")
	ErrParentNotFound = errors.New("parent comment not found")
	ErrUserForeignKey = errors.New("user_id does not exist")
)

func newCommentModel(db *sql.DB) *CommentModel {
	return &CommentModel{db: db}
}

func foreignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503" && pqErr.Constraint == name
	}

	return false
}

// insert creates the comment row. The parent pointer on the row is the single
// source of truth for tree structure: the parent's reply list and the blog's
// comment list are derived from it by query, so a comment can never exist
// half-linked.
func (m *CommentModel) insert(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (id, content, user_id, blog_id, parent_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := m.db.QueryRowContext(ctx, query, c.ID, c.Content, c.Author.ID, c.BlogID, c.ParentID).Scan(&c.CreatedAt)
	if err != nil {
		switch {
		case foreignKeyError(err, "comments_blog_id_fkey"):
			return ErrBlogNotFound
		case foreignKeyError(err, "comments_parent_id_fkey"):
			return ErrParentNotFound
		case foreignKeyError(err, "comments_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

func (m *CommentModel) getCommentByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	query := `
		SELECT c.id, c.content, c.blog_id, c.parent_id, c.deleted_at, c.deleted_by, c.created_at, u.id, u.username, u.profile_picture
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.id = $1`

	var c Comment
	var blogID, parentID uuid.NullUUID
	var deletedAt sql.NullTime
	var deletedBy uuid.NullUUID

	row := m.db.QueryRowContext(ctx, query, id)
	err := row.Scan(&c.ID, &c.Content, &blogID, &parentID, &deletedAt, &deletedBy, &c.CreatedAt, &c.Author.ID, &c.Author.Username, &c.Author.ProfilePicture)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	setRefs(&c, blogID, parentID)
	setDeletion(&c, deletedAt, deletedBy)

	return &c, nil
}

func setRefs(c *Comment, blogID, parentID uuid.NullUUID) {
	if blogID.Valid {
		id := blogID.UUID
		c.BlogID = &id
	}
	if parentID.Valid {
		id := parentID.UUID
		c.ParentID = &id
	}
}

func setDeletion(c *Comment, deletedAt sql.NullTime, deletedBy uuid.NullUUID) {
	if deletedAt.Valid {
		c.Deleted = &Deletion{By: deletedBy.UUID, At: deletedAt.Time}
	}
}

func (m *CommentModel) updateContent(ctx context.Context, id uuid.UUID, content string) error {
	query := `
		UPDATE comments
		SET content = $1
		WHERE id = $2 AND deleted_at IS NULL`

	res, err := m.db.ExecContext(ctx, query, content, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// softDelete marks the comment deleted. Re-deleting is a no-op that keeps the
// original actor and timestamp, which makes the operation idempotent.
func (m *CommentModel) softDelete(ctx context.Context, id, actor uuid.UUID) error {
	query := `
		UPDATE comments
		SET deleted_at = COALESCE(deleted_at, $2), deleted_by = COALESCE(deleted_by, $3)
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id, time.Now(), actor)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (m *CommentModel) blogExists(ctx context.Context, blogID uuid.UUID) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM blogs WHERE id = $1)`, blogID).Scan(&exists)
	return exists, err
}

// getBlogComments returns the visible discussion for a blog: non-deleted
// top-level comments oldest first, each carrying all of its direct replies.
// Replies stay visible even when their parent or they themselves are deleted,
// except that a deleted reply's row still renders (content retained by the
// soft-delete contract).
func (m *CommentModel) getBlogComments(ctx context.Context, blogID uuid.UUID) ([]Comment, error) {
	query := `
		SELECT c.id, c.content, c.blog_id, c.parent_id, c.deleted_at, c.deleted_by, c.created_at, u.id, u.username, u.profile_picture
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.blog_id = $1 AND c.parent_id IS NULL AND c.deleted_at IS NULL
		ORDER BY c.created_at ASC`

	rows, err := m.db.QueryContext(ctx, query, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	parentIDs := []uuid.UUID{}
	for rows.Next() {
		var c Comment
		var blogID, parentID uuid.NullUUID
		var deletedAt sql.NullTime
		var deletedBy uuid.NullUUID

		err := rows.Scan(&c.ID, &c.Content, &blogID, &parentID, &deletedAt, &deletedBy, &c.CreatedAt, &c.Author.ID, &c.Author.Username, &c.Author.ProfilePicture)
		if err != nil {
			return nil, err
		}

		setRefs(&c, blogID, parentID)
		setDeletion(&c, deletedAt, deletedBy)
		c.Replies = []Comment{}
		comments = append(comments, c)
		parentIDs = append(parentIDs, c.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(parentIDs) == 0 {
		return comments, nil
	}

	replies, err := m.getReplies(ctx, parentIDs)
	if err != nil {
		return nil, err
	}

	byParent := make(map[uuid.UUID][]Comment)
	for _, r := range replies {
		byParent[*r.ParentID] = append(byParent[*r.ParentID], r)
	}

	for i := range comments {
		if rs, ok := byParent[comments[i].ID]; ok {
			comments[i].Replies = rs
		}
	}

	return comments, nil
}

// getReplies loads the direct replies of the given parents regardless of the
// replies' own delete state.
func (m *CommentModel) getReplies(ctx context.Context, parentIDs []uuid.UUID) ([]Comment, error) {
	ids := make([]string, len(parentIDs))
	for i, id := range parentIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT c.id, c.content, c.blog_id, c.parent_id, c.deleted_at, c.deleted_by, c.created_at, u.id, u.username, u.profile_picture
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.parent_id = ANY($1::uuid[])
		ORDER BY c.created_at ASC`

	rows, err := m.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var replies []Comment
	for rows.Next() {
		var c Comment
		var blogID, parentID uuid.NullUUID
		var deletedAt sql.NullTime
		var deletedBy uuid.NullUUID

		err := rows.Scan(&c.ID, &c.Content, &blogID, &parentID, &deletedAt, &deletedBy, &c.CreatedAt, &c.Author.ID, &c.Author.Username, &c.Author.ProfilePicture)
		if err != nil {
			return nil, err
		}

		setRefs(&c, blogID, parentID)
		setDeletion(&c, deletedAt, deletedBy)
		replies = append(replies, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return replies, nil
}

// getUserComments returns a user's non-deleted comments, newest first, with
// the owning blog's title when the blog still exists.
func (m *CommentModel) getUserComments(ctx context.Context, userID uuid.UUID, page, limit int) ([]Comment, common.Metadata, error) {
	query := `
		SELECT count(*) OVER(), c.id, c.content, c.blog_id, COALESCE(b.title, ''), c.parent_id, c.created_at, u.id, u.username, u.profile_picture
		FROM comments c
		JOIN users u ON c.user_id = u.id
		LEFT JOIN blogs b ON c.blog_id = b.id
		WHERE c.user_id = $1 AND c.deleted_at IS NULL
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := m.db.QueryContext(ctx, query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, common.Metadata{}, err
	}
	defer rows.Close()

	var total int
	comments := []Comment{}
	for rows.Next() {
		var c Comment
		var blogID, parentID uuid.NullUUID
		err := rows.Scan(&total, &c.ID, &c.Content, &blogID, &c.BlogTitle, &parentID, &c.CreatedAt, &c.Author.ID, &c.Author.Username, &c.Author.ProfilePicture)
		if err != nil {
			return nil, common.Metadata{}, err
		}
		setRefs(&c, blogID, parentID)
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, common.Metadata{}, err
	}

	return comments, common.NewMetadata(total, page, limit), nil
}
