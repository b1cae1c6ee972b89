package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/techsphere/techsphere/internal/common"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUserForeignKey = errors.New("user_id does not exist")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func scanUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (m *BlogModel) insert(ctx context.Context, b *Blog) error {
	query := `
		INSERT INTO blogs (id, title, content, excerpt, user_id, tags, custom_tags, featured_image, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	args := []any{
		b.ID,
		b.Title,
		b.Content,
		b.Excerpt,
		b.Author.ID,
		pq.Array(b.Tags),
		pq.Array(b.CustomTags),
		b.FeaturedImage,
		b.Status,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		switch {
		case ForeignKeyError(err, "blogs_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

// getBlogByID loads the full aggregate: author join, like membership, the
// derived like count and the derived comment reference list.
func (m *BlogModel) getBlogByID(ctx context.Context, id uuid.UUID) (*Blog, error) {
	query := `
		SELECT b.id, b.title, b.content, b.excerpt, b.tags, b.custom_tags, b.featured_image, b.status, b.views, b.created_at, b.updated_at,
			u.id, u.username, u.profile_picture,
			ARRAY(SELECT user_id::text FROM blog_likes WHERE blog_id = b.id ORDER BY created_at),
			ARRAY(SELECT id::text FROM comments WHERE blog_id = b.id ORDER BY created_at)
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE b.id = $1`

	var blog Blog
	var likes, commentIDs pq.StringArray

	row := m.db.QueryRowContext(ctx, query, id)
	err := row.Scan(&blog.ID, &blog.Title, &blog.Content, &blog.Excerpt, pq.Array(&blog.Tags), pq.Array(&blog.CustomTags), &blog.FeaturedImage, &blog.Status, &blog.Views, &blog.CreatedAt, &blog.UpdatedAt, &blog.Author.ID, &blog.Author.Username, &blog.Author.ProfilePicture, &likes, &commentIDs)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	blog.Likes, err = scanUUIDs(likes)
	if err != nil {
		return nil, err
	}
	blog.LikesCount = len(blog.Likes)

	blog.CommentIDs, err = scanUUIDs(commentIDs)
	if err != nil {
		return nil, err
	}

	return &blog, nil
}

func (m *BlogModel) updateBlog(ctx context.Context, b *Blog) error {
	query := `
		UPDATE blogs
		SET title = $1, content = $2, excerpt = $3, tags = $4, custom_tags = $5, status = $6, featured_image = $7, updated_at = now()
		WHERE id = $8
		RETURNING created_at, updated_at`

	args := []any{
		b.Title,
		b.Content,
		b.Excerpt,
		pq.Array(b.Tags),
		pq.Array(b.CustomTags),
		b.Status,
		b.FeaturedImage,
		b.ID,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) deleteBlog(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM blogs
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// registerView bumps the view counter in a single atomic statement so that
// concurrent reads never lose an increment.
func (m *BlogModel) registerView(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE blogs
		SET views = views + 1
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
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

// toggleLike flips the user's membership in the like set inside one
// transaction and reports the resulting membership. Last write wins on
// concurrent toggles by the same user; the count is always |likes|.
func (m *BlogModel) toggleLike(ctx context.Context, blogID, userID uuid.UUID) (*LikeResult, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM blog_likes WHERE blog_id = $1 AND user_id = $2`, blogID, userID)
	if err != nil {
		return nil, err
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	if removed == 0 {
		_, err = tx.ExecContext(ctx, `INSERT INTO blog_likes (blog_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, blogID, userID)
		if err != nil {
			switch {
			case ForeignKeyError(err, "blog_likes_blog_id_fkey"):
				return nil, ErrRecordNotFound
			case ForeignKeyError(err, "blog_likes_user_id_fkey"):
				return nil, ErrUserForeignKey
			default:
				return nil, err
			}
		}
	}

	// A delete on a missing blog also affects zero rows, so confirm the blog
	// exists before reporting the toggle as an unlike.
	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM blogs WHERE id = $1)`, blogID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRecordNotFound
	}

	var likes pq.StringArray
	err = tx.QueryRowContext(ctx, `SELECT ARRAY(SELECT user_id::text FROM blog_likes WHERE blog_id = $1 ORDER BY created_at)`, blogID).Scan(&likes)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	ids, err := scanUUIDs(likes)
	if err != nil {
		return nil, err
	}

	return &LikeResult{Likes: ids, LikesCount: len(ids)}, nil
}

// getBlogs runs the filtered listing. Only the content column stays out of
// the select list; list items carry the excerpt instead, the like membership
// and comment references come along as they do on a single blog.
func (m *BlogModel) getBlogs(ctx context.Context, f Filters) ([]Blog, common.Metadata, error) {
	query := `
		SELECT count(*) OVER(), b.id, b.title, b.excerpt, b.tags, b.custom_tags, b.featured_image, b.status, b.views, b.created_at, b.updated_at,
			u.id, u.username, u.profile_picture,
			ARRAY(SELECT user_id::text FROM blog_likes WHERE blog_id = b.id ORDER BY created_at),
			ARRAY(SELECT id::text FROM comments WHERE blog_id = b.id ORDER BY created_at)
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE ($1 = '' OR b.status = $1)
		AND ($2::text[] IS NULL OR b.tags && $2)
		AND ($3 = '' OR b.title ILIKE '%' || $3 || '%' OR b.content ILIKE '%' || $3 || '%')
		AND ($4::uuid IS NULL OR b.user_id = $4)
		ORDER BY b.created_at DESC
		LIMIT $5 OFFSET $6`

	var tags any
	if len(f.Tags) > 0 {
		tags = pq.Array(f.Tags)
	}

	var author any
	if f.AuthorID != uuid.Nil {
		author = f.AuthorID
	}

	offset := (f.Page - 1) * f.Limit

	rows, err := m.db.QueryContext(ctx, query, f.Status, tags, f.Search, author, f.Limit, offset)
	if err != nil {
		return nil, common.Metadata{}, err
	}
	defer rows.Close()

	var total int
	blogs := []Blog{}
	for rows.Next() {
		var blog Blog
		var likes, commentIDs pq.StringArray
		err := rows.Scan(&total, &blog.ID, &blog.Title, &blog.Excerpt, pq.Array(&blog.Tags), pq.Array(&blog.CustomTags), &blog.FeaturedImage, &blog.Status, &blog.Views, &blog.CreatedAt, &blog.UpdatedAt, &blog.Author.ID, &blog.Author.Username, &blog.Author.ProfilePicture, &likes, &commentIDs)
		if err != nil {
			return nil, common.Metadata{}, err
		}

		blog.Likes, err = scanUUIDs(likes)
		if err != nil {
			return nil, common.Metadata{}, err
		}
		blog.LikesCount = len(blog.Likes)

		blog.CommentIDs, err = scanUUIDs(commentIDs)
		if err != nil {
			return nil, common.Metadata{}, err
		}

		blogs = append(blogs, blog)
	}

	if err := rows.Err(); err != nil {
		return nil, common.Metadata{}, err
	}

	return blogs, common.NewMetadata(total, f.Page, f.Limit), nil
}
