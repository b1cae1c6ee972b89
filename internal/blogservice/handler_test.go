package blogservice

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/techsphere/techsphere/internal/common"
	"github.com/techsphere/techsphere/internal/userservice"
)

type stubBroker struct{}

func (stubBroker) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	return nil
}

type stubAssets struct{}

func (stubAssets) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	return "https://assets.test/" + folder + "/object.jpg", nil
}

func (stubAssets) Delete(ctx context.Context, key string) error { return nil }

func (stubAssets) KeyFromURL(url string) string {
	return strings.TrimPrefix(url, "https://assets.test/")
}

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

func setupTestEnvironment(t *testing.T) (*BlogService, *sql.DB, *userservice.User) {
	db := common.TestDB("file://../../migrations", t)

	author, err := setupTestUser(db, "testauthor", "author@example.com", userservice.RoleUser)
	if err != nil {
		t.Fatalf("could not create test user: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewBlogService(db, stubBroker{}, stubAssets{}, logger)

	return s, db, author
}

func TestCreateBlog(t *testing.T) {
	s, _, author := setupTestEnvironment(t)

	testCases := []struct {
		name        string
		actor       *userservice.User
		req         *CreateBlogRequest
		expectedErr error
	}{
		{
			name:  "valid blog",
			actor: author,
			req: &CreateBlogRequest{
				Title:   "Test Blog",
				Content: "This is a test blog.",
				Tags:    []string{"AI", "DevOps"},
			},
			expectedErr: nil,
		},
		{
			name:  "empty title",
			actor: author,
			req: &CreateBlogRequest{
				Title:   "",
				Content: "This is a test blog.",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"title": "must be provided"}},
		},
		{
			name:  "empty content",
			actor: author,
			req: &CreateBlogRequest{
				Title:   "Test Blog",
				Content: "",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"content": "must be provided"}},
		},
		{
			name:  "tag outside the permitted list",
			actor: author,
			req: &CreateBlogRequest{
				Title:   "Test Blog",
				Content: "This is a test blog.",
				Tags:    []string{"Gardening"},
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"tags": "contains an unsupported tag"}},
		},
		{
			name:  "custom tag too long",
			actor: author,
			req: &CreateBlogRequest{
				Title:      "Test Blog",
				Content:    "This is a test blog.",
				CustomTags: []string{strings.Repeat("x", 21)},
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"custom_tags": "each custom tag must be between 1 and 20 characters long"}},
		},
		{
			name:  "multibyte title at the limit",
			actor: author,
			req: &CreateBlogRequest{
				Title:   strings.Repeat("é", 200),
				Content: "This is a test blog.",
			},
			expectedErr: nil,
		},
		{
			name:  "invalid status",
			actor: author,
			req: &CreateBlogRequest{
				Title:   "Test Blog",
				Content: "This is a test blog.",
				Status:  "archived",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"status": "must be either draft or published"}},
		},
		{
			name:        "anonymous actor",
			actor:       &userservice.AnonymousUser,
			req:         &CreateBlogRequest{Title: "Test Blog", Content: "This is a test blog."},
			expectedErr: userservice.ErrNotPermitted,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			blog, err := s.CreateBlog(context.Background(), tc.actor, tc.req)
			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, StatusDraft, blog.Status)
			assert.Equal(t, tc.req.Content, blog.Excerpt)
			assert.Equal(t, author.ID, blog.Author.ID)
		})
	}
}

func TestCreateBlogDerivesExcerpt(t *testing.T) {
	s, _, author := setupTestEnvironment(t)

	content := strings.Repeat("a", 310)
	blog, err := s.CreateBlog(context.Background(), author, &CreateBlogRequest{
		Title:   "Long Blog",
		Content: content,
	})
	assert.NoError(t, err)
	assert.Len(t, blog.Excerpt, 300)
	assert.True(t, strings.HasSuffix(blog.Excerpt, "..."))
}

func TestGetBlogRegistersView(t *testing.T) {
	s, _, author := setupTestEnvironment(t)

	blog, err := s.CreateBlog(context.Background(), author, &CreateBlogRequest{
		Title:   "Viewed Blog",
		Content: "Content.",
	})
	assert.NoError(t, err)

	got, err := s.GetBlog(context.Background(), blog.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, got.Views)

	got, err = s.GetBlog(context.Background(), blog.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, got.Views)
}

func TestConcurrentViewsAllCount(t *testing.T) {
	s, _, author := setupTestEnvironment(t)

	blog, err := s.CreateBlog(context.Background(), author, &CreateBlogRequest{
		Title:   "Hot Blog",
		Content: "Content.",
	})
	assert.NoError(t, err)

	const readers = 8

	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.GetBlog(context.Background(), blog.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetBlog(context.Background(), blog.ID)
	assert.NoError(t, err)
	assert.Equal(t, readers+1, got.Views)
}

func TestToggleLike(t *testing.T) {
	s, db, author := setupTestEnvironment(t)

	reader, err := setupTestUser(db, "reader", "reader@example.com", userservice.RoleUser)
	assert.NoError(t, err)

	blog, err := s.CreateBlog(context.Background(), author, &CreateBlogRequest{
		Title:   "Likeable Blog",
		Content: "Content.",
	})
	assert.NoError(t, err)

	// like
	result, err := s.ToggleLike(context.Background(), reader, blog.ID)
	assert.NoError(t, err)
	assert.Contains(t, result.Likes, reader.ID)
	assert.Equal(t, len(result.Likes), result.LikesCount)
	assert.Equal(t, 1, result.LikesCount)

	// second user likes
	result, err = s.ToggleLike(context.Background(), author, blog.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, result.LikesCount)
	assert.Equal(t, len(result.Likes), result.LikesCount)

	// unlike
	result, err = s.ToggleLike(context.Background(), reader, blog.ID)
	assert.NoError(t, err)
	assert.NotContains(t, result.Likes, reader.ID)
	assert.Equal(t, 1, result.LikesCount)

	// anonymous cannot like
	_, err = s.ToggleLike(context.Background(), &userservice.AnonymousUser, blog.ID)
	assert.ErrorIs(t, err, userservice.ErrNotPermitted)

	// missing blog
	_, err = s.ToggleLike(context.Background(), reader, uuid.New())
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestConcurrentToggleLikeDistinctUsers(t *testing.T) {
	s, db, author := setupTestEnvironment(t)

	blog, err := s.CreateBlog(context.Background(), author, &CreateBlogRequest{
		Title:   "Popular Blog",
		Content: "Content.",
	})
	assert.NoError(t, err)

	const likers = 8

	users := make([]*userservice.User, likers)
	for i := range users {
		u, err := setupTestUser(db, fmt.Sprintf("liker%d", i), fmt.Sprintf("liker%d@example.com", i), userservice.RoleUser)
		assert.NoError(t, err)
		users[i] = u
	}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u *userservice.User) {
			defer wg.Done()
			_, err := s.ToggleLike(context.Background(), u, blog.ID)
			assert.NoError(t, err)
		}(u)
	}
	wg.Wait()

	// every distinct user's like survives the race and the count matches
	got, err := s.GetBlog(context.Background(), blog.ID)
	assert.NoError(t, err)
	assert.Equal(t, likers, got.LikesCount)
	assert.Len(t, got.Likes, likers)
	for _, u := range users {
		assert.Contains(t, got.Likes, u.ID)
	}
}

func TestUpdateBlogAuthorization(t *testing.T) {
	s, db, author := setupTestEnvironment(t)

	other, err := setupTestUser(db, "other", "other@example.com", userservice.RoleUser)
	assert.NoError(t, err)

	admin, err := setupTestUser(db, "admin", "admin@example.com", userservice.RoleAdmin)
	assert.NoError(t, err)

	blog, err := s.CreateBlog(context.Background(), author, &CreateBlogRequest{
		Title:   "Original Title",
		Content: "Original content.",
	})
	assert.NoError(t, err)

	req := &UpdateBlogRequest{
		ID:      blog.ID,
		Title:   "New Title",
		Content: "New content.",
	}

	_, err = s.UpdateBlog(context.Background(), other, req)
	assert.ErrorIs(t, err, userservice.ErrNotPermitted)

	// content updates are author-only, even for admins
	_, err = s.UpdateBlog(context.Background(), admin, req)
	assert.ErrorIs(t, err, userservice.ErrNotPermitted)

	updated, err := s.UpdateBlog(context.Background(), author, req)
	assert.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, "New content.", updated.Excerpt)
}

func TestDeleteBlogAuthorization(t *testing.T) {
	s, db, author := setupTestEnvironment(t)

	other, err := setupTestUser(db, "other", "other@example.com", userservice.RoleUser)
	assert.NoError(t, err)

	admin, err := setupTestUser(db, "admin", "admin@example.com", userservice.RoleAdmin)
	assert.NoError(t, err)

	blog, err := s.CreateBlog(context.Background(), author, &CreateBlogRequest{
		Title:   "Doomed Blog",
		Content: "Content.",
	})
	assert.NoError(t, err)

	err = s.DeleteBlog(context.Background(), other, blog.ID)
	assert.ErrorIs(t, err, userservice.ErrNotPermitted)

	// admins may delete any blog
	err = s.DeleteBlog(context.Background(), admin, blog.ID)
	assert.NoError(t, err)

	err = s.DeleteBlog(context.Background(), admin, blog.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeleteBlogKeepsComments(t *testing.T) {
	s, db, author := setupTestEnvironment(t)

	blog, err := s.CreateBlog(context.Background(), author, &CreateBlogRequest{
		Title:   "Discussed Blog",
		Content: "Content.",
	})
	assert.NoError(t, err)

	commentID := uuid.New()
	_, err = db.Exec(`INSERT INTO comments (id, content, user_id, blog_id) VALUES ($1, $2, $3, $4)`, commentID, "A comment.", author.ID, blog.ID)
	assert.NoError(t, err)

	err = s.DeleteBlog(context.Background(), author, blog.ID)
	assert.NoError(t, err)

	var blogID sql.NullString
	err = db.QueryRow(`SELECT blog_id FROM comments WHERE id = $1`, commentID).Scan(&blogID)
	assert.NoError(t, err)
	assert.False(t, blogID.Valid, "comment should be detached, not deleted")
}

func TestGetBlogs(t *testing.T) {
	s, db, author := setupTestEnvironment(t)

	seed := []CreateBlogRequest{
		{Title: "Intro to Go", Content: "Concurrency patterns in Go.", Tags: []string{"DevOps"}, Status: StatusPublished},
		{Title: "Python Tips", Content: "Generators and iterators.", Tags: []string{"Python"}, Status: StatusPublished},
		{Title: "Hidden Draft", Content: "Not ready yet.", Tags: []string{"AI"}, Status: StatusDraft},
	}

	for i := range seed {
		_, err := s.CreateBlog(context.Background(), author, &seed[i])
		assert.NoError(t, err)
	}

	t.Run("status filter", func(t *testing.T) {
		blogs, metadata, err := s.GetBlogs(context.Background(), Filters{Status: "published"})
		assert.NoError(t, err)
		assert.Len(t, blogs, 2)
		assert.Equal(t, 2, metadata.Total)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		_, _, err := s.GetBlogs(context.Background(), Filters{Status: "archived"})
		assert.Equal(t, common.ValidationError{Errors: map[string]string{"status": "must be either draft or published"}}, err)
	})

	t.Run("tag overlap filter", func(t *testing.T) {
		blogs, _, err := s.GetBlogs(context.Background(), Filters{Tags: []string{"Python", "DevOps"}})
		assert.NoError(t, err)
		assert.Len(t, blogs, 2)
	})

	t.Run("case-insensitive search over title and content", func(t *testing.T) {
		blogs, _, err := s.GetBlogs(context.Background(), Filters{Search: "CONCURRENCY"})
		assert.NoError(t, err)
		assert.Len(t, blogs, 1)
		assert.Equal(t, "Intro to Go", blogs[0].Title)
	})

	t.Run("content column omitted in listings", func(t *testing.T) {
		blogs, _, err := s.GetBlogs(context.Background(), Filters{})
		assert.NoError(t, err)
		for _, b := range blogs {
			assert.Empty(t, b.Content)
			assert.NotEmpty(t, b.Excerpt)
		}
	})

	t.Run("pagination metadata", func(t *testing.T) {
		blogs, metadata, err := s.GetBlogs(context.Background(), Filters{Page: 1, Limit: 2})
		assert.NoError(t, err)
		assert.Len(t, blogs, 2)
		assert.Equal(t, 3, metadata.Total)
		assert.Equal(t, 2, metadata.Pages)

		blogs, _, err = s.GetBlogs(context.Background(), Filters{Page: 2, Limit: 2})
		assert.NoError(t, err)
		assert.Len(t, blogs, 1)
	})

	t.Run("page beyond the end", func(t *testing.T) {
		blogs, metadata, err := s.GetBlogs(context.Background(), Filters{Page: 10, Limit: 10})
		assert.NoError(t, err)
		assert.Empty(t, blogs)
		assert.Equal(t, 3, metadata.Total)
	})

	t.Run("list items carry likes and comment refs", func(t *testing.T) {
		target, _, err := s.GetBlogs(context.Background(), Filters{Search: "Concurrency"})
		assert.NoError(t, err)
		assert.Len(t, target, 1)

		_, err = s.ToggleLike(context.Background(), author, target[0].ID)
		assert.NoError(t, err)

		commentID := uuid.New()
		_, err = db.Exec(`INSERT INTO comments (id, content, user_id, blog_id) VALUES ($1, $2, $3, $4)`, commentID, "A comment.", author.ID, target[0].ID)
		assert.NoError(t, err)

		blogs, _, err := s.GetBlogs(context.Background(), Filters{})
		assert.NoError(t, err)

		for _, b := range blogs {
			// the membership and reference sets are present on every item,
			// empty rather than absent
			assert.NotNil(t, b.Likes)
			assert.NotNil(t, b.CommentIDs)
			assert.Equal(t, len(b.Likes), b.LikesCount)

			if b.ID == target[0].ID {
				assert.Equal(t, []uuid.UUID{author.ID}, b.Likes)
				assert.Equal(t, 1, b.LikesCount)
				assert.Equal(t, []uuid.UUID{commentID}, b.CommentIDs)
			}
		}
	})
}

func TestGetBlogsByUser(t *testing.T) {
	s, db, author := setupTestEnvironment(t)

	other, err := setupTestUser(db, "other", "other@example.com", userservice.RoleUser)
	assert.NoError(t, err)

	_, err = s.CreateBlog(context.Background(), author, &CreateBlogRequest{Title: "Mine Published", Content: "Content.", Status: StatusPublished})
	assert.NoError(t, err)
	_, err = s.CreateBlog(context.Background(), author, &CreateBlogRequest{Title: "Mine Draft", Content: "Content.", Status: StatusDraft})
	assert.NoError(t, err)
	_, err = s.CreateBlog(context.Background(), other, &CreateBlogRequest{Title: "Theirs", Content: "Content.", Status: StatusPublished})
	assert.NoError(t, err)

	blogs, metadata, err := s.GetBlogsByUser(context.Background(), author.ID, Filters{})
	assert.NoError(t, err)
	assert.Len(t, blogs, 1)
	assert.Equal(t, "Mine Published", blogs[0].Title)
	assert.Equal(t, 1, metadata.Total)
}
