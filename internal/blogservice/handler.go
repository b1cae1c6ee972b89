package blogservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/techsphere/techsphere/internal/common"
	"github.com/techsphere/techsphere/internal/userservice"
)

func NewBlogService(db *sql.DB, mb common.MessageProducer, assets common.AssetStore, logger *slog.Logger) *BlogService {
	return &BlogService{m: newBlogModel(db), mb: mb, assets: assets, logger: logger}
}

type CreateBlogRequest struct {
	Title      string
	Content    string
	Excerpt    string
	Tags       []string
	CustomTags []string
	Status     Status
	Image      *common.ImageUpload
}

// CreateBlog creates a blog for the acting user, deriving the excerpt from
// the content when none is supplied. A failed featured-image upload is logged
// and the blog is created without one: image loss is not worth losing the
// post over. This is deliberately weaker than the update path.
func (s *BlogService) CreateBlog(ctx context.Context, actor *userservice.User, req *CreateBlogRequest) (*Blog, error) {
	if actor.IsAnonymous() {
		return nil, userservice.ErrNotPermitted
	}

	if req.Status == "" {
		req.Status = StatusDraft
	}

	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateTags(v, req.Tags)
	validateCustomTags(v, req.CustomTags)
	validateStatus(v, req.Status)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog := &Blog{
		ID:         uuid.New(),
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    deriveExcerpt(req.Excerpt, req.Content),
		Author:     Author{ID: actor.ID, Username: actor.Username, ProfilePicture: actor.ProfilePicture},
		Tags:       req.Tags,
		CustomTags: req.CustomTags,
		Status:     req.Status,
		Likes:      []uuid.UUID{},
	}

	if req.Image != nil {
		url, err := s.assets.Upload(ctx, "featured-images", req.Image.Data, req.Image.ContentType)
		if err != nil {
			s.logger.Error("featured image upload failed, creating blog without image", slog.String("error", err.Error()))
		} else {
			blog.FeaturedImage = url
		}
	}

	if err := s.m.insert(ctx, blog); err != nil {
		return nil, err
	}

	return blog, nil
}

// GetBlog returns the full aggregate and registers one view. The increment is
// a separate atomic statement, so interleaved readers each count.
func (s *BlogService) GetBlog(ctx context.Context, id uuid.UUID) (*Blog, error) {
	if err := s.m.registerView(ctx, id); err != nil {
		return nil, err
	}

	return s.m.getBlogByID(ctx, id)
}

type UpdateBlogRequest struct {
	ID         uuid.UUID
	Title      string
	Content    string
	Tags       []string
	CustomTags []string
	Status     Status
	Image      *common.ImageUpload
}

// UpdateBlog replaces the blog content. Only the author may update; a new
// featured image must upload successfully, and the replaced image is handed
// to the cleanup queue afterwards.
func (s *BlogService) UpdateBlog(ctx context.Context, actor *userservice.User, req *UpdateBlogRequest) (*Blog, error) {
	blog, err := s.m.getBlogByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if err := actor.CanModifyOwn(blog.Author.ID); err != nil {
		return nil, err
	}

	if req.Status == "" {
		req.Status = blog.Status
	}

	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateTags(v, req.Tags)
	validateCustomTags(v, req.CustomTags)
	validateStatus(v, req.Status)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	oldImage := blog.FeaturedImage

	if req.Image != nil {
		url, err := s.assets.Upload(ctx, "featured-images", req.Image.Data, req.Image.ContentType)
		if err != nil {
			return nil, err
		}
		blog.FeaturedImage = url
	}

	blog.Title = req.Title
	blog.Content = req.Content
	blog.Excerpt = deriveExcerpt("", req.Content)
	blog.Tags = req.Tags
	blog.CustomTags = req.CustomTags
	blog.Status = req.Status

	if err := s.m.updateBlog(ctx, blog); err != nil {
		return nil, err
	}

	if req.Image != nil && oldImage != "" {
		s.scheduleAssetCleanup(ctx, oldImage)
	}

	return blog, nil
}

// DeleteBlog removes the blog. The author or an admin may delete. Comments
// are not cascaded: their rows stay reachable by id with the blog join gone.
func (s *BlogService) DeleteBlog(ctx context.Context, actor *userservice.User, id uuid.UUID) error {
	blog, err := s.m.getBlogByID(ctx, id)
	if err != nil {
		return err
	}

	if err := actor.CanModify(blog.Author.ID); err != nil {
		return err
	}

	if blog.FeaturedImage != "" {
		s.scheduleAssetCleanup(ctx, blog.FeaturedImage)
	}

	return s.m.deleteBlog(ctx, id)
}

// ToggleLike flips the acting user's like on the blog and returns the
// resulting membership and derived count.
func (s *BlogService) ToggleLike(ctx context.Context, actor *userservice.User, blogID uuid.UUID) (*LikeResult, error) {
	if actor.IsAnonymous() {
		return nil, userservice.ErrNotPermitted
	}

	return s.m.toggleLike(ctx, blogID, actor.ID)
}

// GetBlogs returns the filtered, paginated listing, newest first.
func (s *BlogService) GetBlogs(ctx context.Context, f Filters) ([]Blog, common.Metadata, error) {
	normalizeFilters(&f)

	if f.Status != "" {
		v := common.NewValidator()
		validateStatus(v, Status(f.Status))
		if !v.Valid() {
			return nil, common.Metadata{}, v.ValidationError()
		}
	}

	return s.m.getBlogs(ctx, f)
}

// GetBlogsByUser lists a user's published blogs for the public profile view.
func (s *BlogService) GetBlogsByUser(ctx context.Context, userID uuid.UUID, f Filters) ([]Blog, common.Metadata, error) {
	normalizeFilters(&f)
	f.AuthorID = userID
	f.Status = string(StatusPublished)

	return s.m.getBlogs(ctx, f)
}

func normalizeFilters(f *Filters) {
	if f.Page < 1 {
		f.Page = 1
	}

	if f.Limit < 1 {
		f.Limit = 10
	}
}

func (s *BlogService) scheduleAssetCleanup(ctx context.Context, url string) {
	key := s.assets.KeyFromURL(url)
	if key == "" {
		return
	}

	msg, err := json.Marshal(struct{ Key string }{Key: key})
	if err != nil {
		s.logger.Error("could not marshal cleanup message", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	if err := s.mb.Publish(ctx, msg, common.AssetCleanupKey, common.AssetExchange); err != nil {
		s.logger.Error("could not schedule asset cleanup", slog.String("key", key), slog.String("error", err.Error()))
	}
}
