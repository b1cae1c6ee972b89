package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/techsphere/techsphere/internal/blogservice"
	"github.com/techsphere/techsphere/internal/common"
	"github.com/techsphere/techsphere/internal/userservice"
)

// readBlogForm decodes the multipart fields shared by the create and update
// endpoints. Tag lists arrive as JSON array strings alongside the file part.
func (app *application) readBlogForm(r *http.Request) (title, content, excerpt string, tags, customTags []string, status string, image *common.ImageUpload, err error) {
	err = r.ParseMultipartForm(maxImageSize)
	if err != nil {
		return
	}

	image, err = app.readImageUpload(r, "featuredImage")
	if err != nil {
		return
	}

	tags, err = blogservice.ParseTags(r.FormValue("tags"))
	if err != nil {
		return
	}

	customTags, err = blogservice.ParseTags(r.FormValue("custom_tags"))
	if err != nil {
		return
	}

	title = r.FormValue("title")
	content = r.FormValue("content")
	excerpt = r.FormValue("excerpt")
	status = r.FormValue("status")
	return
}

func (app *application) createBlogHandler(w http.ResponseWriter, r *http.Request) {
	title, content, excerpt, tags, customTags, status, image, err := app.readBlogForm(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	req := &blogservice.CreateBlogRequest{
		Title:      title,
		Content:    content,
		Excerpt:    excerpt,
		Tags:       tags,
		CustomTags: customTags,
		Status:     blogservice.Status(status),
		Image:      image,
	}

	blog, err := app.blogService.CreateBlog(r.Context(), user, req)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		case errors.Is(err, userservice.ErrNotPermitted):
			app.unAuthorizedErrorResponse(w, r)
		case errors.Is(err, blogservice.ErrUserForeignKey):
			app.unAuthorizedErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"blog": blog}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) getBlogHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readUUIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	blog, err := app.blogService.GetBlog(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blog": blog}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) updateBlogHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readUUIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	title, content, _, tags, customTags, status, image, err := app.readBlogForm(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	req := &blogservice.UpdateBlogRequest{
		ID:         id,
		Title:      title,
		Content:    content,
		Tags:       tags,
		CustomTags: customTags,
		Status:     blogservice.Status(status),
		Image:      image,
	}

	blog, err := app.blogService.UpdateBlog(r.Context(), user, req)
	if err != nil {
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, userservice.ErrNotPermitted):
			app.unAuthorizedErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blog": blog}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) deleteBlogHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readUUIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	user := app.getUserContext(r)

	err = app.blogService.DeleteBlog(r.Context(), user, id)
	if err != nil {
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, userservice.ErrNotPermitted):
			app.unAuthorizedErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "blog deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) toggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readUUIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	user := app.getUserContext(r)

	result, err := app.blogService.ToggleLike(r.Context(), user, id)
	if err != nil {
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, userservice.ErrNotPermitted):
			app.unAuthorizedErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"likes": result.Likes, "likes_count": result.LikesCount}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) getAllBlogsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPageLimitParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	params := r.URL.Query()

	var tags []string
	if params.Get("tags") != "" {
		tags = strings.Split(params.Get("tags"), ",")
	}

	f := blogservice.Filters{
		Page:   page,
		Limit:  limit,
		Status: params.Get("status"),
		Tags:   tags,
		Search: params.Get("search"),
	}

	blogs, metadata, err := app.blogService.GetBlogs(r.Context(), f)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blogs": blogs, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) getBlogsByUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readUUIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	page, limit, err := app.readPageLimitParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blogs, metadata, err := app.blogService.GetBlogsByUser(r.Context(), id, blogservice.Filters{Page: page, Limit: limit})
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blogs": blogs, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}
