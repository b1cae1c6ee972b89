package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/logout", app.requireAuthUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/me", app.requireAuthUser(app.getCurrentUserHandler))
	router.HandlerFunc(http.MethodPut, "/v1/users/profile", app.requireAuthUser(app.updateProfileHandler))
	router.HandlerFunc(http.MethodPost, "/v1/users/forgot-password", app.forgotPasswordHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/reset-password", app.resetPasswordHandler)

	// public profiles
	router.HandlerFunc(http.MethodGet, "/v1/profiles/:id", app.getProfileHandler)
	router.HandlerFunc(http.MethodGet, "/v1/profiles/:id/blogs", app.getBlogsByUserHandler)
	router.HandlerFunc(http.MethodGet, "/v1/profiles/:id/comments", app.getCommentsByUserHandler)

	// blog service
	router.HandlerFunc(http.MethodGet, "/v1/blogs", app.getAllBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs", app.requireAuthUser(app.createBlogHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id", app.getBlogHandler)
	router.HandlerFunc(http.MethodPut, "/v1/blogs/:id", app.requireAuthUser(app.updateBlogHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id", app.requireAuthUser(app.deleteBlogHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/like", app.requireAuthUser(app.toggleLikeHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/comments", app.getBlogCommentsHandler)

	// comment service
	router.HandlerFunc(http.MethodPost, "/v1/comments", app.requireAuthUser(app.createCommentHandler))
	router.HandlerFunc(http.MethodGet, "/v1/comments/:id", app.getCommentHandler)
	router.HandlerFunc(http.MethodPut, "/v1/comments/:id", app.requireAuthUser(app.updateCommentHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/comments/:id", app.requireAuthUser(app.deleteCommentHandler))

	// ai service
	router.HandlerFunc(http.MethodPost, "/v1/ai/explain", app.explainHandler)

	return app.recoverPanic(app.rateLimit(app.logRequest(app.authenticate(router))))
}
