package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/techsphere/techsphere/internal/common"
	"github.com/techsphere/techsphere/internal/userservice"
)

const authCookieName = "token"

func (app *application) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(userservice.AuthTokenTime / time.Second),
		HttpOnly: true,
		Secure:   app.config.Environment == "production",
		SameSite: http.SameSiteStrictMode,
	})
}

func (app *application) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   app.config.Environment == "production",
		SameSite: http.SameSiteStrictMode,
	})
}

type registerUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input registerUserRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user, token, err := app.userService.Register(r.Context(), input.Username, input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrDuplicateEmail):
			app.failedValidationErrorResponse(w, r, map[string]string{"email": "a user with this email address already exists"})
		case errors.Is(err, userservice.ErrDuplicateUsername):
			app.failedValidationErrorResponse(w, r, map[string]string{"username": "this username is already taken"})
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.setAuthCookie(w, token)

	err = app.writeJSON(w, http.StatusCreated, envelope{"user": user, "token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type loginUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input loginUserRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user, token, err := app.userService.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrAuthenticationFailure):
			app.invalidCredentialsErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.setAuthCookie(w, token)

	err = app.writeJSON(w, http.StatusOK, envelope{"user": user, "token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	app.clearAuthCookie(w)

	err := app.writeJSON(w, http.StatusOK, envelope{"message": "user logged out"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	err := app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// profileView is the public shape of a user account. The email address and
// role never leave the service through this endpoint.
type profileView struct {
	ID             string                   `json:"id"`
	Username       string                   `json:"username"`
	ProfilePicture string                   `json:"profile_picture,omitempty"`
	Bio            string                   `json:"bio"`
	SocialLinks    userservice.SocialLinks  `json:"social_links"`
	CreatedAt      time.Time                `json:"created_at"`
}

func (app *application) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readUUIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	user, err := app.userService.GetUserByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	profile := profileView{
		ID:             user.ID.String(),
		Username:       user.Username,
		ProfilePicture: user.ProfilePicture,
		Bio:            user.Bio,
		SocialLinks:    user.SocialLinks,
		CreatedAt:      user.CreatedAt,
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"profile": profile}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	err := r.ParseMultipartForm(maxImageSize)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	image, err := app.readImageUpload(r, "profilePicture")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	req := &userservice.UpdateProfileRequest{
		UserID:   user.ID,
		Username: r.FormValue("username"),
		Bio:      r.FormValue("bio"),
		SocialLinks: userservice.SocialLinks{
			Twitter:  r.FormValue("twitter"),
			GitHub:   r.FormValue("github"),
			LinkedIn: r.FormValue("linkedin"),
			Website:  r.FormValue("website"),
		},
		Image: image,
	}

	updated, err := app.userService.UpdateProfile(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, userservice.ErrDuplicateUsername):
			app.failedValidationErrorResponse(w, r, map[string]string{"username": "this username is already taken"})
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": updated}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (app *application) forgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input forgotPasswordRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.userService.ForgotPassword(r.Context(), input.Email)
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

	err = app.writeJSON(w, http.StatusAccepted, envelope{"message": "an email will be sent if an account with that address exists"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (app *application) resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input resetPasswordRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.userService.ResetPassword(r.Context(), input.Token, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrInvalidToken):
			app.failedValidationErrorResponse(w, r, map[string]string{"token": "invalid or expired password reset token"})
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "password has been reset"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}
