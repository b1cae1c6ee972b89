package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/techsphere/techsphere/internal/common"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("unauthorized access")
	ErrAssetUpload           = errors.New("could not store profile picture")
)

type AssetStore = common.AssetStore

func NewUserService(db *sql.DB, mb common.MessageProducer, assets AssetStore, secret string, logger *slog.Logger) *UserService {
	return &UserService{
		m:      newUserModel(db),
		mb:     mb,
		assets: assets,
		secret: []byte(secret),
		logger: logger,
	}
}

// Register creates a new user account and signs an auth token for it.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*User, string, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, "", v.ValidationError()
	}

	u := User{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
		Password: Password{Plain: password},
	}

	err := u.Password.set(u.Password.Plain)
	if err != nil {
		return nil, "", err
	}

	err = s.m.insertUser(ctx, &u)
	if err != nil {
		return nil, "", err
	}

	token, err := signAuthToken(u.ID, s.secret)
	if err != nil {
		return nil, "", err
	}

	return &u, token, nil
}

// Login verifies the credentials and signs an auth token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*User, string, error) {
	v := common.NewValidator()
	validateEmail(v, email)
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, "", v.ValidationError()
	}

	user, err := s.m.getUserByEmail(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, "", ErrAuthenticationFailure
		default:
			return nil, "", err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", ErrAuthenticationFailure
	}

	token, err := signAuthToken(user.ID, s.secret)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetUserByAuthToken resolves the acting identity for a request credential.
func (s *UserService) GetUserByAuthToken(ctx context.Context, tokenString string) (*User, error) {
	id, err := parseAuthToken(tokenString, s.secret)
	if err != nil {
		return nil, err
	}

	return s.m.getUserByID(ctx, id)
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.m.getUserByID(ctx, id)
}

type UpdateProfileRequest struct {
	UserID      uuid.UUID
	Username    string
	Bio         string
	SocialLinks SocialLinks
	Image       *common.ImageUpload
}

// UpdateProfile updates the profile fields and, when an image part is present,
// replaces the profile picture. Unlike blog creation, a failed picture upload
// fails the whole update. The previous picture is cleaned up asynchronously.
func (s *UserService) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*User, error) {
	v := common.NewValidator()
	validateUsername(v, req.Username)
	validateBio(v, req.Bio)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	oldPicture := user.ProfilePicture

	if req.Image != nil {
		url, err := s.assets.Upload(ctx, "user-profile", req.Image.Data, req.Image.ContentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAssetUpload, err)
		}
		user.ProfilePicture = url
	}

	user.Username = req.Username
	user.Bio = req.Bio
	user.SocialLinks = req.SocialLinks

	err = s.m.updateProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	if req.Image != nil && oldPicture != "" {
		s.scheduleAssetCleanup(ctx, oldPicture)
	}

	return user, nil
}

// scheduleAssetCleanup hands an orphaned object key to the cleanup queue. The
// result is logged and discarded: cleanup never fails the owning mutation.
func (s *UserService) scheduleAssetCleanup(ctx context.Context, url string) {
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

// ForgotPassword issues a reset token and publishes a password reset event for
// the mail consumer. A missing account is reported as success so the endpoint
// cannot be used to enumerate accounts.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	v := common.NewValidator()
	validateEmail(v, email)
	if !v.Valid() {
		return v.ValidationError()
	}

	user, err := s.m.getUserByEmail(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil
		default:
			return err
		}
	}

	token, err := s.m.createToken(ctx, user.ID, PasswordResetTokenTime, TokenScopePasswordReset)
	if err != nil {
		return err
	}

	data := struct {
		Email string
		Token string
	}{
		Email: user.Email,
		Token: token.Plain,
	}

	emailData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.mb.Publish(ctx, emailData, common.PasswordResetKey, common.UserExchange)
}

// ResetPassword consumes a reset token and replaces the password. All reset
// tokens for the user are invalidated afterwards.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	v := common.NewValidator()
	ValidateToken(v, token)
	validatePassword(v, password)
	if !v.Valid() {
		return v.ValidationError()
	}

	user, err := s.m.getUserByToken(ctx, TokenScopePasswordReset, hashToken(token))
	if err != nil {
		return err
	}

	if err := user.Password.set(password); err != nil {
		return err
	}

	if err := s.m.updateUserPassword(ctx, user.Password, user.ID); err != nil {
		return err
	}

	return s.m.deleteTokens(ctx, user.ID, TokenScopePasswordReset)
}
