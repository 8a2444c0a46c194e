package service

import (
	"context"
	"errors"
	"strings"

	"videotube/internal/apperr"
	"videotube/internal/auth"
	"videotube/internal/db"
	"videotube/internal/media"
	"videotube/internal/models"
	"videotube/internal/query"
	"videotube/internal/store"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService manages accounts and their channel-facing views.
type UserService struct {
	accounts AccountRepo
	views    Viewer
	media    media.Storage
}

func NewUserService(accounts AccountRepo, views Viewer, storage media.Storage) *UserService {
	return &UserService{accounts: accounts, views: views, media: storage}
}

// RegisterInput is a registration form. Cover is optional.
type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string
	Avatar   *media.LocalFile
	Cover    *media.LocalFile
}

// Register creates an account after storing its images. Images already
// stored are deleted again when a later step fails.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	in.FullName = trimmed(in.FullName)
	in.Email = strings.ToLower(trimmed(in.Email))
	in.Username = strings.ToLower(trimmed(in.Username))
	if in.FullName == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return nil, apperr.NewBadRequest("all fields are required")
	}
	if !strings.Contains(in.Email, "@") {
		return nil, apperr.NewBadRequest("invalid email")
	}
	if in.Avatar == nil {
		return nil, apperr.NewBadRequest("avatar file is required")
	}

	exists, err := s.accounts.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, apperr.NewInternal("failed to check existing users", err)
	}
	if exists {
		return nil, apperr.NewConflict("user with email or username already exists")
	}

	avatar, err := s.media.Upload(ctx, *in.Avatar)
	if err != nil {
		return nil, apperr.NewInternal("failed to upload avatar", err)
	}
	uploaded := []string{avatar.URL}

	var coverURL string
	if in.Cover != nil {
		cover, err := s.media.Upload(ctx, *in.Cover)
		if err != nil {
			s.release(ctx, uploaded...)
			return nil, apperr.NewInternal("failed to upload cover image", err)
		}
		coverURL = cover.URL
		uploaded = append(uploaded, cover.URL)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.release(ctx, uploaded...)
		return nil, apperr.NewInternal("failed to hash password", err)
	}
	acc := &models.Account{
		Username:   in.Username,
		Email:      in.Email,
		FullName:   in.FullName,
		Avatar:     avatar.URL,
		CoverImage: coverURL,
		Password:   hash,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		s.release(ctx, uploaded...)
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.NewConflict("user with email or username already exists")
		}
		return nil, apperr.NewInternal("failed to register user", err)
	}
	return sanitize(acc), nil
}

func (s *UserService) CurrentUser(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, ErrUserNotFound, "failed to load user")
	}
	return sanitize(acc), nil
}

// ChangePassword replaces the password after verifying the old one.
func (s *UserService) ChangePassword(ctx context.Context, id primitive.ObjectID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.NewBadRequest("old and new password are required")
	}
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return classify(err, ErrUserNotFound, "failed to load user")
	}
	if !auth.VerifyPassword(acc.Password, oldPassword) {
		return apperr.NewBadRequest("invalid old password")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperr.NewInternal("failed to hash password", err)
	}
	return classify(s.accounts.UpdatePassword(ctx, id, hash), ErrUserNotFound, "failed to update password")
}

func (s *UserService) UpdateDetails(ctx context.Context, id primitive.ObjectID, fullName, email string) (*models.Account, error) {
	fullName = trimmed(fullName)
	email = strings.ToLower(trimmed(email))
	if fullName == "" || email == "" {
		return nil, apperr.NewBadRequest("all fields are required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperr.NewBadRequest("invalid email")
	}
	acc, err := s.accounts.UpdateDetails(ctx, id, fullName, email)
	if errors.Is(err, store.ErrConflict) {
		return nil, apperr.NewConflict("email already in use")
	}
	if err != nil {
		return nil, classify(err, ErrUserNotFound, "failed to update account details")
	}
	return sanitize(acc), nil
}

// Image fields an account can replace.
const (
	ImageAvatar = "avatar"
	ImageCover  = "coverImage"
)

// UpdateImage stores file as the account's avatar or cover and deletes the
// asset it replaces.
func (s *UserService) UpdateImage(ctx context.Context, id primitive.ObjectID, field string, file *media.LocalFile) (*models.Account, error) {
	if field != ImageAvatar && field != ImageCover {
		return nil, apperr.NewBadRequest("unknown image field")
	}
	if file == nil {
		return nil, apperr.NewBadRequest(field + " file is missing")
	}
	asset, err := s.media.Upload(ctx, *file)
	if err != nil {
		return nil, apperr.NewInternal("failed to upload "+field, err)
	}
	before, err := s.accounts.SetImage(ctx, id, field, asset.URL)
	if err != nil {
		s.release(ctx, asset.URL)
		return nil, classify(err, ErrUserNotFound, "failed to update "+field)
	}

	after := *before
	if field == ImageAvatar {
		s.release(ctx, before.Avatar)
		after.Avatar = asset.URL
	} else {
		s.release(ctx, before.CoverImage)
		after.CoverImage = asset.URL
	}
	return sanitize(&after), nil
}

// ChannelProfile resolves a channel by username as seen by viewer.
func (s *UserService) ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (*models.ChannelProfile, error) {
	if trimmed(username) == "" {
		return nil, apperr.NewBadRequest("username is missing")
	}
	var out []models.ChannelProfile
	if err := s.views.Aggregate(ctx, db.Users, query.ChannelProfile(username, viewer), &out); err != nil {
		return nil, apperr.NewInternal("failed to load channel", err)
	}
	if len(out) == 0 {
		return nil, ErrChannelNotFound
	}
	return &out[0], nil
}

// WatchHistory lists watched videos, most recent first.
func (s *UserService) WatchHistory(ctx context.Context, id primitive.ObjectID) ([]models.VideoView, error) {
	var out []struct {
		WatchHistory []models.VideoView `bson:"watchHistory"`
	}
	if err := s.views.Aggregate(ctx, db.Users, query.WatchHistory(id), &out); err != nil {
		return nil, apperr.NewInternal("failed to load watch history", err)
	}
	if len(out) == 0 {
		return nil, ErrUserNotFound
	}
	if out[0].WatchHistory == nil {
		return []models.VideoView{}, nil
	}
	return out[0].WatchHistory, nil
}

// release deletes stored assets on a best-effort basis.
func (s *UserService) release(ctx context.Context, urls ...string) {
	releaseAssets(ctx, s.media, urls...)
}

func releaseAssets(ctx context.Context, storage media.Storage, urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := storage.Delete(ctx, u); err != nil {
			log.Warn().Err(err).Str("url", u).Msg("release media asset")
		}
	}
}

func sanitize(a *models.Account) *models.Account {
	cp := *a
	cp.Password, cp.RefreshToken = "", ""
	return &cp
}
