package service

import (
	"context"

	"videotube/internal/apperr"
	"videotube/internal/db"
	"videotube/internal/media"
	"videotube/internal/models"
	"videotube/internal/query"
	"videotube/internal/store"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VideoService publishes, serves and removes videos.
type VideoService struct {
	videos    VideoRepo
	comments  CommentRepo
	likes     LikeRepo
	playlists PlaylistRepo
	accounts  AccountRepo
	views     Viewer
	media     media.Storage
}

func NewVideoService(videos VideoRepo, comments CommentRepo, likes LikeRepo, playlists PlaylistRepo,
	accounts AccountRepo, views Viewer, storage media.Storage) *VideoService {
	return &VideoService{
		videos:    videos,
		comments:  comments,
		likes:     likes,
		playlists: playlists,
		accounts:  accounts,
		views:     views,
		media:     storage,
	}
}

// FeedInput carries the raw query parameters of the public feed.
type FeedInput struct {
	Page     string
	Limit    string
	Query    string
	SortBy   string
	SortType string
	UserID   string
}

// Feed pages through published videos. An empty page is not an error.
func (s *VideoService) Feed(ctx context.Context, in FeedInput) ([]models.VideoView, error) {
	pg, err := query.ParsePage(in.Page, in.Limit)
	if err != nil {
		return nil, err
	}
	order, err := query.ParseSort(in.SortBy, in.SortType)
	if err != nil {
		return nil, err
	}
	filter := query.VideoFilter{Search: in.Query}
	if trimmed(in.UserID) != "" {
		if filter.Owner, err = ParseID(in.UserID, "user"); err != nil {
			return nil, err
		}
	}
	out := []models.VideoView{}
	if err := s.views.Aggregate(ctx, db.Videos, query.VideoFeed(filter, order, pg), &out); err != nil {
		return nil, apperr.NewInternal("failed to load videos", err)
	}
	return out, nil
}

// PublishInput is an upload form; both files are required.
type PublishInput struct {
	Title       string
	Description string
	Video       *media.LocalFile
	Thumbnail   *media.LocalFile
}

// Publish stores the media and creates the video. No record is written when an
// upload fails, and media already stored is deleted again.
func (s *VideoService) Publish(ctx context.Context, owner primitive.ObjectID, in PublishInput) (*models.Video, error) {
	in.Title, in.Description = trimmed(in.Title), trimmed(in.Description)
	if in.Title == "" || in.Description == "" {
		return nil, apperr.NewBadRequest("title and description are required")
	}
	if in.Video == nil {
		return nil, apperr.NewBadRequest("video file is required")
	}
	if in.Thumbnail == nil {
		return nil, apperr.NewBadRequest("thumbnail is required")
	}

	file, err := s.media.Upload(ctx, *in.Video)
	if err != nil {
		return nil, apperr.NewInternal("failed to upload video", err)
	}
	thumb, err := s.media.Upload(ctx, *in.Thumbnail)
	if err != nil {
		releaseAssets(ctx, s.media, file.URL)
		return nil, apperr.NewInternal("failed to upload thumbnail", err)
	}

	v := &models.Video{
		VideoFile:   file.URL,
		Thumbnail:   thumb.URL,
		Title:       in.Title,
		Description: in.Description,
		Duration:    file.Duration,
		IsPublished: true,
		Owner:       owner,
	}
	if err := s.videos.Create(ctx, v); err != nil {
		releaseAssets(ctx, s.media, file.URL, thumb.URL)
		return nil, apperr.NewInternal("failed to save video", err)
	}
	return v, nil
}

// Get returns a video with its owner. Unpublished videos are only visible to
// their owner. A read counts as a view and lands in the viewer's history.
func (s *VideoService) Get(ctx context.Context, videoID string, viewer primitive.ObjectID) (*models.VideoView, error) {
	id, err := ParseID(videoID, "video")
	if err != nil {
		return nil, err
	}
	var out []models.VideoView
	if err := s.views.Aggregate(ctx, db.Videos, query.VideoDetail(id), &out); err != nil {
		return nil, apperr.NewInternal("failed to load video", err)
	}
	if len(out) == 0 {
		return nil, ErrVideoNotFound
	}
	v := out[0]
	if !v.IsPublished && (v.Owner == nil || v.Owner.ID != viewer) {
		return nil, ErrVideoNotFound
	}

	if err := s.videos.IncrementViews(ctx, id); err != nil {
		log.Warn().Err(err).Str("video", id.Hex()).Msg("increment views")
	} else {
		v.Views++
	}
	if !viewer.IsZero() {
		if err := s.accounts.RecordWatch(ctx, viewer, id); err != nil {
			log.Warn().Err(err).Str("video", id.Hex()).Msg("record watch history")
		}
	}
	return &v, nil
}

// UpdateVideoInput changes title, description and optionally the thumbnail.
type UpdateVideoInput struct {
	Title       *string
	Description *string
	Thumbnail   *media.LocalFile
}

func (s *VideoService) Update(ctx context.Context, requester primitive.ObjectID, videoID string, in UpdateVideoInput) (*models.Video, error) {
	id, err := ParseID(videoID, "video")
	if err != nil {
		return nil, err
	}
	patch := store.VideoPatch{}
	if in.Title != nil {
		t := trimmed(*in.Title)
		if t == "" {
			return nil, apperr.NewBadRequest("title cannot be empty")
		}
		patch.Title = &t
	}
	if in.Description != nil {
		d := trimmed(*in.Description)
		if d == "" {
			return nil, apperr.NewBadRequest("description cannot be empty")
		}
		patch.Description = &d
	}
	if patch.Title == nil && patch.Description == nil && in.Thumbnail == nil {
		return nil, apperr.NewBadRequest("nothing to update")
	}

	if err := s.authorize(ctx, id, requester); err != nil {
		return nil, err
	}

	if in.Thumbnail != nil {
		thumb, err := s.media.Upload(ctx, *in.Thumbnail)
		if err != nil {
			return nil, apperr.NewInternal("failed to upload thumbnail", err)
		}
		patch.Thumbnail = &thumb.URL
	}

	before, err := s.videos.UpdateOwned(ctx, id, requester, patch)
	if err != nil {
		if patch.Thumbnail != nil {
			releaseAssets(ctx, s.media, *patch.Thumbnail)
		}
		return nil, classify(err, ErrVideoNotFound, "failed to update video")
	}

	after := *before
	if patch.Title != nil {
		after.Title = *patch.Title
	}
	if patch.Description != nil {
		after.Description = *patch.Description
	}
	if patch.Thumbnail != nil {
		releaseAssets(ctx, s.media, before.Thumbnail)
		after.Thumbnail = *patch.Thumbnail
	}
	return &after, nil
}

// Delete removes an owned video together with its comments, their likes, the
// video's likes, its playlist entries and its media.
func (s *VideoService) Delete(ctx context.Context, requester primitive.ObjectID, videoID string) error {
	id, err := ParseID(videoID, "video")
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, id, requester); err != nil {
		return err
	}
	v, err := s.videos.DeleteOwned(ctx, id, requester)
	if err != nil {
		return classify(err, ErrVideoNotFound, "failed to delete video")
	}

	commentIDs, err := s.comments.DeleteByVideo(ctx, id)
	if err != nil {
		return apperr.NewInternal("failed to delete video comments", err)
	}
	if err := s.likes.DeleteForTargets(ctx, store.TargetComment, commentIDs...); err != nil {
		return apperr.NewInternal("failed to delete comment likes", err)
	}
	if err := s.likes.DeleteForTargets(ctx, store.TargetVideo, id); err != nil {
		return apperr.NewInternal("failed to delete video likes", err)
	}
	if err := s.playlists.PullVideo(ctx, id); err != nil {
		return apperr.NewInternal("failed to remove video from playlists", err)
	}
	releaseAssets(ctx, s.media, v.VideoFile, v.Thumbnail)
	return nil
}

// TogglePublish flips the published flag of an owned video.
func (s *VideoService) TogglePublish(ctx context.Context, requester primitive.ObjectID, videoID string) (*models.Video, error) {
	id, err := ParseID(videoID, "video")
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, id, requester); err != nil {
		return nil, err
	}
	v, err := s.videos.TogglePublishOwned(ctx, id, requester)
	if err != nil {
		return nil, classify(err, ErrVideoNotFound, "failed to toggle publish status")
	}
	return v, nil
}

// authorize fetches the video and checks that requester owns it.
func (s *VideoService) authorize(ctx context.Context, id, requester primitive.ObjectID) error {
	v, err := s.videos.FindByID(ctx, id)
	if err != nil {
		return classify(err, ErrVideoNotFound, "failed to load video")
	}
	return requireOwner(v.Owner, requester, "video")
}
