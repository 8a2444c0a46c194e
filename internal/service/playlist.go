package service

import (
	"context"
	"errors"

	"videotube/internal/apperr"
	"videotube/internal/db"
	"videotube/internal/models"
	"videotube/internal/query"
	"videotube/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errDuplicatePlaylist = apperr.NewConflict("playlist with this name already exists")

// PlaylistService manages ordered, owner-only video lists.
type PlaylistService struct {
	playlists PlaylistRepo
	videos    VideoRepo
	accounts  AccountRepo
	views     Viewer
}

func NewPlaylistService(playlists PlaylistRepo, videos VideoRepo, accounts AccountRepo, views Viewer) *PlaylistService {
	return &PlaylistService{playlists: playlists, videos: videos, accounts: accounts, views: views}
}

func (s *PlaylistService) Create(ctx context.Context, owner primitive.ObjectID, name, description string) (*models.Playlist, error) {
	name = trimmed(name)
	if name == "" {
		return nil, apperr.NewBadRequest("playlist name is required")
	}
	p := &models.Playlist{Name: name, Description: trimmed(description), Owner: owner}
	if err := s.playlists.Create(ctx, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, errDuplicatePlaylist
		}
		return nil, apperr.NewInternal("failed to create playlist", err)
	}
	return p, nil
}

// Get resolves a playlist with its owner and videos in stored order.
func (s *PlaylistService) Get(ctx context.Context, playlistID string) (*models.PlaylistDetail, error) {
	id, err := ParseID(playlistID, "playlist")
	if err != nil {
		return nil, err
	}
	var out []models.PlaylistDetail
	if err := s.views.Aggregate(ctx, db.Playlists, query.PlaylistDetail(id), &out); err != nil {
		return nil, apperr.NewInternal("failed to load playlist", err)
	}
	if len(out) == 0 {
		return nil, ErrPlaylistNotFound
	}
	if out[0].Videos == nil {
		out[0].Videos = []models.VideoView{}
	}
	return &out[0], nil
}

// ListByUser lists a user's playlists; a user without playlists gets an empty list.
func (s *PlaylistService) ListByUser(ctx context.Context, userID string) ([]models.PlaylistSummary, error) {
	id, err := ParseID(userID, "user")
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.FindByID(ctx, id); err != nil {
		return nil, classify(err, ErrUserNotFound, "failed to load user")
	}
	out := []models.PlaylistSummary{}
	if err := s.views.Aggregate(ctx, db.Playlists, query.UserPlaylists(id), &out); err != nil {
		return nil, apperr.NewInternal("failed to load playlists", err)
	}
	return out, nil
}

func (s *PlaylistService) AddVideo(ctx context.Context, requester primitive.ObjectID, playlistID, videoID string) (*models.Playlist, error) {
	pid, vid, err := parsePair(playlistID, videoID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, pid, requester); err != nil {
		return nil, err
	}
	if _, err := s.videos.FindByID(ctx, vid); err != nil {
		return nil, classify(err, ErrVideoNotFound, "failed to load video")
	}
	p, err := s.playlists.AddVideo(ctx, pid, requester, vid)
	if errors.Is(err, store.ErrConflict) {
		return nil, apperr.NewBadRequest("video already exists in playlist")
	}
	if err != nil {
		return nil, classify(err, ErrPlaylistNotFound, "failed to add video to playlist")
	}
	return p, nil
}

func (s *PlaylistService) RemoveVideo(ctx context.Context, requester primitive.ObjectID, playlistID, videoID string) (*models.Playlist, error) {
	pid, vid, err := parsePair(playlistID, videoID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, pid, requester); err != nil {
		return nil, err
	}
	p, err := s.playlists.RemoveVideo(ctx, pid, requester, vid)
	if errors.Is(err, store.ErrConflict) {
		return nil, apperr.NewBadRequest("video not found in playlist")
	}
	if err != nil {
		return nil, classify(err, ErrPlaylistNotFound, "failed to remove video from playlist")
	}
	return p, nil
}

func (s *PlaylistService) Update(ctx context.Context, requester primitive.ObjectID, playlistID, name, description string) (*models.Playlist, error) {
	id, err := ParseID(playlistID, "playlist")
	if err != nil {
		return nil, err
	}
	name = trimmed(name)
	if name == "" {
		return nil, apperr.NewBadRequest("playlist name is required")
	}
	if err := s.authorize(ctx, id, requester); err != nil {
		return nil, err
	}
	p, err := s.playlists.UpdateOwned(ctx, id, requester, name, trimmed(description))
	if errors.Is(err, store.ErrConflict) {
		return nil, errDuplicatePlaylist
	}
	if err != nil {
		return nil, classify(err, ErrPlaylistNotFound, "failed to update playlist")
	}
	return p, nil
}

func (s *PlaylistService) Delete(ctx context.Context, requester primitive.ObjectID, playlistID string) error {
	id, err := ParseID(playlistID, "playlist")
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, id, requester); err != nil {
		return err
	}
	if _, err := s.playlists.DeleteOwned(ctx, id, requester); err != nil {
		return classify(err, ErrPlaylistNotFound, "failed to delete playlist")
	}
	return nil
}

func (s *PlaylistService) authorize(ctx context.Context, id, requester primitive.ObjectID) error {
	p, err := s.playlists.FindByID(ctx, id)
	if err != nil {
		return classify(err, ErrPlaylistNotFound, "failed to load playlist")
	}
	return requireOwner(p.Owner, requester, "playlist")
}

func parsePair(playlistID, videoID string) (primitive.ObjectID, primitive.ObjectID, error) {
	pid, err := ParseID(playlistID, "playlist")
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	vid, err := ParseID(videoID, "video")
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	return pid, vid, nil
}
