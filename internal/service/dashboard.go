package service

import (
	"context"

	"videotube/internal/apperr"
	"videotube/internal/db"
	"videotube/internal/models"
	"videotube/internal/query"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DashboardService reports on a channel for its owner.
type DashboardService struct {
	views Viewer
}

func NewDashboardService(views Viewer) *DashboardService {
	return &DashboardService{views: views}
}

// Stats totals views, videos, subscribers and likes for channel. Channels
// with nothing to count report zeros.
func (s *DashboardService) Stats(ctx context.Context, channel primitive.ObjectID) (*models.ChannelStats, error) {
	var stats models.ChannelStats

	var videos []models.ChannelStats
	if err := s.views.Aggregate(ctx, db.Videos, query.ChannelVideoStats(channel), &videos); err != nil {
		return nil, apperr.NewInternal("failed to load video stats", err)
	}
	if len(videos) > 0 {
		stats.TotalViews = videos[0].TotalViews
		stats.TotalVideos = videos[0].TotalVideos
	}

	var subs []models.ChannelStats
	if err := s.views.Aggregate(ctx, db.Subscriptions, query.ChannelSubscriberCount(channel), &subs); err != nil {
		return nil, apperr.NewInternal("failed to load subscriber count", err)
	}
	if len(subs) > 0 {
		stats.TotalSubscribers = subs[0].TotalSubscribers
	}

	var likes []models.ChannelStats
	if err := s.views.Aggregate(ctx, db.Likes, query.ChannelLikeCount(channel), &likes); err != nil {
		return nil, apperr.NewInternal("failed to load like count", err)
	}
	if len(likes) > 0 {
		stats.TotalLikes = likes[0].TotalLikes
	}
	return &stats, nil
}

// Videos pages through every video of the channel, unpublished included.
func (s *DashboardService) Videos(ctx context.Context, channel primitive.ObjectID, page, limit string) ([]models.Video, error) {
	pg, err := query.ParsePage(page, limit)
	if err != nil {
		return nil, err
	}
	out := []models.Video{}
	if err := s.views.Aggregate(ctx, db.Videos, query.ChannelVideos(channel, pg), &out); err != nil {
		return nil, apperr.NewInternal("failed to load channel videos", err)
	}
	return out, nil
}
