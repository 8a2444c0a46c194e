package service

import (
	"context"

	"videotube/internal/apperr"
	"videotube/internal/db"
	"videotube/internal/metrics"
	"videotube/internal/models"
	"videotube/internal/query"
	"videotube/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LikeService toggles likes on videos, comments and tweets.
type LikeService struct {
	likes    LikeRepo
	videos   VideoRepo
	comments CommentRepo
	tweets   TweetRepo
	views    Viewer
}

func NewLikeService(likes LikeRepo, videos VideoRepo, comments CommentRepo, tweets TweetRepo, views Viewer) *LikeService {
	return &LikeService{likes: likes, videos: videos, comments: comments, tweets: tweets, views: views}
}

// LikeState is the result of a toggle.
type LikeState struct {
	IsLiked bool `json:"isLiked"`
}

func (s *LikeService) ToggleVideo(ctx context.Context, actor primitive.ObjectID, videoID string) (*LikeState, error) {
	id, err := ParseID(videoID, "video")
	if err != nil {
		return nil, err
	}
	if _, err := s.videos.FindByID(ctx, id); err != nil {
		return nil, classify(err, ErrVideoNotFound, "failed to load video")
	}
	return s.toggle(ctx, actor, store.TargetVideo, id)
}

func (s *LikeService) ToggleComment(ctx context.Context, actor primitive.ObjectID, commentID string) (*LikeState, error) {
	id, err := ParseID(commentID, "comment")
	if err != nil {
		return nil, err
	}
	if _, err := s.comments.FindByID(ctx, id); err != nil {
		return nil, classify(err, ErrCommentNotFound, "failed to load comment")
	}
	return s.toggle(ctx, actor, store.TargetComment, id)
}

func (s *LikeService) ToggleTweet(ctx context.Context, actor primitive.ObjectID, tweetID string) (*LikeState, error) {
	id, err := ParseID(tweetID, "tweet")
	if err != nil {
		return nil, err
	}
	if _, err := s.tweets.FindByID(ctx, id); err != nil {
		return nil, classify(err, ErrTweetNotFound, "failed to load tweet")
	}
	return s.toggle(ctx, actor, store.TargetTweet, id)
}

func (s *LikeService) toggle(ctx context.Context, actor primitive.ObjectID, kind store.TargetKind, target primitive.ObjectID) (*LikeState, error) {
	on, err := s.likes.Toggle(ctx, actor, kind, target)
	if err != nil {
		return nil, apperr.NewInternal("failed to toggle like", err)
	}
	metrics.TogglesTotal.WithLabelValues("like_"+string(kind), metrics.State(on)).Inc()
	return &LikeState{IsLiked: on}, nil
}

// LikedVideos lists the videos actor liked that still exist.
func (s *LikeService) LikedVideos(ctx context.Context, actor primitive.ObjectID) ([]models.VideoView, error) {
	out := []models.VideoView{}
	if err := s.views.Aggregate(ctx, db.Likes, query.LikedVideos(actor), &out); err != nil {
		return nil, apperr.NewInternal("failed to load liked videos", err)
	}
	return out, nil
}

// SubscriptionService manages subscriber -> channel edges.
type SubscriptionService struct {
	subs     SubscriptionRepo
	accounts AccountRepo
	views    Viewer
}

func NewSubscriptionService(subs SubscriptionRepo, accounts AccountRepo, views Viewer) *SubscriptionService {
	return &SubscriptionService{subs: subs, accounts: accounts, views: views}
}

// SubscriptionState is the result of a toggle.
type SubscriptionState struct {
	IsSubscribed bool `json:"isSubscribed"`
}

func (s *SubscriptionService) Toggle(ctx context.Context, subscriber primitive.ObjectID, channelID string) (*SubscriptionState, error) {
	channel, err := ParseID(channelID, "channel")
	if err != nil {
		return nil, err
	}
	if channel == subscriber {
		return nil, apperr.NewBadRequest("cannot subscribe to your own channel")
	}
	if _, err := s.accounts.FindByID(ctx, channel); err != nil {
		return nil, classify(err, ErrChannelNotFound, "failed to load channel")
	}
	on, err := s.subs.Toggle(ctx, subscriber, channel)
	if err != nil {
		return nil, apperr.NewInternal("failed to toggle subscription", err)
	}
	metrics.TogglesTotal.WithLabelValues("subscription", metrics.State(on)).Inc()
	return &SubscriptionState{IsSubscribed: on}, nil
}

// Subscribers lists the accounts subscribed to a channel.
func (s *SubscriptionService) Subscribers(ctx context.Context, channelID string) ([]models.PublicProfile, error) {
	channel, err := ParseID(channelID, "channel")
	if err != nil {
		return nil, err
	}
	return s.edges(ctx, channel, ErrChannelNotFound, query.ChannelSubscribers(channel))
}

// SubscribedChannels lists the channels an account follows.
func (s *SubscriptionService) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicProfile, error) {
	subscriber, err := ParseID(subscriberID, "subscriber")
	if err != nil {
		return nil, err
	}
	return s.edges(ctx, subscriber, ErrUserNotFound, query.SubscribedChannels(subscriber))
}

func (s *SubscriptionService) edges(ctx context.Context, id primitive.ObjectID, notFound error, p *query.Pipeline) ([]models.PublicProfile, error) {
	if _, err := s.accounts.FindByID(ctx, id); err != nil {
		return nil, classify(err, notFound, "failed to load account")
	}
	out := []models.PublicProfile{}
	if err := s.views.Aggregate(ctx, db.Subscriptions, p, &out); err != nil {
		return nil, apperr.NewInternal("failed to load subscriptions", err)
	}
	return out, nil
}
