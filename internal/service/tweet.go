package service

import (
	"context"

	"videotube/internal/apperr"
	"videotube/internal/db"
	"videotube/internal/models"
	"videotube/internal/query"
	"videotube/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TweetService handles short text posts.
type TweetService struct {
	tweets   TweetRepo
	accounts AccountRepo
	likes    LikeRepo
	views    Viewer
}

func NewTweetService(tweets TweetRepo, accounts AccountRepo, likes LikeRepo, views Viewer) *TweetService {
	return &TweetService{tweets: tweets, accounts: accounts, likes: likes, views: views}
}

func (s *TweetService) Create(ctx context.Context, owner primitive.ObjectID, content string) (*models.Tweet, error) {
	content = trimmed(content)
	if content == "" {
		return nil, ErrContentRequired
	}
	t := &models.Tweet{Content: content, Owner: owner}
	if err := s.tweets.Create(ctx, t); err != nil {
		return nil, apperr.NewInternal("failed to create tweet", err)
	}
	return t, nil
}

// ListByUser pages through a user's tweets, newest first.
func (s *TweetService) ListByUser(ctx context.Context, userID, page, limit string) ([]models.TweetView, error) {
	id, err := ParseID(userID, "user")
	if err != nil {
		return nil, err
	}
	pg, err := query.ParsePage(page, limit)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.FindByID(ctx, id); err != nil {
		return nil, classify(err, ErrUserNotFound, "failed to load user")
	}
	out := []models.TweetView{}
	if err := s.views.Aggregate(ctx, db.Tweets, query.TweetFeed(id, pg), &out); err != nil {
		return nil, apperr.NewInternal("failed to load tweets", err)
	}
	return out, nil
}

func (s *TweetService) Update(ctx context.Context, requester primitive.ObjectID, tweetID, content string) (*models.Tweet, error) {
	id, err := ParseID(tweetID, "tweet")
	if err != nil {
		return nil, err
	}
	content = trimmed(content)
	if content == "" {
		return nil, ErrContentRequired
	}
	if err := s.authorize(ctx, id, requester); err != nil {
		return nil, err
	}
	t, err := s.tweets.UpdateOwned(ctx, id, requester, content)
	if err != nil {
		return nil, classify(err, ErrTweetNotFound, "failed to update tweet")
	}
	return t, nil
}

// Delete removes an owned tweet and its likes.
func (s *TweetService) Delete(ctx context.Context, requester primitive.ObjectID, tweetID string) error {
	id, err := ParseID(tweetID, "tweet")
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, id, requester); err != nil {
		return err
	}
	if _, err := s.tweets.DeleteOwned(ctx, id, requester); err != nil {
		return classify(err, ErrTweetNotFound, "failed to delete tweet")
	}
	if err := s.likes.DeleteForTargets(ctx, store.TargetTweet, id); err != nil {
		return apperr.NewInternal("failed to delete tweet likes", err)
	}
	return nil
}

func (s *TweetService) authorize(ctx context.Context, id, requester primitive.ObjectID) error {
	t, err := s.tweets.FindByID(ctx, id)
	if err != nil {
		return classify(err, ErrTweetNotFound, "failed to load tweet")
	}
	return requireOwner(t.Owner, requester, "tweet")
}
