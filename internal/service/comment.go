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

// CommentService handles comments on videos.
type CommentService struct {
	comments CommentRepo
	videos   VideoRepo
	likes    LikeRepo
	views    Viewer
}

func NewCommentService(comments CommentRepo, videos VideoRepo, likes LikeRepo, views Viewer) *CommentService {
	return &CommentService{comments: comments, videos: videos, likes: likes, views: views}
}

// List pages through a video's comments in the order they were written.
func (s *CommentService) List(ctx context.Context, videoID, page, limit string) ([]models.CommentView, error) {
	id, err := ParseID(videoID, "video")
	if err != nil {
		return nil, err
	}
	pg, err := query.ParsePage(page, limit)
	if err != nil {
		return nil, err
	}
	if _, err := s.videos.FindByID(ctx, id); err != nil {
		return nil, classify(err, ErrVideoNotFound, "failed to load video")
	}
	out := []models.CommentView{}
	if err := s.views.Aggregate(ctx, db.Comments, query.CommentFeed(id, pg), &out); err != nil {
		return nil, apperr.NewInternal("failed to load comments", err)
	}
	return out, nil
}

func (s *CommentService) Add(ctx context.Context, owner primitive.ObjectID, videoID, content string) (*models.Comment, error) {
	id, err := ParseID(videoID, "video")
	if err != nil {
		return nil, err
	}
	content = trimmed(content)
	if content == "" {
		return nil, ErrContentRequired
	}
	if _, err := s.videos.FindByID(ctx, id); err != nil {
		return nil, classify(err, ErrVideoNotFound, "failed to load video")
	}
	cm := &models.Comment{Content: content, Video: id, Owner: owner}
	if err := s.comments.Create(ctx, cm); err != nil {
		return nil, apperr.NewInternal("failed to add comment", err)
	}
	return cm, nil
}

func (s *CommentService) Update(ctx context.Context, requester primitive.ObjectID, commentID, content string) (*models.Comment, error) {
	id, err := ParseID(commentID, "comment")
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
	cm, err := s.comments.UpdateOwned(ctx, id, requester, content)
	if err != nil {
		return nil, classify(err, ErrCommentNotFound, "failed to update comment")
	}
	return cm, nil
}

// Delete removes an owned comment and its likes.
func (s *CommentService) Delete(ctx context.Context, requester primitive.ObjectID, commentID string) error {
	id, err := ParseID(commentID, "comment")
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, id, requester); err != nil {
		return err
	}
	if _, err := s.comments.DeleteOwned(ctx, id, requester); err != nil {
		return classify(err, ErrCommentNotFound, "failed to delete comment")
	}
	if err := s.likes.DeleteForTargets(ctx, store.TargetComment, id); err != nil {
		return apperr.NewInternal("failed to delete comment likes", err)
	}
	return nil
}

func (s *CommentService) authorize(ctx context.Context, id, requester primitive.ObjectID) error {
	cm, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return classify(err, ErrCommentNotFound, "failed to load comment")
	}
	return requireOwner(cm.Owner, requester, "comment")
}
