package service

import (
	"context"

	"videotube/internal/models"
	"videotube/internal/query"
	"videotube/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repositories consumed by the services. The *store types satisfy them; tests
// use in-memory fakes.

// Viewer runs read-side aggregation pipelines.
type Viewer interface {
	Aggregate(ctx context.Context, coll string, p *query.Pipeline, out interface{}) error
}

type AccountRepo interface {
	Create(ctx context.Context, a *models.Account) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateDetails(ctx context.Context, id primitive.ObjectID, fullName, email string) (*models.Account, error)
	SetImage(ctx context.Context, id primitive.ObjectID, field, url string) (*models.Account, error)
	RecordWatch(ctx context.Context, id, videoID primitive.ObjectID) error
}

type VideoRepo interface {
	Create(ctx context.Context, v *models.Video) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
	UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, patch store.VideoPatch) (*models.Video, error)
	DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.Video, error)
	TogglePublishOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.Video, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
}

type CommentRepo interface {
	Create(ctx context.Context, c *models.Comment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, content string) (*models.Comment, error)
	DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.Comment, error)
	DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type TweetRepo interface {
	Create(ctx context.Context, t *models.Tweet) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Tweet, error)
	UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, content string) (*models.Tweet, error)
	DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.Tweet, error)
}

type LikeRepo interface {
	Toggle(ctx context.Context, actor primitive.ObjectID, kind store.TargetKind, target primitive.ObjectID) (bool, error)
	DeleteForTargets(ctx context.Context, kind store.TargetKind, targets ...primitive.ObjectID) error
}

type SubscriptionRepo interface {
	Toggle(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error)
}

type PlaylistRepo interface {
	Create(ctx context.Context, p *models.Playlist) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Playlist, error)
	AddVideo(ctx context.Context, id, owner, videoID primitive.ObjectID) (*models.Playlist, error)
	RemoveVideo(ctx context.Context, id, owner, videoID primitive.ObjectID) (*models.Playlist, error)
	UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, name, description string) (*models.Playlist, error)
	DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.Playlist, error)
	PullVideo(ctx context.Context, videoID primitive.ObjectID) error
}
