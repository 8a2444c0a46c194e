package store

import (
	"context"
	"time"

	"videotube/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// toggle deletes the join document matching key if present, otherwise inserts
// doc. Both branches are single atomic writes; a duplicate key on insert means
// a concurrent toggle created the edge first, which is reported as present.
func toggle(ctx context.Context, c *mongo.Collection, key bson.M, doc interface{}) (present bool, err error) {
	res, err := c.DeleteOne(ctx, key)
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}
	if _, err := c.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// TargetKind names the document type a like points at.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
	TargetTweet   TargetKind = "tweet"
)

type Likes struct {
	c *mongo.Collection
}

// Toggle flips the like of actor on target and reports whether it now exists.
func (r *Likes) Toggle(ctx context.Context, actor primitive.ObjectID, kind TargetKind, target primitive.ObjectID) (bool, error) {
	like := models.Like{
		ID:        primitive.NewObjectID(),
		LikedBy:   actor,
		CreatedAt: time.Now().UTC(),
	}
	switch kind {
	case TargetVideo:
		like.Video = &target
	case TargetComment:
		like.Comment = &target
	case TargetTweet:
		like.Tweet = &target
	}
	return toggle(ctx, r.c, bson.M{"likedBy": actor, string(kind): target}, like)
}

// DeleteForTargets removes every like on the given targets.
func (r *Likes) DeleteForTargets(ctx context.Context, kind TargetKind, targets ...primitive.ObjectID) error {
	if len(targets) == 0 {
		return nil
	}
	_, err := r.c.DeleteMany(ctx, bson.M{string(kind): bson.M{"$in": targets}})
	return err
}

type Subscriptions struct {
	c *mongo.Collection
}

// Toggle flips the subscriber -> channel edge and reports whether it now exists.
func (r *Subscriptions) Toggle(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	sub := models.Subscription{
		ID:         primitive.NewObjectID(),
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  time.Now().UTC(),
	}
	return toggle(ctx, r.c, bson.M{"subscriber": subscriber, "channel": channel}, sub)
}
