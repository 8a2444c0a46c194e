package store

import (
	"context"
	"time"

	"videotube/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Videos struct {
	c *mongo.Collection
}

func (r *Videos) Create(ctx context.Context, v *models.Video) error {
	now := time.Now().UTC()
	v.ID = primitive.NewObjectID()
	v.CreatedAt, v.UpdatedAt = now, now
	_, err := r.c.InsertOne(ctx, v)
	return translate(err)
}

func (r *Videos) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	var v models.Video
	if err := findByID(ctx, r.c, id, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// VideoPatch lists the fields an owner may change. Nil fields are left untouched.
type VideoPatch struct {
	Title       *string
	Description *string
	Thumbnail   *string
}

// UpdateOwned applies patch and returns the video as it was before the update.
func (r *Videos) UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, patch VideoPatch) (*models.Video, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Thumbnail != nil {
		set["thumbnail"] = *patch.Thumbnail
	}
	var v models.Video
	res := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "owner": owner}, bson.M{"$set": set})
	if err := res.Decode(&v); err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *Videos) DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.Video, error) {
	var v models.Video
	if err := deleteOwned(ctx, r.c, id, owner, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// TogglePublishOwned flips isPublished in a single update.
func (r *Videos) TogglePublishOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.Video, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"isPublished": bson.M{"$not": bson.A{"$isPublished"}},
			"updatedAt":   "$$NOW",
		}}},
	}
	var v models.Video
	if err := updateOwned(ctx, r.c, id, owner, update, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Videos) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
