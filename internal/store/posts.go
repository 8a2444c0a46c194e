package store

import (
	"context"
	"time"

	"videotube/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Comments struct {
	c *mongo.Collection
}

func (r *Comments) Create(ctx context.Context, cm *models.Comment) error {
	now := time.Now().UTC()
	cm.ID = primitive.NewObjectID()
	cm.CreatedAt, cm.UpdatedAt = now, now
	_, err := r.c.InsertOne(ctx, cm)
	return translate(err)
}

func (r *Comments) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var cm models.Comment
	if err := findByID(ctx, r.c, id, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

func (r *Comments) UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, content string) (*models.Comment, error) {
	var cm models.Comment
	update := bson.M{"$set": bson.M{"content": content, "updatedAt": time.Now().UTC()}}
	if err := updateOwned(ctx, r.c, id, owner, update, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

func (r *Comments) DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.Comment, error) {
	var cm models.Comment
	if err := deleteOwned(ctx, r.c, id, owner, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

// DeleteByVideo removes every comment of a video and returns their ids.
func (r *Comments) DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{"video": videoID}
	cur, err := r.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	if _, err := r.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, err
	}
	return ids, nil
}

type Tweets struct {
	c *mongo.Collection
}

func (r *Tweets) Create(ctx context.Context, t *models.Tweet) error {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := r.c.InsertOne(ctx, t)
	return translate(err)
}

func (r *Tweets) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Tweet, error) {
	var t models.Tweet
	if err := findByID(ctx, r.c, id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Tweets) UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, content string) (*models.Tweet, error) {
	var t models.Tweet
	update := bson.M{"$set": bson.M{"content": content, "updatedAt": time.Now().UTC()}}
	if err := updateOwned(ctx, r.c, id, owner, update, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Tweets) DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.Tweet, error) {
	var t models.Tweet
	if err := deleteOwned(ctx, r.c, id, owner, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
