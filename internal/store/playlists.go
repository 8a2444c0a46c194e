package store

import (
	"context"
	"time"

	"videotube/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Playlists struct {
	c *mongo.Collection
}

func (r *Playlists) Create(ctx context.Context, p *models.Playlist) error {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Videos == nil {
		p.Videos = []primitive.ObjectID{}
	}
	_, err := r.c.InsertOne(ctx, p)
	return translate(err)
}

func (r *Playlists) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Playlist, error) {
	var p models.Playlist
	if err := findByID(ctx, r.c, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddVideo appends videoID unless it is already in the list. ErrConflict
// means the video was already present; ErrNotFound means no such owned playlist.
func (r *Playlists) AddVideo(ctx context.Context, id, owner, videoID primitive.ObjectID) (*models.Playlist, error) {
	var p models.Playlist
	res := r.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "owner": owner, "videos": bson.M{"$ne": videoID}},
		bson.M{"$push": bson.M{"videos": videoID}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
		afterUpdate())
	if err := res.Decode(&p); err != nil {
		return nil, r.membershipMiss(ctx, id, owner, err)
	}
	return &p, nil
}

// RemoveVideo pulls videoID from the list. ErrConflict means it was not present.
func (r *Playlists) RemoveVideo(ctx context.Context, id, owner, videoID primitive.ObjectID) (*models.Playlist, error) {
	var p models.Playlist
	res := r.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "owner": owner, "videos": videoID},
		bson.M{"$pull": bson.M{"videos": videoID}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
		afterUpdate())
	if err := res.Decode(&p); err != nil {
		return nil, r.membershipMiss(ctx, id, owner, err)
	}
	return &p, nil
}

// membershipMiss tells a missing playlist apart from a failed membership condition.
func (r *Playlists) membershipMiss(ctx context.Context, id, owner primitive.ObjectID, err error) error {
	if err = translate(err); err != ErrNotFound {
		return err
	}
	n, cerr := r.c.CountDocuments(ctx, bson.M{"_id": id, "owner": owner})
	if cerr != nil {
		return cerr
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *Playlists) UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, name, description string) (*models.Playlist, error) {
	var p models.Playlist
	update := bson.M{"$set": bson.M{"name": name, "description": description, "updatedAt": time.Now().UTC()}}
	if err := updateOwned(ctx, r.c, id, owner, update, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Playlists) DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.Playlist, error) {
	var p models.Playlist
	if err := deleteOwned(ctx, r.c, id, owner, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PullVideo removes videoID from every playlist that references it.
func (r *Playlists) PullVideo(ctx context.Context, videoID primitive.ObjectID) error {
	_, err := r.c.UpdateMany(ctx, bson.M{"videos": videoID}, bson.M{"$pull": bson.M{"videos": videoID}})
	return err
}
