package store

import (
	"context"
	"time"

	"videotube/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MaxWatchHistory bounds the stored watch history per account.
const MaxWatchHistory = 200

type Accounts struct {
	c *mongo.Collection
}

func (r *Accounts) Create(ctx context.Context, a *models.Account) error {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.WatchHistory == nil {
		a.WatchHistory = []primitive.ObjectID{}
	}
	_, err := r.c.InsertOne(ctx, a)
	return translate(err)
}

func (r *Accounts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	var a models.Account
	if err := findByID(ctx, r.c, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByLogin matches identifier against username or email.
func (r *Accounts) FindByLogin(ctx context.Context, identifier string) (*models.Account, error) {
	var a models.Account
	filter := bson.M{"$or": bson.A{
		bson.M{"username": identifier},
		bson.M{"email": identifier},
	}}
	if err := r.c.FindOne(ctx, filter).Decode(&a); err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *Accounts) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	n, err := r.c.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetRefreshToken overwrites the stored refresh token, invalidating the previous one.
func (r *Accounts) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return r.setFields(ctx, id, bson.M{"refreshToken": token})
}

// SwapRefreshToken replaces presented with next only if presented is still
// the stored token. ErrNotFound means the token was already rotated or revoked.
func (r *Accounts) SwapRefreshToken(ctx context.Context, id primitive.ObjectID, presented, next string) error {
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": id, "refreshToken": presented},
		bson.M{"$set": bson.M{"refreshToken": next, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Accounts) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$unset": bson.M{"refreshToken": ""}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Accounts) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return r.setFields(ctx, id, bson.M{"password": hash})
}

func (r *Accounts) UpdateDetails(ctx context.Context, id primitive.ObjectID, fullName, email string) (*models.Account, error) {
	return r.setAndReturn(ctx, id, bson.M{"fullName": fullName, "email": email})
}

// SetImage stores url in field ("avatar" or "coverImage") and returns the account
// as it was before the update, so the caller can release the old asset.
func (r *Accounts) SetImage(ctx context.Context, id primitive.ObjectID, field, url string) (*models.Account, error) {
	var before models.Account
	res := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{field: url, "updatedAt": time.Now().UTC()}})
	if err := res.Decode(&before); err != nil {
		return nil, translate(err)
	}
	return &before, nil
}

// RecordWatch moves videoID to the front of the history, dropping any older
// occurrence and trimming to MaxWatchHistory entries.
func (r *Accounts) RecordWatch(ctx context.Context, id, videoID primitive.ObjectID) error {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"watchHistory": bson.M{"$slice": bson.A{
				bson.M{"$concatArrays": bson.A{
					bson.A{videoID},
					bson.M{"$filter": bson.M{
						"input": bson.M{"$ifNull": bson.A{"$watchHistory", bson.A{}}},
						"as":    "v",
						"cond":  bson.M{"$ne": bson.A{"$$v", videoID}},
					}},
				}},
				MaxWatchHistory,
			}},
		}}},
	}
	res, err := r.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Accounts) setFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	res, err := r.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Accounts) setAndReturn(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Account, error) {
	fields["updatedAt"] = time.Now().UTC()
	var a models.Account
	res := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, afterUpdate())
	if err := res.Decode(&a); err != nil {
		return nil, translate(err)
	}
	return &a, nil
}
