package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	Users         = "users"
	Videos        = "videos"
	Comments      = "comments"
	Likes         = "likes"
	Subscriptions = "subscriptions"
	Playlists     = "playlists"
	Tweets        = "tweets"
)

// Connect dials MongoDB and pings it, retrying while the server comes up.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	var client *mongo.Client
	var err error
	for i := 0; i < 10; i++ {
		client, err = mongo.Connect(ctx, options.Client().
			ApplyURI(uri).
			SetMaxPoolSize(20).
			SetServerSelectionTimeout(5*time.Second))
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err = client.Ping(pingCtx, readpref.Primary())
			cancel()
			if err == nil {
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(500+i*200) * time.Millisecond):
		}
	}
	return nil, err
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
// Join documents (likes, subscriptions) depend on the unique indexes for their
// at-most-once guarantee.
func EnsureIndexes(ctx context.Context, d *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		Users: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		Videos: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		Comments: {
			{Keys: bson.D{{Key: "video", Value: 1}}},
		},
		Likes: {
			likeIndex("video"),
			likeIndex("comment"),
			likeIndex("tweet"),
		},
		Subscriptions: {
			{Keys: bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "channel", Value: 1}}},
		},
		Playlists: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		Tweets: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range specs {
		if _, err := d.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// likeIndex makes (likedBy, target) unique for documents that carry that target.
func likeIndex(target string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{{Key: "likedBy", Value: 1}, {Key: target, Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{target: bson.M{"$exists": true}}),
	}
}
