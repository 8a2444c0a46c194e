// Package store persists the domain documents in MongoDB. Every repository
// translates driver errors into ErrNotFound and ErrConflict so callers never
// depend on the driver.
package store

import (
	"context"
	"errors"

	"videotube/internal/db"
	"videotube/internal/query"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

// Store groups the repositories over one database.
type Store struct {
	db *mongo.Database

	Accounts      *Accounts
	Videos        *Videos
	Comments      *Comments
	Likes         *Likes
	Subscriptions *Subscriptions
	Playlists     *Playlists
	Tweets        *Tweets
}

func New(d *mongo.Database) *Store {
	return &Store{
		db:            d,
		Accounts:      &Accounts{c: d.Collection(db.Users)},
		Videos:        &Videos{c: d.Collection(db.Videos)},
		Comments:      &Comments{c: d.Collection(db.Comments)},
		Likes:         &Likes{c: d.Collection(db.Likes)},
		Subscriptions: &Subscriptions{c: d.Collection(db.Subscriptions)},
		Playlists:     &Playlists{c: d.Collection(db.Playlists)},
		Tweets:        &Tweets{c: d.Collection(db.Tweets)},
	}
}

// Aggregate runs p against coll and decodes every result into out, which must
// be a pointer to a slice.
func (s *Store) Aggregate(ctx context.Context, coll string, p *query.Pipeline, out interface{}) error {
	cur, err := s.db.Collection(coll).Aggregate(ctx, p.Build())
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrConflict
	default:
		return err
	}
}

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func findByID(ctx context.Context, c *mongo.Collection, id primitive.ObjectID, out interface{}) error {
	return translate(c.FindOne(ctx, bson.M{"_id": id}).Decode(out))
}

// updateOwned applies update to the document only while owner still owns it.
func updateOwned(ctx context.Context, c *mongo.Collection, id, owner primitive.ObjectID, update interface{}, out interface{}) error {
	res := c.FindOneAndUpdate(ctx, bson.M{"_id": id, "owner": owner}, update, afterUpdate())
	return translate(res.Decode(out))
}

func deleteOwned(ctx context.Context, c *mongo.Collection, id, owner primitive.ObjectID, out interface{}) error {
	res := c.FindOneAndDelete(ctx, bson.M{"_id": id, "owner": owner})
	return translate(res.Decode(out))
}
