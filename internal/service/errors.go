package service

import (
	"errors"
	"strings"

	"videotube/internal/apperr"
	"videotube/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors shared by several services; handlers map them through apperr.
var (
	ErrVideoNotFound    = apperr.NewNotFound("video not found")
	ErrCommentNotFound  = apperr.NewNotFound("comment not found")
	ErrTweetNotFound    = apperr.NewNotFound("tweet not found")
	ErrPlaylistNotFound = apperr.NewNotFound("playlist not found")
	ErrUserNotFound     = apperr.NewNotFound("user not found")
	ErrChannelNotFound  = apperr.NewNotFound("channel does not exist")
	ErrContentRequired  = apperr.NewBadRequest("content is required")
)

// ParseID parses a hex object id; what names the id in the error message.
func ParseID(s, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, apperr.NewBadRequest("invalid " + what + " id")
	}
	return id, nil
}

// requireOwner rejects a requester that does not own the resource.
func requireOwner(owner, requester primitive.ObjectID, what string) error {
	if owner != requester {
		return apperr.NewForbidden("you are not allowed to modify this " + what)
	}
	return nil
}

// classify turns a repository error into an apperr. notFound is used for
// store.ErrNotFound; msg describes the failed operation for internal errors.
func classify(err error, notFound error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, store.ErrConflict):
		return apperr.Wrap(apperr.Conflict, "resource already exists", err)
	default:
		return apperr.NewInternal(msg, err)
	}
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
