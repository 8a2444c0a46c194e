// Package media hands uploaded files to object storage and reads video
// durations from them.
package media

import (
	"context"
	"errors"
)

// Kinds group objects under a key prefix.
const (
	KindAvatar    = "avatars"
	KindCover     = "covers"
	KindThumbnail = "thumbnails"
	KindVideo     = "videos"
)

// ErrNotConfigured is returned by Unconfigured storage.
var ErrNotConfigured = errors.New("media: storage is not configured")

// LocalFile is an upload waiting in the temporary holding area.
type LocalFile struct {
	Path        string
	Kind        string
	ContentType string
}

// Asset is a stored object. Duration is only set for videos.
type Asset struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration,omitempty"`
}

// Storage uploads local files and deletes stored objects by URL.
type Storage interface {
	Upload(ctx context.Context, f LocalFile) (Asset, error)
	Delete(ctx context.Context, url string) error
}

// Unconfigured rejects every upload. Temporary files are still released.
type Unconfigured struct{}

func (Unconfigured) Upload(_ context.Context, f LocalFile) (Asset, error) {
	removeTemp(f.Path)
	return Asset{}, ErrNotConfigured
}

func (Unconfigured) Delete(context.Context, string) error {
	return ErrNotConfigured
}
