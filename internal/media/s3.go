package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"videotube/internal/config"
	"videotube/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type uploadAPI interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type deleteAPI interface {
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// DurationProber reads the playback length of a local video file in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// S3Storage stores media in an S3-compatible bucket.
type S3Storage struct {
	uploader uploadAPI
	client   deleteAPI
	bucket   string
	baseURL  string
	prober   DurationProber
}

// NewS3Storage configures an uploader for the bucket in cfg. prober may be nil.
func NewS3Storage(ctx context.Context, cfg config.MediaConfig, prober DurationProber) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Storage{
		uploader: uploader,
		client:   client,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		prober:   prober,
	}, nil
}

// Upload stores f under <kind>/<uuid><ext>. The local file is removed
// whether or not the upload succeeds.
func (s *S3Storage) Upload(ctx context.Context, f LocalFile) (asset Asset, err error) {
	defer removeTemp(f.Path)
	defer func() { metrics.MediaOperationsTotal.WithLabelValues("upload", metrics.Result(err)).Inc() }()

	if f.Kind == KindVideo && s.prober != nil {
		d, perr := s.prober.Duration(ctx, f.Path)
		if perr != nil {
			log.Warn().Err(perr).Str("path", f.Path).Msg("probe video duration")
		}
		asset.Duration = d
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return Asset{}, fmt.Errorf("s3 storage open %s: %w", f.Path, err)
	}
	defer file.Close()

	key := objectKey(f.Kind, f.Path)
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if f.ContentType != "" {
		in.ContentType = aws.String(f.ContentType)
	}

	start := time.Now()
	_, err = s.uploader.Upload(ctx, in)
	metrics.MediaUploadSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return Asset{}, fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	asset.URL = s.publicURL(key)
	return asset, nil
}

// Delete removes the object behind url. Empty URLs are ignored.
func (s *S3Storage) Delete(ctx context.Context, url string) (err error) {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	defer func() { metrics.MediaOperationsTotal.WithLabelValues("delete", metrics.Result(err)).Inc() }()

	key, ok := s.keyOf(url)
	if !ok {
		return fmt.Errorf("s3 storage: %q is not stored in this bucket", url)
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 storage delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) publicURL(key string) string {
	if s.baseURL == "" {
		return key
	}
	return s.baseURL + "/" + key
}

func (s *S3Storage) keyOf(url string) (string, bool) {
	if s.baseURL == "" {
		return strings.TrimLeft(url, "/"), true
	}
	key := strings.TrimPrefix(url, s.baseURL+"/")
	if key == url || key == "" {
		return "", false
	}
	return key, true
}

func objectKey(kind, path string) string {
	if kind == "" {
		kind = "misc"
	}
	return kind + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(path))
}

func removeTemp(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("remove temp upload")
	}
}
