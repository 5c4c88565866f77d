// Package archive stores aggregate analytics snapshots in S3 so dashboards
// can show history the platforms no longer return.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/analytics"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/logger"
)

// ErrNotFound is returned by Get for a missing snapshot.
var ErrNotFound = errors.New("snapshot not found")

// objectStore is the subset of *s3.Client used here.
type objectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Snapshot is what gets written for one platform at one moment.
type Snapshot struct {
	Platform  domain.Platform      `json:"platform"`
	SavedAt   time.Time            `json:"saved_at"`
	Aggregate *analytics.Aggregate `json:"aggregate"`
}

// SaveResult locates a stored snapshot. Timestamp is what Get takes to read
// it back.
type SaveResult struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	Timestamp int64  `json:"timestamp"`
	Bytes     int    `json:"bytes"`
}

// Store writes snapshots under <prefix><platform>/<YYYY-MM-DD>/<unix>.json.
type Store struct {
	client objectStore
	bucket string
	prefix string
	now    func() time.Time
	log    *logger.Logger
}

// NewS3Store loads AWS credentials from the default chain.
func NewS3Store(ctx context.Context, bucket, region, prefix string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for analytics archive: %w", err)
	}
	return newStore(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func newStore(client objectStore, bucket, prefix string) *Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
		log:    logger.New("archive"),
	}
}

// Key returns the object key for a snapshot taken at t.
func (s *Store) Key(platform domain.Platform, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s%s/%s/%d.json", s.prefix, platform, t.Format(domain.DateLayout), t.Unix())
}

// Save writes the aggregate for the platform.
func (s *Store) Save(ctx context.Context, platform domain.Platform, agg *analytics.Aggregate) (*SaveResult, error) {
	if agg == nil {
		return nil, errors.New("archive: nil aggregate")
	}
	now := s.now().UTC()
	body, err := json.Marshal(Snapshot{Platform: platform, SavedAt: now, Aggregate: agg})
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}

	key := s.Key(platform, now)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("S3 PutObject %s/%s: %w", s.bucket, key, err)
	}

	s.log.Info("analytics snapshot saved", "platform", platform, "key", key, "bytes", len(body))
	return &SaveResult{Bucket: s.bucket, Key: key, Timestamp: now.Unix(), Bytes: len(body)}, nil
}

// Get reads the platform's snapshot taken at the given instant.
func (s *Store) Get(ctx context.Context, platform domain.Platform, at time.Time) (*Snapshot, error) {
	return s.load(ctx, s.Key(platform, at))
}

func (s *Store) load(ctx context.Context, key string) (*Snapshot, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("S3 GetObject %s/%s: %w", s.bucket, key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot body: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &snap, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "NoSuchKey") || strings.Contains(s, "NotFound") || strings.Contains(s, "404")
}
