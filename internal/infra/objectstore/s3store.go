// Package objectstore implements ports.ObjectStore over S3, backing the
// ArticleIndexCache remote tier and the title-partition loader's backing
// store.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sony/gobreaker"

	"factseeker/internal/resilience/circuitbreaker"
	"factseeker/internal/resilience/retry"
)

// Store implements ports.ObjectStore over a single S3 bucket. Every key
// passed to Get/Put is treated as a prefix; the objects map's keys become
// the suffix past that prefix (e.g. "metadata.json", "embedding.json").
type Store struct {
	client         *s3.Client
	bucket         string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	timeout        time.Duration
}

// New constructs a Store over an already-configured S3 client.
func New(client *s3.Client, bucket string, timeout time.Duration) *Store {
	return &Store{
		client:         client,
		bucket:         bucket,
		circuitBreaker: circuitbreaker.New(circuitbreaker.ObjectStoreConfig()),
		retryConfig:    retry.ObjectStoreConfig(),
		timeout:        timeout,
	}
}

// Get downloads every object whose key begins with keyPrefix, listing the
// prefix first. It returns nil, false, nil when nothing exists under the
// prefix, matching the cache tier's "absent, not an error" contract.
func (s *Store) Get(ctx context.Context, keyPrefix string) (map[string][]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var keys []string
	listErr := retry.WithBackoff(ctx, s.retryConfig, func() error {
		result, err := s.circuitBreaker.Execute(func() (interface{}, error) {
			return s.listKeys(ctx, keyPrefix)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("object store unavailable: circuit breaker open")
			}
			return err
		}
		keys = result.([]string)
		return nil
	})
	if listErr != nil {
		return nil, false, fmt.Errorf("list %s: %w", keyPrefix, listErr)
	}
	if len(keys) == 0 {
		return nil, false, nil
	}

	objects := make(map[string][]byte, len(keys))
	for _, key := range keys {
		body, err := s.getObject(ctx, key)
		if err != nil {
			return nil, false, fmt.Errorf("get %s: %w", key, err)
		}
		objects[key[len(keyPrefix):]] = body
	}
	return objects, true, nil
}

// Put uploads every entry of objects under keyPrefix+suffix. Failures are
// returned to the caller, who treats
// object-store writes as best-effort.
func (s *Store) Put(ctx context.Context, keyPrefix string, objects map[string][]byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for suffix, data := range objects {
		key := keyPrefix + suffix
		putErr := retry.WithBackoff(ctx, s.retryConfig, func() error {
			_, err := s.circuitBreaker.Execute(func() (interface{}, error) {
				return nil, s.putObject(ctx, key, data)
			})
			if err != nil && errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("object store unavailable: circuit breaker open")
			}
			return err
		})
		if putErr != nil {
			return fmt.Errorf("put %s: %w", key, putErr)
		}
	}
	return nil
}

func (s *Store) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (s *Store) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("object not found: %w", err)
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *Store) putObject(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		slog.Warn("objectstore: put failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return err
}
