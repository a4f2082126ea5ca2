// Package store provides the durable key/value backends the reservation
// ledger persists through.
package store

import (
	"context"
	"fmt"
)

// Backend is a key/value store holding opaque values. Get returns nil, nil
// when the key is absent.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

type Kind string

const (
	KindMemory   Kind = "memory"
	KindFile     Kind = "file"
	KindRedis    Kind = "redis"
	KindPostgres Kind = "postgres"
	KindS3       Kind = "s3"
)

// Config selects and configures a backend.
type Config struct {
	Kind Kind

	// Dir is the data directory for KindFile.
	Dir string
	// URL is the connection string for KindRedis and KindPostgres.
	URL string

	// S3 settings for KindS3.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
}

func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Kind {
	case KindMemory:
		return NewMemory(), nil
	case KindFile, "":
		return NewFile(cfg.Dir)
	case KindRedis:
		return NewRedis(ctx, cfg.URL)
	case KindPostgres:
		return NewSQL(ctx, cfg.URL)
	case KindS3:
		return NewObject(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL)
	}
	return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
}
