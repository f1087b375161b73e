package cache

import (
	"context"

	"github.com/matzehuels/zplkit/pkg/errors"
)

// Backend names a cache implementation.
type Backend string

// Cache backends.
const (
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
	BackendNone  Backend = "none"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend   Backend
	Dir       string
	RedisAddr string
	RedisDB   int
	Prefix    string
}

// Open builds the configured cache. An empty backend selects the file cache
// in DefaultDir.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case BackendNone:
		return NewNullCache(), nil
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "redis cache requires an address")
		}
		c, err := NewRedisCache(ctx, RedisOptions{Addr: opts.RedisAddr, DB: opts.RedisDB, Prefix: opts.Prefix})
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendFile, "":
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		c, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"unknown cache backend: %q (must be one of: file, redis, none)", opts.Backend)
}
