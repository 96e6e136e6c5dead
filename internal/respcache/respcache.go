// Package respcache memoizes remote lookups in the persistent cache store.
//
// Wrap turns any fetch function into one that consults the cache first. The
// cache key is derived from the operation name and a canonical JSON encoding
// of the request, so logically equal requests share an entry regardless of
// map ordering.
package respcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"showmark/internal/logging"
)

// Store is the subset of the cache store used by wrapped functions.
type Store interface {
	Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool)
	Put(ctx context.Context, key, operation string, payload []byte) error
}

// Func is a cacheable request/response operation.
type Func[C, R any] func(ctx context.Context, cfg C) (R, error)

// Observer is notified of every hit or miss.
type Observer func(operation string, hit bool)

type options struct {
	logger   *slog.Logger
	observer Observer
}

// Option customizes a wrapped function.
type Option func(*options)

// WithLogger routes cache diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver registers a hit/miss callback, used for run metrics.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// Wrap returns fetch memoized under operation for ttl. A nil store disables
// caching. Failed fetches are never stored, and concurrent misses for the
// same key share one fetch.
func Wrap[C, R any](store Store, operation string, ttl time.Duration, fetch Func[C, R], opts ...Option) Func[C, R] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.NewComponentLogger(o.logger, "respcache").With(logging.String("operation", operation))
	observe := func(hit bool) {
		if o.observer != nil {
			o.observer(operation, hit)
		}
	}

	if store == nil {
		return fetch
	}

	var group singleflight.Group
	return func(ctx context.Context, cfg C) (R, error) {
		var zero R
		key, err := Key(operation, cfg)
		if err != nil {
			logging.WarnWithContext(logger, "cache key unavailable; calling through", "cache_key_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "response will not be cached"))
			return fetch(ctx, cfg)
		}

		if payload, ok := store.Get(ctx, key, ttl); ok {
			var cached R
			decodeErr := json.Unmarshal(payload, &cached)
			if decodeErr == nil {
				observe(true)
				logger.Debug("cache hit", logging.String("cache_key", key))
				return cached, nil
			}
			logger.Debug("cached payload undecodable; refetching",
				logging.String("cache_key", key),
				logging.Error(decodeErr))
		}
		observe(false)

		value, err, _ := group.Do(key, func() (any, error) {
			result, err := fetch(ctx, cfg)
			if err != nil {
				return zero, err
			}
			payload, err := json.Marshal(result)
			if err != nil {
				logging.WarnWithContext(logger, "cache encode failed", "cache_encode_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "response will be fetched again next run"))
				return result, nil
			}
			if err := store.Put(ctx, key, operation, payload); err != nil {
				logging.WarnWithContext(logger, "cache write failed", "cache_write_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check state_dir permissions and free space"),
					logging.String(logging.FieldImpact, "response will be fetched again next run"))
			}
			return result, nil
		})
		if err != nil {
			return zero, err
		}
		result, ok := value.(R)
		if !ok {
			return zero, fmt.Errorf("respcache: unexpected result type %T", value)
		}
		return result, nil
	}
}

// Key derives the cache key for operation and cfg: the hex SHA-256 of the
// operation name, a NUL separator, and the canonical JSON of cfg.
func Key(operation string, cfg any) (string, error) {
	canonical, err := CanonicalJSON(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.New()
	sum.Write([]byte(operation))
	sum.Write([]byte{0})
	sum.Write(canonical)
	return hex.EncodeToString(sum.Sum(nil)), nil
}

// CanonicalJSON encodes v with object keys sorted at every depth.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode cache config: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var generic any
	if err := decoder.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode cache config: %w", err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("canonicalize cache config: %w", err)
	}
	return canonical, nil
}
