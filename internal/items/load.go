package items

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"showmark/internal/logging"
	"showmark/internal/respcache"
	"showmark/internal/services"
)

const maxDocumentBytes = 16 << 20

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Source describes where a batch comes from.
type Source struct {
	Location string `json:"location"`
	Format   string `json:"format,omitempty"`
}

// Loader reads item batches. Remote documents are memoized through the
// response cache for the configured window.
type Loader struct {
	httpClient HTTPDoer
	cache      respcache.Store
	ttl        time.Duration
	logger     *slog.Logger
	observer   respcache.Observer
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient overrides the HTTP client used for remote documents.
func WithHTTPClient(client HTTPDoer) LoaderOption {
	return func(l *Loader) {
		if client != nil {
			l.httpClient = client
		}
	}
}

// WithCache memoizes remote documents in store for ttl.
func WithCache(store respcache.Store, ttl time.Duration) LoaderOption {
	return func(l *Loader) {
		l.cache = store
		l.ttl = ttl
	}
}

// WithCacheObserver reports cache hits and misses for remote documents.
func WithCacheObserver(observer respcache.Observer) LoaderOption {
	return func(l *Loader) {
		l.observer = observer
	}
}

// WithLogger sets the loader's logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader constructs a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{httpClient: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.NewComponentLogger(l.logger, "items")
	return l
}

// Load reads and decodes the batch at src. Locations starting with http:// or
// https:// are fetched; anything else is a file path ("-" reads stdin).
func (l *Loader) Load(ctx context.Context, src Source, stdin io.Reader) ([]Item, error) {
	location := strings.TrimSpace(src.Location)
	if location == "" {
		return nil, services.Wrap(services.ErrInvalidInput, "items", "load", "No item source given", nil)
	}

	var (
		data []byte
		err  error
	)
	switch {
	case isRemote(location):
		fetch := respcache.Wrap(l.cache, "items.fetch", l.ttl, l.fetchRemote,
			respcache.WithLogger(l.logger), respcache.WithObserver(l.observer))
		var doc remoteDocument
		doc, err = fetch(ctx, Source{Location: location})
		data = doc.Body
	case location == "-":
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err = io.ReadAll(io.LimitReader(stdin, maxDocumentBytes))
	default:
		data, err = os.ReadFile(location)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "items", "load", fmt.Sprintf("Failed to read %s", location), err)
	}

	format := src.Format
	if format == "" {
		format = detectFormat(location, data)
	}
	batch, err := Decode(data, format)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "items", "decode", fmt.Sprintf("Failed to decode %s", location), err)
	}
	l.logger.Debug("loaded item batch",
		logging.String("source", location),
		logging.String("format", format),
		logging.Int("items", len(batch)))
	return batch, nil
}

type remoteDocument struct {
	Body []byte `json:"body"`
}

func (l *Loader) fetchRemote(ctx context.Context, src Source) (remoteDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return remoteDocument{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return remoteDocument{}, fmt.Errorf("fetch items: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return remoteDocument{}, fmt.Errorf("fetch items: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return remoteDocument{}, fmt.Errorf("read items: %w", err)
	}
	return remoteDocument{Body: body}, nil
}

// Decode parses a batch document. format is "json" or "yaml"; both accept
// either a bare list or an object with an "items" list.
func Decode(data []byte, format string) ([]Item, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch strings.ToLower(format) {
	case "json":
		if trimmed[0] == '{' {
			var wrapper struct {
				Items []Item `json:"items"`
			}
			if err := json.Unmarshal(trimmed, &wrapper); err != nil {
				return nil, err
			}
			return wrapper.Items, nil
		}
		var batch []Item
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return nil, err
		}
		return batch, nil
	case "yaml", "yml":
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, err
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.MappingNode {
			var wrapper struct {
				Items []Item `yaml:"items"`
			}
			if err := node.Decode(&wrapper); err != nil {
				return nil, err
			}
			return wrapper.Items, nil
		}
		var batch []Item
		if err := node.Decode(&batch); err != nil {
			return nil, err
		}
		return batch, nil
	default:
		return nil, fmt.Errorf("unsupported item format %q", format)
	}
}

func detectFormat(location string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(strings.SplitN(location, "?", 2)[0]))
	switch ext {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return "json"
	}
	return "yaml"
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
