package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/diamond-entries/internal/cache"
	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/fetcher"
	"github.com/JakeFAU/diamond-entries/internal/metrics"
)

// Documents serves source pages from the cache store, fetching and
// checkpointing the ones it has not seen.
type Documents struct {
	Kind    Kind
	Fetcher fetcher.Fetcher
	Store   *cache.Store
	Logger  *zap.Logger
}

// Get returns the document cached under key, fetching url on a miss.
func (d Documents) Get(
	ctx context.Context,
	meet entries.Meet,
	key cache.Key,
	url string,
	checkpoint Checkpoint,
) (string, error) {
	if text, ok := d.Store.Get(meet, key); ok {
		metrics.ObserveDocument(string(d.Kind), metrics.OriginCache)
		return text, nil
	}
	body, err := d.Fetcher.Fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", meet, key.Name, err)
	}
	text := string(body)
	d.Store.Set(meet, key, text)
	if err := checkpoint(); err != nil {
		return "", fmt.Errorf("checkpoint after %s: %w", url, err)
	}
	metrics.ObserveDocument(string(d.Kind), metrics.OriginNetwork)
	if d.Logger != nil {
		d.Logger.Info("fetched source document",
			zap.String("meet", string(meet)),
			zap.String("source", string(d.Kind)),
			zap.String("key", key.Name),
			zap.String("url", url),
		)
	}
	return text, nil
}
