package fetcher

import (
	"context"

	"go.uber.org/zap"
)

// Promoting fetches with Primary and refetches with Headless when Detect
// flags the body as a client-rendered shell.
type Promoting struct {
	Primary  Fetcher
	Headless Fetcher
	Detect   func(body []byte) bool
	Logger   *zap.Logger
}

// Fetch implements Fetcher.
func (p Promoting) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := p.Primary.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if p.Headless == nil || p.Detect == nil || !p.Detect(body) {
		return body, nil
	}
	if p.Logger != nil {
		p.Logger.Info("promoting to headless fetch", zap.String("url", url), zap.Int("bytes", len(body)))
	}
	return p.Headless.Fetch(ctx, url)
}
