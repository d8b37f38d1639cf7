// Package fetcher defines how source documents are retrieved over the network.
package fetcher

import "context"

// Fetcher retrieves the body of a single URL. Any transport failure or
// non-success status is returned as an error; callers treat it as fatal.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Func adapts a plain function to Fetcher.
type Func func(ctx context.Context, url string) ([]byte, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}
