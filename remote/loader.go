// Package remote loads the feed from an HTTP endpoint.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/unkn0wn-root/feedcache/feed"
)

var (
	ErrConnectivity = errors.New("remote: connectivity")
	ErrInvalidData  = errors.New("remote: invalid data")
)

// RemoteLoader fetches and maps the feed at one URL.
type RemoteLoader struct {
	url    string
	client HTTPClient
}

var _ feed.Loader = (*RemoteLoader)(nil)

func NewRemoteLoader(url string, client HTTPClient) *RemoteLoader {
	return &RemoteLoader{url: url, client: client}
}

// Load fetches on its own goroutine and calls completion once.
func (l *RemoteLoader) Load(completion func([]feed.Image, error)) {
	go func() { completion(l.LoadContext(context.Background())) }()
}

// LoadContext is the blocking form of Load.
func (l *RemoteLoader) LoadContext(ctx context.Context) ([]feed.Image, error) {
	resp, err := l.client.Get(ctx, l.url)
	if errors.Is(err, ErrInvalidData) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	return mapItems(resp)
}
