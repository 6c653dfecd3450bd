package httpds

import (
	"context"
	"io"
)

// Source is a remote CSV location fetched through a Client.
type Source struct {
	client *Client
	url    string
}

// NewSource binds url to client. A nil client gets the defaults.
func NewSource(client *Client, url string) *Source {
	if client == nil {
		client = NewClient(Config{})
	}
	return &Source{client: client, url: url}
}

// URL returns the bound location.
func (s *Source) URL() string { return s.url }

// Open downloads the resource and returns its body.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	return s.client.Get(ctx, s.url)
}
