package client

import (
	"context"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spursup/feedserver/pkg/feed"
	"github.com/spursup/feedserver/pkg/handler"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrCollectRejected is returned when the server is already collecting
var ErrCollectRejected = errors.New("collection already in progress")

// Client a feed server client
type (
	Client struct {
		server     string
		httpClient *http.Client
	}
	Option func(*Client)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// New creates a client for the feed server at the given base URL.
// Caution: the provided server url is not validated!
func New(server string, opts ...Option) *Client {
	inst := &Client{
		server:     strings.TrimSuffix(server, "/"),
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithHTTPClient(v *http.Client) Option {
	return func(o *Client) {
		o.httpClient = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Items fetches the current snapshot
func (c *Client) Items(ctx context.Context) (*feed.Snapshot, error) {
	snapshot := &feed.Snapshot{}
	if err := c.get(ctx, "/items.json", snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Health fetches the server health
func (c *Client) Health(ctx context.Context) (*handler.HealthResponse, error) {
	response := &handler.HealthResponse{}
	if err := c.get(ctx, "/health", response); err != nil {
		return nil, err
	}
	return response, nil
}

// Collect tells the server to re-collect its feeds. The token may be empty
// when the server runs without a collect guard.
func (c *Client) Collect(ctx context.Context, token string) (*handler.CollectResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+"/collect", nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create collect request")
	}
	if token != "" {
		req.Header.Set(handler.CollectTokenHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call collect")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		response := &handler.CollectResponse{}
		return response, decode(resp.Body, response)
	case http.StatusServiceUnavailable:
		return nil, ErrCollectRejected
	case http.StatusUnauthorized:
		return nil, errors.New("unauthorized: invalid collect token")
	default:
		return nil, errors.Errorf("unexpected response status %q", resp.Status)
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Client) get(ctx context.Context, path string, response interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.server+path, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to create request for %s", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to get %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected response status %q for %s", resp.Status, path)
	}
	return decode(resp.Body, response)
}

func decode(r io.Reader, response interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}
	return errors.Wrap(json.Unmarshal(data, response), "failed to unmarshal response")
}
