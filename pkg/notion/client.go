// Package notion exposes the Notion API calls the record store needs:
// database queries and page reads and writes, throttled to Notion's limit.
package notion

import (
	"context"
	"errors"
	"net/http"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// defaultRPS is Notion's documented average request limit.
const defaultRPS = 3

// Client is the subset of the Notion API used by the record store.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	GetPage(ctx context.Context, pageID string) (*notionapi.Page, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// ClientOption configures NewClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	rps        float64
	httpClient *http.Client
}

// WithRateLimit sets the request rate. Zero or less disables throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(o *clientOptions) { o.rps = rps }
}

// WithHTTPClient sends requests through hc.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(o *clientOptions) { o.httpClient = hc }
}

type throttledClient struct {
	api     *notionapi.Client
	limiter *rate.Limiter
}

// NewClient returns a Client authenticated with an integration token.
func NewClient(token string, opts ...ClientOption) Client {
	o := clientOptions{rps: defaultRPS}
	for _, opt := range opts {
		opt(&o)
	}

	var apiOpts []notionapi.ClientOption
	if o.httpClient != nil {
		apiOpts = append(apiOpts, notionapi.WithHTTPClient(o.httpClient))
	}
	c := &throttledClient{api: notionapi.NewClient(notionapi.Token(token), apiOpts...)}
	if o.rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(o.rps), max(int(o.rps), 1))
	}
	return c
}

func (c *throttledClient) throttle(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "notion: rate limit")
	}
	return nil
}

func (c *throttledClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query database %s", dbID)
	}
	return resp, nil
}

func (c *throttledClient) GetPage(ctx context.Context, pageID string) (*notionapi.Page, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	page, err := c.api.Page.Get(ctx, notionapi.PageID(pageID))
	if err != nil {
		return nil, eris.Wrapf(err, "notion: get page %s", pageID)
	}
	return page, nil
}

func (c *throttledClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	page, err := c.api.Page.Create(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: create page")
	}
	return page, nil
}

func (c *throttledClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	page, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), req)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: update page %s", pageID)
	}
	return page, nil
}

// IsNotFound reports whether err is Notion's object_not_found response.
func IsNotFound(err error) bool {
	var apiErr *notionapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound || apiErr.Code == "object_not_found"
}
