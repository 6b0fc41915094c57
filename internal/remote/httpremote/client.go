// Package httpremote implements remote.Store against the record-store HTTP
// API using resty.
package httpremote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
)

// Client talks to the record-store service. It performs no retries; callers
// own retry policy.
type Client struct {
	rc  *resty.Client
	log zerolog.Logger
}

// New constructs a Client for baseURL.
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{rc: rc, log: log}
}

type listResponse struct {
	Records []remote.Record `json:"records"`
	Count   int             `json:"count"`
}

func (c *Client) Fetch(ctx context.Context, kind model.Kind, parentIDs []string) ([]remote.Record, error) {
	req := c.rc.R().SetContext(ctx).SetResult(&listResponse{})
	if len(parentIDs) > 0 {
		q := url.Values{}
		for _, p := range parentIDs {
			q.Add("parent", p)
		}
		req.SetQueryParamsFromValues(q)
	}
	resp, err := req.Get(fmt.Sprintf("/v0/records/%s", kind))
	if err := classify(resp, err); err != nil {
		return nil, err
	}
	out := resp.Result().(*listResponse)
	return out.Records, nil
}

func (c *Client) FetchOne(ctx context.Context, kind model.Kind, id string) (remote.Record, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&remote.Record{}).
		Get(fmt.Sprintf("/v0/records/%s/%s", kind, id))
	if err := classify(resp, err); err != nil {
		return remote.Record{}, err
	}
	return *resp.Result().(*remote.Record), nil
}

func (c *Client) Save(ctx context.Context, rec remote.Record) (remote.Record, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(rec).
		SetResult(&remote.Record{}).
		Put(fmt.Sprintf("/v0/records/%s/%s", rec.Kind, rec.ID))
	if err := classify(resp, err); err != nil {
		return remote.Record{}, err
	}
	return *resp.Result().(*remote.Record), nil
}

func (c *Client) Delete(ctx context.Context, kind model.Kind, id string) error {
	c.log.Debug().Str("kind", string(kind)).Str("id", id).Msg("remote delete")
	resp, err := c.rc.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/v0/records/%s/%s", kind, id))
	return classify(resp, err)
}

// Ping probes the record store's health endpoint. Used by the connectivity
// monitor.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.rc.R().SetContext(ctx).Get("/v0/health")
	return classify(resp, err)
}

// classify maps transport failures and HTTP status codes onto the remote
// error taxonomy.
func classify(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", remote.ErrUnavailable, err)
	}
	code := resp.StatusCode()
	switch {
	case code < 400:
		return nil
	case code == http.StatusNotFound:
		return remote.ErrNotFound
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return fmt.Errorf("%w: status %d", remote.ErrUnavailable, code)
	default:
		return fmt.Errorf("%w: status %d: %s", remote.ErrRejected, code, resp.String())
	}
}
