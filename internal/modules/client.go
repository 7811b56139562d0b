package modules

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/joss/termfolio/internal/dispatch"
)

const maxBody = 1 << 20

// Client fetches module documents from the portfolio API.
type Client struct {
	base      string
	http      dispatch.Doer
	timeout   time.Duration
	endpoints map[string]string
}

// NewClient creates a client for base. endpoints overrides the path of a
// module by name; a value starting with "/" is joined to base, an absolute
// URL is used as is.
func NewClient(base string, doer dispatch.Doer, timeout time.Duration, endpoints map[string]string) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:      strings.TrimRight(base, "/"),
		http:      doer,
		timeout:   timeout,
		endpoints: endpoints,
	}
}

// URL is the address the named endpoint is fetched from.
func (c *Client) URL(endpoint string) string {
	if override, ok := c.endpoints[endpoint]; ok {
		if strings.HasPrefix(override, "http://") || strings.HasPrefix(override, "https://") {
			return override
		}
		return c.base + "/" + strings.TrimLeft(override, "/")
	}
	return c.base + "/api/" + endpoint
}

// Resolve turns a link from a document into something a viewer can open.
// Site-relative paths are joined to base.
func (c *Client) Resolve(link string) string {
	if strings.HasPrefix(link, "/") && !strings.HasPrefix(link, "//") {
		return c.base + link
	}
	return link
}

// Fetch GETs endpoint and validates the body against schema.
func (c *Client) Fetch(ctx context.Context, endpoint string, schema Schema) (gjson.Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(endpoint), nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, fmt.Errorf("%w: %s returned %d", ErrStatus, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read %s: %w", endpoint, err)
	}
	if len(body) > maxBody {
		return gjson.Result{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, endpoint, maxBody)
	}
	return schema.Validate(body)
}
