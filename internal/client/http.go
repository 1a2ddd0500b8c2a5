package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"llmnode/internal/domain"
)

// HTTP talks to a node's plain HTTP routes.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns an HTTP client for the node at base.
func NewHTTP(base string, hc *http.Client) *HTTP {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTP{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

// NodeInfo fetches the node's public key, address and fingerprint.
func (c *HTTP) NodeInfo(ctx context.Context) (domain.NodeInfo, error) {
	var out domain.NodeInfo
	if err := c.getJSON(ctx, "/v1/node", &out); err != nil {
		return domain.NodeInfo{}, err
	}
	return out, nil
}

// Health reports the node status and live session count.
func (c *HTTP) Health(ctx context.Context) (status string, sessions int, err error) {
	var out struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return "", 0, err
	}
	return out.Status, out.Sessions, nil
}

func (c *HTTP) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("node get %s: %s", req.URL, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
