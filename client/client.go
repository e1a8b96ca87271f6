package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/foomo/sitemaps/pkg/job"
	"github.com/foomo/sitemaps/pkg/utils"
	"github.com/foomo/sitemaps/requests"
	"github.com/foomo/sitemaps/responses"
	"github.com/pkg/errors"
)

// Client of the sitemaps admin api
type Client struct {
	t transport
}

// New client on top of any transport
func New(t transport) *Client {
	return &Client{t: t}
}

// NewHTTPClient client for the admin api below server, e.g. http://localhost:8080/sitemaps
func NewHTTPClient(server string, opts ...HTTPTransportOption) (*Client, error) {
	if !utils.IsValidUrl(server) {
		return nil, errors.Errorf("invalid server url %q", server)
	}
	return New(NewHTTPTransport(strings.TrimSuffix(server, "/"), opts...)), nil
}

// Update tell the server to reload its content export
func (c *Client) Update(ctx context.Context) (*responses.Update, error) {
	response := &responses.Update{}
	if err := c.t.call(ctx, http.MethodPost, "/update", &requests.Update{}, response); err != nil {
		return nil, err
	}
	return response, nil
}

// GetConfigs lists all sitemap configs
func (c *Client) GetConfigs(ctx context.Context) (*responses.Configs, error) {
	response := &responses.Configs{}
	if err := c.t.call(ctx, http.MethodGet, "/configs", nil, response); err != nil {
		return nil, err
	}
	return response, nil
}

// SaveConfig creates a config or replaces the one with the same id
func (c *Client) SaveConfig(ctx context.Context, request *requests.Config) (*responses.Config, error) {
	response := &responses.Config{}
	if err := c.t.call(ctx, http.MethodPut, "/configs", request, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) DeleteConfig(ctx context.Context, id string) error {
	return c.t.call(ctx, http.MethodDelete, "/configs/"+url.PathEscape(id), nil, nil)
}

// Generate runs the generation job for the given configs, or all of them
// job.ErrJobRunning is returned while another run is in progress
func (c *Client) Generate(ctx context.Context, ids ...string) (*responses.Job, error) {
	response := &responses.Job{}
	err := c.t.call(ctx, http.MethodPost, "/generate", &requests.Generate{IDs: ids}, response)
	var apiErr *responses.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		return nil, job.ErrJobRunning
	} else if err != nil {
		return nil, err
	}
	return response, nil
}

// Stop cancels a running generation
func (c *Client) Stop(ctx context.Context) error {
	return c.t.call(ctx, http.MethodPost, "/stop", nil, nil)
}
