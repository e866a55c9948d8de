// Package daclient is a thin client for the docassemble HTTP API,
// covering the package and Playground install endpoints and their status
// polling.
package daclient

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	dacerrors "github.com/jpagh/docassemblecli3/internal/dacli/errors"
	"github.com/jpagh/docassemblecli3/internal/log"
)

// Client talks to one docassemble server
type Client struct {
	URL    string
	APIKey string
	HTTP   *req.Client

	// PollInterval is the delay between status polls; overridable in tests
	PollInterval time.Duration
	// MaxPolls bounds the status poll loop
	MaxPolls int
}

// New creates a client for the given server URL and API key
func New(apiurl, apikey string) (*Client, error) {
	if apiurl == "" {
		return nil, dacerrors.ErrEmptyURL
	}
	return &Client{
		URL:          strings.TrimRight(apiurl, "/"),
		APIKey:       apikey,
		HTTP:         createClient(apikey),
		PollInterval: time.Second,
		MaxPolls:     300,
	}, nil
}

// createClient builds an HTTP client with connection pooling tuned for
// repeated install calls
func createClient(apikey string) *req.Client {
	client := req.C().
		SetUserAgent("docassemblecli3").
		SetCommonHeader("X-API-Key", apikey).
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // G402: self-signed certs are common on dev servers
			MinVersion:         tls.VersionTLS12,
		}).
		SetTimeout(10 * time.Minute). // package installs can be slow
		EnableKeepAlives()

	transport := client.GetTransport()
	if transport != nil {
		transport.SetMaxIdleConns(10).
			SetIdleConnTimeout(90 * time.Second).
			SetMaxConnsPerHost(4)
	}

	return client
}

// requestExecutor is a function that executes an HTTP request
type requestExecutor func(*req.Request, string) (*req.Response, error)

// doRequest handles common request logic: URL assembly, status checking
// and JSON unmarshalling. okStatuses lists the acceptable status codes.
func (c *Client) doRequest(method, path string, data any, okStatuses []int, executor requestExecutor) (int, error) {
	if c == nil || c.HTTP == nil {
		return 0, fmt.Errorf("client is not initialized")
	}

	fullURL := c.URL + path
	log.DebugH2("Making %s request to: %s", method, fullURL)

	resp, err := executor(c.HTTP.R(), fullURL)
	if err != nil {
		return 0, dacerrors.Wrapf(dacerrors.ErrAPIConnection, "%s %s: %v", method, fullURL, err)
	}

	if resp.StatusCode == 403 {
		return resp.StatusCode, dacerrors.Wrapf(dacerrors.ErrInvalidAPIKey, "%s", strings.TrimSpace(resp.String()))
	}
	ok := false
	for _, s := range okStatuses {
		if resp.StatusCode == s {
			ok = true
			break
		}
	}
	if !ok {
		return resp.StatusCode, fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(resp.String()))
	}

	if data != nil && len(resp.Bytes()) > 0 {
		if err := resp.UnmarshalJson(data); err != nil {
			return resp.StatusCode, fmt.Errorf("error unmarshal json: %w, %s", err, resp.String())
		}
	}

	return resp.StatusCode, nil
}

func (c *Client) get(path string, params map[string]string, data any) error {
	_, err := c.doRequest("GET", path, data, []int{200}, func(r *req.Request, url string) (*req.Response, error) {
		return r.SetQueryParams(params).Get(url)
	})
	return err
}

func (c *Client) post(path string, data any, okStatuses ...int) (int, error) {
	return c.doRequest("POST", path, data, okStatuses, func(r *req.Request, url string) (*req.Response, error) {
		return r.Post(url)
	})
}

func (c *Client) postForm(path string, form map[string]string, data any, okStatuses ...int) (int, error) {
	return c.doRequest("POST", path, data, okStatuses, func(r *req.Request, url string) (*req.Response, error) {
		return r.SetFormData(form).Post(url)
	})
}

func (c *Client) postFile(path, field, file string, form map[string]string, data any, okStatuses ...int) (int, error) {
	if _, err := os.Stat(file); err != nil {
		return 0, dacerrors.Wrapf(dacerrors.ErrFileNotFound, "%s", file)
	}
	return c.doRequest("POST", path, data, okStatuses, func(r *req.Request, url string) (*req.Response, error) {
		return r.SetFormData(form).SetFile(field, file).Post(url)
	})
}
