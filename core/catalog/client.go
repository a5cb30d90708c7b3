package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"inventory-reconciler/core/retry"

	"golang.org/x/sync/singleflight"
)

// Header names used by the CMR search API.
const (
	HeaderHits        = "CMR-Hits"
	HeaderSearchAfter = "CMR-Search-After"
	HeaderClientID    = "Client-Id"
)

const maxErrorBody = 512

// Searcher lists the collections and granules of a provider page by page.
type Searcher interface {
	SearchCollections(ctx context.Context, q Query) (Result[Collection], error)
	SearchGranules(ctx context.Context, q Query) (Result[Granule], error)
}

var _ Searcher = (*Client)(nil)

// Client is a CMR search client.
type Client struct {
	cfg  Config
	base *url.URL
	http *http.Client

	tokenMu sync.Mutex
	token   string
	login   singleflight.Group
}

// NewClient validates cfg and builds a client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("catalog url is not configured")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid catalog url %q", cfg.URL)
	}
	if cfg.Provider == "" {
		return nil, fmt.Errorf("catalog provider is not configured")
	}
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.Timeout())
	}
	return &Client{cfg: cfg, base: base, http: httpClient, token: cfg.Token}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Provider returns the provider searches are restricted to.
func (c *Client) Provider() string {
	return c.cfg.Provider
}

// PageSize returns the effective search page size.
func (c *Client) PageSize() int {
	return c.cfg.EffectivePageSize()
}

// SearchCollections returns one page of the provider's collections.
func (c *Client) SearchCollections(ctx context.Context, q Query) (Result[Collection], error) {
	var out Result[Collection]
	items, hits, after, err := c.search(ctx, "collections", q)
	if err != nil {
		return out, err
	}
	out.Hits, out.SearchAfter = hits, after
	out.Items = make([]Collection, 0, len(items))
	for _, it := range items {
		var umm ummCollection
		if err := json.Unmarshal(it.UMM, &umm); err != nil {
			return out, retry.Permanent(fmt.Errorf("%w: collection %s: %v", ErrMalformedResponse, it.Meta.ConceptID, err))
		}
		out.Items = append(out.Items, Collection{
			ConceptID: it.Meta.ConceptID,
			ShortName: umm.ShortName,
			Version:   umm.Version,
		})
	}
	return out, nil
}

// SearchGranules returns one page of the provider's granules.
func (c *Client) SearchGranules(ctx context.Context, q Query) (Result[Granule], error) {
	var out Result[Granule]
	items, hits, after, err := c.search(ctx, "granules", q)
	if err != nil {
		return out, err
	}
	out.Hits, out.SearchAfter = hits, after
	out.Items = make([]Granule, 0, len(items))
	for _, it := range items {
		var umm ummGranule
		if err := json.Unmarshal(it.UMM, &umm); err != nil {
			return out, retry.Permanent(fmt.Errorf("%w: granule %s: %v", ErrMalformedResponse, it.Meta.ConceptID, err))
		}
		out.Items = append(out.Items, Granule{
			ConceptID: it.Meta.ConceptID,
			GranuleUR: umm.GranuleUR,
			ShortName: umm.CollectionReference.ShortName,
			Version:   umm.CollectionReference.Version,
		})
	}
	return out, nil
}

// search runs a UMM JSON search. Hits is -1 when the catalog did not report it.
func (c *Client) search(ctx context.Context, concept string, q Query) ([]ummItem, int, string, error) {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = c.PageSize()
	}
	pageNum := q.PageNum
	if pageNum <= 0 {
		pageNum = 1
	}

	params := url.Values{}
	params.Set("provider_short_name", c.cfg.Provider)
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("sort_key", sortKey(concept))
	// With search-after, the token positions the page and page_num must be omitted.
	if q.SearchAfter == "" {
		params.Set("page_num", strconv.Itoa(pageNum))
	}

	u := c.base.JoinPath("search", concept+".umm_json")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, "", retry.Permanent(err)
	}
	req.Header.Set("Accept", "application/vnd.nasa.cmr.umm_results+json")
	if q.SearchAfter != "" {
		req.Header.Set(HeaderSearchAfter, q.SearchAfter)
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, 0, "", err
	}
	defer resp.Body.Close()

	var body ummResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if ctx.Err() != nil {
			return nil, 0, "", ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, 0, "", fmt.Errorf("read %s: %w", concept, err)
		}
		return nil, 0, "", retry.Permanent(fmt.Errorf("%w: %s: %v", ErrMalformedResponse, concept, err))
	}

	hits := -1
	if h, err := strconv.Atoi(resp.Header.Get(HeaderHits)); err == nil {
		hits = h
	} else if body.Hits != nil {
		hits = *body.Hits
	}
	return body.Items, hits, resp.Header.Get(HeaderSearchAfter), nil
}

func sortKey(concept string) string {
	if concept == "granules" {
		return "granule_ur"
	}
	return "short_name"
}

// do sends req with credentials and classifies the failure. Permanent
// failures are wrapped with retry.Permanent.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	if c.cfg.ClientID != "" {
		req.Header.Set(HeaderClientID, c.cfg.ClientID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("catalog %s %s: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	se := &StatusError{
		Method:     req.Method,
		URL:        req.URL.Path,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(snippet)),
	}
	if IsUnauthorized(se) && c.cfg.Token == "" {
		// Drop the exchanged token so the next attempt logs in again.
		c.clearToken(token)
	}
	if se.Temporary() {
		return nil, se
	}
	return nil, retry.Permanent(se)
}

// accessToken returns the static token or one obtained with the configured
// username and password. Concurrent callers share a single login.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	token := c.token
	c.tokenMu.Unlock()
	if token != "" || c.cfg.Username == "" {
		return token, nil
	}

	v, err, _ := c.login.Do("token", func() (any, error) {
		t, err := c.fetchToken(ctx)
		if err != nil {
			return "", err
		}
		c.tokenMu.Lock()
		c.token = t
		c.tokenMu.Unlock()
		return t, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) clearToken(stale string) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	if c.token == stale {
		c.token = ""
	}
}

type tokenRequest struct {
	Token struct {
		Username string `json:"username"`
		Password string `json:"password"`
		ClientID string `json:"client_id"`
		UserIP   string `json:"user_ip_address"`
		Provider string `json:"provider"`
	} `json:"token"`
}

type tokenResponse struct {
	Token struct {
		ID string `json:"id"`
	} `json:"token"`
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	var body tokenRequest
	body.Token.Username = c.cfg.Username
	body.Token.Password = c.cfg.Password
	body.Token.ClientID = c.cfg.ClientID
	body.Token.UserIP = "127.0.0.1"
	body.Token.Provider = c.cfg.Provider

	payload, err := json.Marshal(body)
	if err != nil {
		return "", retry.Permanent(err)
	}

	u := c.base.JoinPath("legacy-services", "rest", "tokens")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return "", retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("catalog login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se := &StatusError{Method: req.Method, URL: req.URL.Path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
		if se.Temporary() {
			return "", se
		}
		return "", retry.Permanent(se)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil || tr.Token.ID == "" {
		return "", retry.Permanent(fmt.Errorf("%w: token response", ErrMalformedResponse))
	}
	return tr.Token.ID, nil
}
