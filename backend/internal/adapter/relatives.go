package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"gedgraph/backend/internal/person"
	"gedgraph/backend/pkg/logger"
)

// RelativesClient talks to the remote relative service.
//
//	GET {base}/relatives?ids=a,b&edges=parents,spouses -> {"people": [...]}
//	GET {base}/people/{id}/relatives?edges=...         -> {"person": {...}}
//	GET {base}/people/{id}/ancestors?depth=N           -> {"ancestors": [...]}
type RelativesClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	cache      *lru.Cache[string, person.Raw]
	ancestors  *lru.Cache[string, []person.Raw]
	logger     *zap.Logger
}

// Options configures a RelativesClient.
type Options struct {
	Token      string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration // Wait before retry n is n*Backoff
	CacheSize  int           // Zero disables caching
}

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relative service returned %d: %s", e.Code, e.Body)
}

// Temporary reports whether retrying may help.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// NewRelativesClient creates a client for the service at baseURL.
func NewRelativesClient(baseURL string, opts Options) (*RelativesClient, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}

	c := &RelativesClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      opts.Token,
		httpClient: &http.Client{Timeout: opts.Timeout},
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     logger.Get(),
	}
	if opts.CacheSize > 0 {
		var err error
		if c.cache, err = lru.New[string, person.Raw](opts.CacheSize); err != nil {
			return nil, fmt.Errorf("create relatives cache: %w", err)
		}
		if c.ancestors, err = lru.New[string, []person.Raw](opts.CacheSize); err != nil {
			return nil, fmt.Errorf("create ancestors cache: %w", err)
		}
	}
	return c, nil
}

// FetchRelatives fetches ids in one batched call. Cached records are served
// locally and only the rest are requested.
func (c *RelativesClient) FetchRelatives(ctx context.Context, ids []string, mask person.EdgeMask) ([]person.Raw, error) {
	found := make(map[string]person.Raw, len(ids))
	var missing []string
	for _, id := range ids {
		if raw, ok := c.cached(id, mask); ok {
			found[id] = raw
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		q := url.Values{}
		q.Set("ids", strings.Join(missing, ","))
		q.Set("edges", strings.Join(mask.Names(), ","))

		var body struct {
			People []person.Raw `json:"people"`
		}
		if err := c.get(ctx, "/relatives?"+q.Encode(), &body); err != nil {
			return nil, err
		}
		for _, raw := range body.People {
			found[raw.ID] = raw
			c.store(raw, mask)
		}
	}

	out := make([]person.Raw, 0, len(ids))
	for _, id := range ids {
		if raw, ok := found[id]; ok {
			out = append(out, raw)
		}
	}
	c.logger.Debug("Fetched relatives",
		zap.Int("requested", len(ids)),
		zap.Int("from_cache", len(ids)-len(missing)),
		zap.Int("returned", len(out)),
	)
	return out, nil
}

// FetchRelative fetches one record.
func (c *RelativesClient) FetchRelative(ctx context.Context, id string, mask person.EdgeMask) (person.Raw, error) {
	if raw, ok := c.cached(id, mask); ok {
		return raw, nil
	}

	q := url.Values{}
	q.Set("edges", strings.Join(mask.Names(), ","))
	var body struct {
		Person person.Raw `json:"person"`
	}
	if err := c.get(ctx, "/people/"+url.PathEscape(id)+"/relatives?"+q.Encode(), &body); err != nil {
		return person.Raw{}, err
	}
	c.store(body.Person, mask)
	return body.Person, nil
}

// FetchAncestors fetches the flat ancestor list of id.
func (c *RelativesClient) FetchAncestors(ctx context.Context, id string, depth int) ([]person.Raw, error) {
	key := id + "/" + strconv.Itoa(depth)
	if c.ancestors != nil {
		if raws, ok := c.ancestors.Get(key); ok {
			return raws, nil
		}
	}

	var body struct {
		Ancestors []person.Raw `json:"ancestors"`
	}
	path := "/people/" + url.PathEscape(id) + "/ancestors?depth=" + strconv.Itoa(depth)
	if err := c.get(ctx, path, &body); err != nil {
		return nil, err
	}
	if c.ancestors != nil {
		c.ancestors.Add(key, body.Ancestors)
	}
	return body.Ancestors, nil
}

func cacheKey(id string, mask person.EdgeMask) string {
	return mask.String() + "/" + id
}

func (c *RelativesClient) cached(id string, mask person.EdgeMask) (person.Raw, bool) {
	if c.cache == nil {
		return person.Raw{}, false
	}
	return c.cache.Get(cacheKey(id, mask))
}

func (c *RelativesClient) store(raw person.Raw, mask person.EdgeMask) {
	if c.cache != nil && raw.ID != "" {
		c.cache.Add(cacheKey(raw.ID, mask), raw)
	}
}

// get performs a GET with retry and decodes the JSON answer into out.
func (c *RelativesClient) get(ctx context.Context, path string, out any) error {
	var err error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.backoff
			c.logger.Warn("Retrying relative service request",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err = c.do(ctx, path, out)
		if err == nil {
			return nil
		}
		if se, ok := err.(*StatusError); ok && !se.Temporary() {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Error("Relative service request failed",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return fmt.Errorf("request %s failed after %d attempts: %w", path, c.maxRetries, err)
}

func (c *RelativesClient) do(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
