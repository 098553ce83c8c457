package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const (
	apiBaseURL    = "https://api.themoviedb.org"
	exportBaseURL = "http://files.tmdb.org/p/exports"

	maxAttempts    = 5
	requestTimeout = 30 * time.Second
)

var (
	// ErrNotFound is the typed 404: a data signal for missing-id probes and
	// changes-driven deletes, not a failure.
	ErrNotFound = errors.New("upstream record not found")

	// ErrUnauthorized marks 401/403 responses; fatal to the running job.
	ErrUnauthorized = errors.New("upstream rejected credentials")
)

// Family selects the movie or series side of the upstream API.
type Family string

const (
	FamilyMovie  Family = "movie"
	FamilySeries Family = "series"
)

// Endpoint returns the upstream path segment for the family.
func (f Family) Endpoint() string {
	if f == FamilySeries {
		return "tv"
	}
	return "movie"
}

// ExportName returns the export file prefix for the family.
func (f Family) ExportName() string {
	if f == FamilySeries {
		return "tv_series"
	}
	return "movie"
}

// Client issues authenticated upstream requests through the shared limiter.
type Client struct {
	httpClient *http.Client
	limiter    *Limiter
	token      string

	// Overridable in tests.
	APIBase    string
	ExportBase string
}

func NewClient(token string, limiter *Limiter) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    limiter,
		token:      token,
		APIBase:    apiBaseURL,
		ExportBase: exportBaseURL,
	}
}

// retryAfter reads the Retry-After header as a delay, when present.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// getJSON performs one rate-limited GET with retries and decodes the body
// into out. Transport errors, 5xx and 429 are retried with exponential
// backoff and jitter up to 5 attempts; 429 honors Retry-After.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	operation := func() error {
		if err := c.limiter.Acquire(ctx); err != nil {
			return backoff.Permanent(err)
		}
		defer c.limiter.Release()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode))
		case resp.StatusCode == http.StatusTooManyRequests:
			if delay := retryAfter(resp); delay > 0 {
				select {
				case <-ctx.Done():
					return backoff.Permanent(ctx.Err())
				case <-time.After(delay):
				}
			}
			return fmt.Errorf("rate limited by upstream (429)")
		case resp.StatusCode >= 500:
			return fmt.Errorf("upstream returned status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("upstream returned status %d", resp.StatusCode))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode upstream response: %w", err))
		}
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAttempts-1), ctx)
	notify := func(err error, next time.Duration) {
		log.Warn().Err(err).Str("url", url).Dur("backoff", next).Msg("retrying upstream request")
	}
	return backoff.RetryNotify(operation, bo, notify)
}

// FetchMovie pulls the full movie aggregate in one request.
func (c *Client) FetchMovie(ctx context.Context, id int64) (*MovieRecord, error) {
	url := fmt.Sprintf(
		"%s/3/movie/%d?append_to_response=alternative_titles,credits,external_ids,keywords,release_dates,videos",
		c.APIBase, id)
	var rec MovieRecord
	if err := c.getJSON(ctx, url, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FetchSeries pulls the full series aggregate in one request.
func (c *Client) FetchSeries(ctx context.Context, id int64) (*SeriesRecord, error) {
	url := fmt.Sprintf(
		"%s/3/tv/%d?append_to_response=alternative_titles,credits,external_ids,keywords,videos",
		c.APIBase, id)
	var rec SeriesRecord
	if err := c.getJSON(ctx, url, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FetchChanges paginates /changes for the window and returns changed ids in
// upstream order, skipping adult entries.
func (c *Client) FetchChanges(ctx context.Context, family Family, start, end time.Time) ([]int64, error) {
	var ids []int64
	page := 1
	totalPages := 1
	for page <= totalPages {
		url := fmt.Sprintf("%s/3/%s/changes?start_date=%s&end_date=%s&page=%d",
			c.APIBase, family.Endpoint(),
			start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"), page)
		var p changesPage
		if err := c.getJSON(ctx, url, &p); err != nil {
			return nil, fmt.Errorf("fetch %s changes page %d: %w", family, page, err)
		}
		for _, entry := range p.Results {
			if entry.Adult {
				continue
			}
			ids = append(ids, entry.ID)
		}
		if p.TotalPages > 0 {
			totalPages = p.TotalPages
		}
		page++
	}
	return ids, nil
}
