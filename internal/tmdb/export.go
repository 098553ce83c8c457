package tmdb

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ExportSink receives the raw gzipped export bytes for archival. Optional.
type ExportSink interface {
	StoreExport(ctx context.Context, name string, data []byte) error
}

// ExportCache caches parsed id sets keyed by export file name. Optional.
type ExportCache interface {
	GetIDs(ctx context.Context, name string) ([]int64, bool)
	PutIDs(ctx context.Context, name string, ids []int64)
}

// ExportFetcher downloads the daily gzipped id-export files and produces id
// sets. Export downloads are unauthenticated and are not counted against the
// API rate limit.
type ExportFetcher struct {
	client     *Client
	httpClient *http.Client
	sink       ExportSink
	cache      ExportCache
}

func NewExportFetcher(client *Client, sink ExportSink, cache ExportCache) *ExportFetcher {
	return &ExportFetcher{
		client:     client,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		sink:       sink,
		cache:      cache,
	}
}

func exportFileName(family Family, day time.Time) string {
	return fmt.Sprintf("%s_ids_%02d_%02d_%d.json.gz",
		family.ExportName(), int(day.Month()), day.Day(), day.Year())
}

// FetchIDs downloads the export for the family and returns its non-adult id
// set. Today's UTC export is tried first; a 404 falls back to yesterday's,
// since the upstream publishes exports with a lag.
func (f *ExportFetcher) FetchIDs(ctx context.Context, family Family, now time.Time) ([]int64, error) {
	today := now.UTC()
	for _, day := range []time.Time{today, today.AddDate(0, 0, -1)} {
		name := exportFileName(family, day)

		if f.cache != nil {
			if ids, ok := f.cache.GetIDs(ctx, name); ok {
				log.Info().Str("export", name).Int("ids", len(ids)).Msg("export id set served from cache")
				return ids, nil
			}
		}

		ids, err := f.download(ctx, name)
		if errors.Is(err, ErrNotFound) {
			log.Warn().Str("export", name).Msg("export file not published yet, falling back")
			continue
		}
		if err != nil {
			return nil, err
		}

		if f.cache != nil {
			f.cache.PutIDs(ctx, name, ids)
		}
		return ids, nil
	}
	return nil, fmt.Errorf("no export file available for %s", family)
}

func (f *ExportFetcher) download(ctx context.Context, name string) ([]int64, error) {
	url := f.client.ExportBase + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download export %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download export %s: status %d", name, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read export %s: %w", name, err)
	}

	if f.sink != nil {
		if err := f.sink.StoreExport(ctx, name, raw); err != nil {
			log.Warn().Err(err).Str("export", name).Msg("failed to archive export file")
		}
	}

	return parseExport(raw)
}

// parseExport reads newline-delimited JSON, skipping adult entries and
// malformed lines.
func parseExport(raw []byte) ([]int64, error) {
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decompress export: %w", err)
	}
	defer gz.Close()

	var ids []int64
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry IDExportLine
		if err := json.Unmarshal(line, &entry); err != nil {
			log.Warn().Str("line", string(line)).Msg("skipping invalid export line")
			continue
		}
		if entry.Adult {
			continue
		}
		ids = append(ids, entry.ID)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan export: %w", err)
	}
	return ids, nil
}
