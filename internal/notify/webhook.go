package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/andresuchdata/tmdb-mirror/internal/config"
	"github.com/andresuchdata/tmdb-mirror/internal/ingest"
	"github.com/rs/zerolog/log"
)

const maxRetries = 6

// Webhook posts job announcements to a single webhook URL with HTTP Basic
// credentials. Delivery failures are logged and never propagate to the job.
type Webhook struct {
	cfg        config.WebhookConfig
	httpClient *http.Client
}

func NewWebhook(cfg config.WebhookConfig) *Webhook {
	return &Webhook{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Announce sends a plain message.
func (w *Webhook) Announce(ctx context.Context, message string) {
	if !w.cfg.Enabled {
		return
	}
	w.post(ctx, map[string]any{"content": message})
}

// Report sends a job report document. Degraded runs carry a warning in the
// message body.
func (w *Webhook) Report(ctx context.Context, report ingest.Report) {
	if !w.cfg.Enabled {
		return
	}
	content := fmt.Sprintf("**TMDB Mirror:** job %s finished.", report.Job)
	if report.Degraded {
		content = fmt.Sprintf("**TMDB Mirror WARNING:** job %s finished with %.1f%% of ids failing.",
			report.Job, report.ErrorRate*100)
	}
	w.post(ctx, map[string]any{"content": content, "report": report})
}

func (w *Webhook) post(ctx context.Context, doc map[string]any) {
	body, err := json.Marshal(doc)
	if err != nil {
		log.Error().Err(err).Msg("could not encode webhook document")
		return
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
		if err != nil {
			log.Error().Err(err).Msg("could not build webhook request")
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth(w.cfg.BotUser, w.cfg.BotPass)

		resp, err := w.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				log.Debug().Msg("webhook sent")
				return
			}
			log.Warn().Int("status", resp.StatusCode).Msg("webhook delivery rejected, retrying")
		} else {
			log.Warn().Err(err).Msg("webhook delivery failed, retrying")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
	log.Warn().Int("retries", maxRetries).Msg("webhook failed after retries")
}
