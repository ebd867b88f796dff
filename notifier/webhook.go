package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"logviewer/logger"
)

type WebhookMessage struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"`
}

// Notifier posts alerts to a webhook. An empty URL makes it a no-op.
type Notifier struct {
	URL    string
	Client *http.Client

	wg sync.WaitGroup
}

func New(url string) *Notifier {
	return &Notifier{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

// SendAlert posts asynchronously so callers on the request path never block.
func (n *Notifier) SendAlert(msg string, severity string) {
	if n == nil || n.URL == "" {
		return
	}

	payload := WebhookMessage{
		Text:      fmt.Sprintf("[LogViewer Alert] %s", msg),
		Timestamp: time.Now().UTC(),
		Severity:  severity,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to encode webhook alert", "err", err)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		resp, err := n.Client.Post(n.URL, "application/json", bytes.NewReader(data))
		if err != nil {
			logger.Error("Failed to send webhook alert", "err", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			logger.Warn("Webhook returned non-OK status", "status", resp.Status)
		}
	}()
}

// Wait blocks until in-flight alerts finish.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}
