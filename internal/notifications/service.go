package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"yodel/internal/config"
)

const userAgent = "yodel/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventDownloadFailed    Event = "download_failed"
	EventStageWarning      Event = "stage_warning"
	EventDownloadCompleted Event = "download_completed"
	EventQueueCompleted    Event = "queue_completed"
	EventTest              Event = "test"
)

// Payload carries event fields. Keys are event specific: "title", "error",
// "stage", "processed", "failed", "duration".
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		errors:    cfg.Notifications.Errors,
		completed: cfg.Notifications.Completed,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	errors    bool
	completed bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	title := payloadString(payload, "title")
	switch event {
	case EventDownloadFailed:
		if !n.errors {
			return message{}, false
		}
		return message{
			title:    "yodel - Download Failed",
			body:     fmt.Sprintf("❌ %s: %s", fallback(title, "unknown track"), fallback(payloadString(payload, "error"), "unknown error")),
			tags:     []string{"yodel", "download", "failed"},
			priority: "high",
		}, true
	case EventStageWarning:
		if !n.errors {
			return message{}, false
		}
		return message{
			title: "yodel - Warning",
			body: fmt.Sprintf("⚠️ %s (%s): %s",
				fallback(title, "unknown track"),
				fallback(payloadString(payload, "stage"), "unknown stage"),
				fallback(payloadString(payload, "error"), "unknown error")),
			tags: []string{"yodel", "download", "warning"},
		}, true
	case EventDownloadCompleted:
		if !n.completed {
			return message{}, false
		}
		return message{
			title: "yodel - Downloaded",
			body:  fmt.Sprintf("🎵 Downloaded: %s", fallback(title, "unknown track")),
			tags:  []string{"yodel", "download", "completed"},
		}, true
	case EventQueueCompleted:
		if !n.completed {
			return message{}, false
		}
		processed := payloadInt(payload, "processed")
		failed := payloadInt(payload, "failed")
		duration := payloadDuration(payload, "duration")
		body := fmt.Sprintf("Queue drained: %d downloaded in %s", processed, duration)
		if failed > 0 {
			body = fmt.Sprintf("Queue drained: %d downloaded, %d failed in %s", processed, failed, duration)
		}
		return message{
			title: "yodel - Queue Complete",
			body:  body,
			tags:  []string{"yodel", "queue", "completed"},
		}, true
	case EventTest:
		return message{
			title:    "yodel - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"yodel", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	switch v := payload[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func payloadInt(payload Payload, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func payloadDuration(payload Payload, key string) time.Duration {
	d, _ := payload[key].(time.Duration)
	d = d.Round(time.Second)
	if d < 0 {
		return 0
	}
	return d
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
