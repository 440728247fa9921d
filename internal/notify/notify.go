package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.resend.com"

// Email is one transactional message. Bodies are plain text; templating
// belongs to the email service, not this core.
type Email struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Mailer sends a single email. Implemented by HTTPMailer; tests use fakes.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// HTTPMailer posts to a JSON email API with Bearer auth.
type HTTPMailer struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewHTTPMailer returns nil when no API key is configured, which puts the
// dispatcher into log-and-skip mode.
func NewHTTPMailer(apiKey, baseURL string) *HTTPMailer {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HTTPMailer{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *HTTPMailer) Send(ctx context.Context, e Email) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email API status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
