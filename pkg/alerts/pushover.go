package alerts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultPushoverURL is the Pushover message endpoint.
const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

// PushoverNotifier delivers alerts to every configured Pushover user key.
type PushoverNotifier struct {
	apiURL     string
	token      string
	recipients []string
	client     *http.Client
}

// NewPushoverNotifier creates a Pushover notifier. An empty apiURL selects
// DefaultPushoverURL.
func NewPushoverNotifier(apiURL, token string, recipients []string) *PushoverNotifier {
	if apiURL == "" {
		apiURL = DefaultPushoverURL
	}
	return &PushoverNotifier{
		apiURL:     apiURL,
		token:      token,
		recipients: recipients,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *PushoverNotifier) Name() string { return "pushover" }

// Send posts the alert once per recipient. Every recipient is attempted;
// the returned error joins the individual failures. Any failure fails the
// whole send, so a retried alert reaches recipients that already got it.
func (p *PushoverNotifier) Send(ctx context.Context, alert Alert) error {
	if len(p.recipients) == 0 {
		return errors.New("pushover: no recipients configured")
	}

	var errs []error
	for _, user := range p.recipients {
		if err := p.sendOne(ctx, user, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *PushoverNotifier) sendOne(ctx context.Context, user string, alert Alert) error {
	form := url.Values{
		"token":    {p.token},
		"user":     {user},
		"title":    {alert.Title},
		"message":  {alert.Message},
		"priority": {strconv.Itoa(alert.Priority)},
	}
	if !alert.FiredAt.IsZero() {
		form.Set("timestamp", strconv.FormatInt(alert.FiredAt.Unix(), 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send pushover alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushover returned status %d for user %s", resp.StatusCode, redact(user))
	}
	return nil
}

// redact keeps only the last four characters of a user key.
func redact(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
