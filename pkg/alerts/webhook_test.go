package alerts_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/alerts"
	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifier_Name(t *testing.T) {
	n := alerts.NewWebhookNotifier("https://example.com/webhook", "")
	assert.Equal(t, "webhook", n.Name())
}

func TestWebhookNotifier_Send(t *testing.T) {
	var received map[string]any
	var eventHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eventHeader = r.Header.Get("X-Tripwire-Event")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Budget-Tripwire/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, http.MethodPost, r.Method)

		err := json.NewDecoder(r.Body).Decode(&received)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	alert := alerts.Alert{
		Title:    "🔴 Tripwire: Dining Out",
		Message:  "On pace to spend $600.00 of $400.00 (50% over)",
		Priority: alerts.PriorityHigh,
		Severity: model.SeverityUrgent,
		Category: "Dining Out",
		Trigger:  "25% over",
		FiredAt:  time.Date(2026, 4, 15, 12, 0, 0, 0, time.FixedZone("EST", -5*3600)),
	}

	err := n.Send(context.Background(), alert)
	require.NoError(t, err)
	assert.Equal(t, "spending_alert.urgent", received["event"])
	assert.Equal(t, "spending_alert.urgent", eventHeader)
	assert.Equal(t, "2026-04-15T17:00:00Z", received["timestamp"])

	body := received["alert"].(map[string]any)
	assert.Equal(t, "Dining Out", body["category"])
	assert.Equal(t, "urgent", body["severity"])
	assert.Equal(t, float64(1), body["priority"])
}

func TestWebhookNotifier_Send_DefaultsWhenUnset(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	before := time.Now().UTC().Truncate(time.Second)
	n := alerts.NewWebhookNotifier(server.URL, "")
	require.NoError(t, n.Send(context.Background(), alerts.Alert{Category: "Groceries"}))

	assert.Equal(t, "spending_alert.warning", received["event"])
	ts, err := time.Parse(time.RFC3339, received["timestamp"].(string))
	require.NoError(t, err)
	assert.False(t, ts.Before(before))
}

func TestWebhookNotifier_Send_WithHMAC(t *testing.T) {
	var signature string
	var payload []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get("X-Signature-256")
		payload, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "test-secret")
	err := n.Send(context.Background(), alerts.Alert{Severity: model.SeverityWarning})
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write(payload)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), signature)
}

func TestWebhookNotifier_Send_NoHMAC(t *testing.T) {
	var hasSignature bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasSignature = r.Header.Get("X-Signature-256") != ""
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), alerts.Alert{Severity: model.SeverityWarning})
	require.NoError(t, err)
	assert.False(t, hasSignature)
}

func TestWebhookNotifier_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), alerts.Alert{Severity: model.SeverityWarning})
	assert.Error(t, err)
}
