package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/services/normalize"
)

const orderJSON = `{"data":[{"id":"A1","totalMoney":"120,000","createdTimestamp":"2025-08-17T08:30:00Z","items":[{"productName":"Latte","price":60000,"quantity":2}]}]}`

func newTestClient(cfg *common.SourceConfig) *Client {
	if cfg.RateLimit == "" {
		cfg.RateLimit = "1ms"
	}
	c := NewClient(cfg, arbor.NewLogger())
	c.backoff = time.Millisecond
	return c
}

func testWindow() Window {
	return Window{
		From: time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC),
	}
}

func TestFetch_PostsWindowAndDecodes(t *testing.T) {
	var got fetchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(orderJSON))
	}))
	defer server.Close()

	client := newTestClient(&common.SourceConfig{WebhookURL: server.URL})

	payload, err := client.Fetch(context.Background(), testWindow())
	require.NoError(t, err)
	assert.Equal(t, "2025-08-17", got.FromDate)
	assert.Equal(t, "2025-08-22", got.ToDate)

	rows := normalize.Rows(payload)
	require.Len(t, rows, 1)
	assert.Equal(t, 120000.0, rows[0].OrderTotal)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "upstream busy", http.StatusBadGateway)
			return
		}
		w.Write([]byte(orderJSON))
	}))
	defer server.Close()

	client := newTestClient(&common.SourceConfig{WebhookURL: server.URL, MaxRetries: 2})

	_, err := client.Fetch(context.Background(), testWindow())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(&common.SourceConfig{WebhookURL: server.URL, MaxRetries: 1})

	_, err := client.Fetch(context.Background(), testWindow())
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad window", http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(&common.SourceConfig{WebhookURL: server.URL, MaxRetries: 3})

	_, err := client.Fetch(context.Background(), testWindow())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_NoWebhook(t *testing.T) {
	client := newTestClient(&common.SourceConfig{})
	_, err := client.Fetch(context.Background(), testWindow())
	assert.ErrorIs(t, err, ErrNoWebhook)
}

func TestFetch_OAuthClientCredentials(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "shop-1", r.Header.Get("Retailer"))
		w.Write([]byte(orderJSON))
	}))
	defer server.Close()

	client := newTestClient(&common.SourceConfig{
		WebhookURL: server.URL,
		OAuth: common.OAuthConfig{
			TokenURL:       tokenServer.URL,
			ClientID:       "id",
			ClientSecret:   "secret",
			RetailerHeader: "Retailer",
			Retailer:       "shop-1",
		},
	})

	_, err := client.Fetch(context.Background(), testWindow())
	require.NoError(t, err)
}

func TestLookbackWindow(t *testing.T) {
	now := time.Date(2025, 8, 23, 7, 0, 0, 0, time.UTC)

	w := LookbackWindow(now, 1)
	assert.Equal(t, "2025-08-22", w.From.Format(DateLayout))
	assert.Equal(t, "2025-08-22", w.To.Format(DateLayout))

	w = LookbackWindow(now, 7)
	assert.Equal(t, "2025-08-16", w.From.Format(DateLayout))
	assert.Equal(t, "2025-08-22", w.To.Format(DateLayout))

	w = LookbackWindow(now, 0)
	assert.Equal(t, "2025-08-22", w.From.Format(DateLayout))
}

func TestLoadFile_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "orders.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(orderJSON), 0644))
	payload, err := LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, normalize.Rows(payload), 1)

	yamlPath := filepath.Join(dir, "orders.yaml")
	yamlDoc := strings.Join([]string{
		"data:",
		"  - id: B2",
		"    totalMoney: 45000",
		"    createdTimestamp: \"2025-08-17 19:05:00\"",
		"    items:",
		"      - productName: Tea",
		"        price: 15000",
		"        quantity: 3",
	}, "\n")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlDoc), 0644))
	payload, err = LoadFile(yamlPath)
	require.NoError(t, err)

	rows := normalize.Rows(payload)
	require.Len(t, rows, 1)
	assert.Equal(t, 45000.0, rows[0].OrderTotal)
	assert.Equal(t, "19", rows[0].Hour)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(strings.NewReader("   "), FormatJSON)
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("{broken"), FormatJSON)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("2025-08-17", "2025-08-22")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-17", w.From.Format(DateLayout))
	assert.Equal(t, "2025-08-22", w.To.Format(DateLayout))

	w, err = ParseWindow("2025-08-17", "")
	require.NoError(t, err)
	assert.Equal(t, w.From, w.To)

	_, err = ParseWindow("17/08/2025", "")
	assert.Error(t, err)

	_, err = ParseWindow("2025-08-22", "2025-08-17")
	assert.Error(t, err)
}
