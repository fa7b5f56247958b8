package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/interfaces"
)

type mockKVStorage struct {
	values map[string]string
}

func (m *mockKVStorage) Get(ctx context.Context, key string) (string, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", interfaces.ErrKeyNotFound
}

func (m *mockKVStorage) Set(ctx context.Context, key, value, description string) error {
	m.values[key] = value
	return nil
}

func (m *mockKVStorage) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func (m *mockKVStorage) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	return nil, nil
}

func (m *mockKVStorage) GetAll(ctx context.Context) (map[string]string, error) {
	return m.values, nil
}

func configuredMail() *common.MailConfig {
	return &common.MailConfig{
		Host:       "smtp.example.com",
		Port:       587,
		Username:   "reports@example.com",
		Password:   "secret",
		Recipients: []string{"owner@example.com", "manager@example.com"},
		UseTLS:     true,
	}
}

func writeReport(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "report-run-1.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.3 test"), 0644))
	return path
}

func TestSendReport_NotConfigured(t *testing.T) {
	svc := NewService(&common.MailConfig{Host: "smtp.example.com"}, nil, arbor.NewLogger())

	sent := 0
	svc.send = func(ctx context.Context, cfg *Config, msg []byte) error {
		sent++
		return nil
	}

	err := svc.SendReport(context.Background(), interfaces.ReportEmail{ReportPath: writeReport(t)})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, err, interfaces.ErrMailerNotConfigured)
	assert.Equal(t, 0, sent)
}

func TestSendReport_ComposesMessage(t *testing.T) {
	svc := NewService(configuredMail(), nil, arbor.NewLogger())
	svc.now = func() time.Time { return time.Date(2025, 8, 22, 7, 0, 0, 0, time.UTC) }

	var captured []byte
	var capturedCfg *Config
	svc.send = func(ctx context.Context, cfg *Config, msg []byte) error {
		captured = msg
		capturedCfg = cfg
		return nil
	}

	analysis := strings.Repeat("doanh thu ", 100)
	err := svc.SendReport(context.Background(), interfaces.ReportEmail{
		RunID:      "run-1",
		Subject:    "Sales Analysis Report - 22/08/2025",
		Analysis:   analysis,
		ReportPath: writeReport(t),
	})
	require.NoError(t, err)
	assert.Equal(t, "reports@example.com", capturedCfg.From)

	mr, err := mail.CreateReader(bytes.NewReader(captured))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Sales Analysis Report - 22/08/2025", subject)

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	assert.Len(t, to, 2)

	var plain, filename string
	var attachmentBody []byte
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			body, _ := io.ReadAll(part.Body)
			if ct == "text/plain" {
				plain = string(body)
			}
		case *mail.AttachmentHeader:
			filename, _ = h.Filename()
			attachmentBody, _ = io.ReadAll(part.Body)
		}
	}

	assert.Contains(t, plain, "Please find attached")
	assert.Contains(t, plain, "...")
	assert.Equal(t, "report-run-1.pdf", filename)
	assert.Equal(t, "%PDF-1.3 test", string(attachmentBody))
}

func TestSendReport_TransportError(t *testing.T) {
	svc := NewService(configuredMail(), nil, arbor.NewLogger())
	svc.send = func(ctx context.Context, cfg *Config, msg []byte) error {
		return errors.New("connection refused")
	}

	err := svc.SendReport(context.Background(), interfaces.ReportEmail{Subject: "s", ReportPath: writeReport(t)})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSendReport_MissingReport(t *testing.T) {
	svc := NewService(configuredMail(), nil, arbor.NewLogger())
	err := svc.SendReport(context.Background(), interfaces.ReportEmail{ReportPath: filepath.Join(t.TempDir(), "missing.pdf")})
	assert.Error(t, err)
}

func TestGetConfig_KVOverrides(t *testing.T) {
	kv := &mockKVStorage{values: map[string]string{
		"smtp_host":       "mail.internal",
		"smtp_port":       "465",
		"smtp_username":   "bot@internal",
		"smtp_password":   "pw",
		"smtp_use_tls":    "false",
		"smtp_recipients": "a@internal; b@internal",
	}}
	svc := NewService(&common.MailConfig{Host: "ignored", Port: 25, Timeout: "5s"}, kv, arbor.NewLogger())

	cfg := svc.GetConfig(context.Background())
	assert.Equal(t, "mail.internal", cfg.Host)
	assert.Equal(t, 465, cfg.Port)
	assert.Equal(t, "bot@internal", cfg.From)
	assert.Equal(t, "Narro", cfg.FromName)
	assert.False(t, cfg.UseTLS)
	assert.Equal(t, []string{"a@internal", "b@internal"}, cfg.Recipients)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, svc.IsConfigured(context.Background()))
}

func TestGetConfig_Defaults(t *testing.T) {
	svc := NewService(&common.MailConfig{}, nil, arbor.NewLogger())

	cfg := svc.GetConfig(context.Background())
	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.False(t, cfg.IsComplete())
}

func TestReportBody(t *testing.T) {
	body := reportBody("Short analysis")
	assert.Contains(t, body, "Short analysis")
	assert.NotContains(t, body, "Short analysis...")

	long := reportBody(strings.Repeat("ă", 600))
	assert.Contains(t, long, strings.Repeat("ă", 500)+"...")
	assert.NotContains(t, long, strings.Repeat("ă", 501))
}
