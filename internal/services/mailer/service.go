package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/interfaces"
)

// ErrNotConfigured is returned when host, credentials or recipients are missing
var ErrNotConfigured = interfaces.ErrMailerNotConfigured

// sendFunc delivers a composed message
type sendFunc func(ctx context.Context, cfg *Config, msg []byte) error

// Service emails finished reports over SMTP
type Service struct {
	config    *common.MailConfig
	kvStorage interfaces.KeyValueStorage
	logger    arbor.ILogger
	now       func() time.Time
	send      sendFunc
}

// Compile-time assertion
var _ interfaces.Mailer = (*Service)(nil)

// NewService creates a mailer. kvStorage may be nil.
func NewService(config *common.MailConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	s := &Service{
		config:    config,
		kvStorage: kvStorage,
		logger:    logger,
		now:       time.Now,
	}
	s.send = s.sendSMTP
	return s
}

// IsConfigured checks for the minimum settings needed to send
func (s *Service) IsConfigured(ctx context.Context) bool {
	return s.GetConfig(ctx).IsComplete()
}

// SendReport emails the report document to every configured recipient
func (s *Service) SendReport(ctx context.Context, email interfaces.ReportEmail) error {
	cfg := s.GetConfig(ctx)
	if !cfg.IsComplete() {
		return ErrNotConfigured
	}

	content, err := os.ReadFile(email.ReportPath)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}

	msg, err := composeMessage(cfg, email.Subject, reportBody(email.Analysis), s.now(), []attachment{{
		Filename:    email.ReportPath,
		ContentType: "application/pdf",
		Content:     content,
	}})
	if err != nil {
		return err
	}

	if err := s.send(ctx, cfg, msg); err != nil {
		return fmt.Errorf("failed to send report email: %w", err)
	}

	s.logger.Info().
		Str("run_id", email.RunID).
		Strs("recipients", cfg.Recipients).
		Int("bytes", len(msg)).
		Msg("Report email sent")

	return nil
}

// sendSMTP uses implicit TLS on port 465, STARTTLS when UseTLS is set, plain SMTP otherwise
func (s *Service) sendSMTP(ctx context.Context, cfg *Config, msg []byte) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{Timeout: cfg.Timeout}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var conn net.Conn
	var err error
	if cfg.Port == 465 {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: cfg.Host}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if cfg.Port != 465 && cfg.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := client.Mail(cfg.From); err != nil {
		return fmt.Errorf("failed to set mail from: %w", err)
	}
	for _, to := range cfg.Recipients {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("failed to set mail recipient %s: %w", to, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
