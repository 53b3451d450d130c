package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/theakshaypant/caldigest/internal/config"
	"github.com/theakshaypant/caldigest/internal/core"
)

// ErrNotConfigured is returned when SMTP credentials or recipients are missing.
var ErrNotConfigured = errors.New("email is not configured: set smtp.username, smtp.password and smtp.to")

// Sender delivers snapshots over SMTP with STARTTLS.
type Sender struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
	// Now stamps the subject of empty snapshots.
	Now func() time.Time
}

// NewSender returns a sender for cfg. A nil logger discards output.
func NewSender(cfg config.SMTPConfig, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		cfg:    cfg,
		logger: logger,
		Now:    time.Now,
	}
}

// Message builds the multipart message for snap without sending it.
func (s *Sender) Message(snap core.Snapshot) (*gomail.Msg, error) {
	htmlBody, err := HTML(snap)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("set sender %q: %w", s.cfg.From, err)
	}
	if err := m.To(s.cfg.To...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}
	m.Subject(Subject(snap, s.Now()))
	m.SetBodyString(gomail.TypeTextPlain, PlainText(snap))
	m.AddAlternativeString(gomail.TypeTextHTML, htmlBody)

	return m, nil
}

// Send renders snap and delivers it.
func (s *Sender) Send(ctx context.Context, snap core.Snapshot) error {
	if !s.cfg.Complete() {
		return ErrNotConfigured
	}

	m, err := s.Message(snap)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	s.logger.Info("Sending email",
		zap.String("host", s.cfg.Host),
		zap.Int("port", s.cfg.Port),
		zap.Strings("to", s.cfg.To),
	)
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("deliver via %s: %w", s.cfg.Host, err)
	}
	return nil
}
