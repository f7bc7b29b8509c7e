package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/config"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/views"
	"go.uber.org/zap"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer emails contributors through an SMTP relay.
type Mailer struct {
	addr      string
	auth      smtp.Auth
	from      string
	docDomain string
	logger    *zap.Logger
	send      sendFunc
	now       func() time.Time
}

func NewMailer(cfg *config.Config, logger *zap.Logger) *Mailer {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &Mailer{
		addr:      net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		auth:      auth,
		from:      cfg.SMTPFrom,
		docDomain: cfg.DocDomain,
		logger:    logger,
		send:      smtp.SendMail,
		now:       time.Now,
	}
}

func (m *Mailer) Notify(ctx context.Context, n domain.Notification) error {
	body, err := renderBody(ctx, n, m.docDomain)
	if err != nil {
		return err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", n.To.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", views.MailSubject))
	fmt.Fprintf(&msg, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	msg.Write(body)

	if err := m.send(m.addr, m.auth, m.from, []string{n.To.Email}, msg.Bytes()); err != nil {
		return fmt.Errorf("failed to send %s mail: %w", n.Kind, err)
	}
	m.logger.Info("notification sent", zap.String("kind", string(n.Kind)), zap.String("to", n.To.Email))
	return nil
}

func renderBody(ctx context.Context, n domain.Notification, docDomain string) ([]byte, error) {
	var c templ.Component
	switch n.Kind {
	case domain.NotifyCreated:
		c = views.CreatedMail(n.To.Name, n.Document.Hash, docDomain)
	case domain.NotifyPublished:
		c = views.PublishedMail(n.To.Name, n.Document.ECLI, docDomain)
	default:
		return nil, fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LogNotifier records notifications instead of sending them. Used when no
// SMTP relay is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n domain.Notification) error {
	l.logger.Info("notification",
		zap.String("kind", string(n.Kind)),
		zap.String("to", n.To.Email),
		zap.String("ecli", n.Document.ECLI),
		zap.String("hash", n.Document.Hash))
	return nil
}

// New picks the SMTP mailer when a relay is configured.
func New(cfg *config.Config, logger *zap.Logger) ports.Notifier {
	if cfg.SMTPHost == "" {
		return NewLogNotifier(logger)
	}
	return NewMailer(cfg, logger)
}

var (
	_ ports.Notifier = (*Mailer)(nil)
	_ ports.Notifier = (*LogNotifier)(nil)
)
