package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fadilmartias/fasthire/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/wneessen/go-mail"
)

type MailMessage struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// MailerInterface sends one message and returns the provider message id.
type MailerInterface interface {
	Send(ctx context.Context, msg MailMessage) (string, error)
}

// NewMailer builds the transport selected by cfg.Driver.
func NewMailer(cfg *config.MailConfig) (MailerInterface, error) {
	switch cfg.Driver {
	case "smtp":
		return NewSMTPMailer(cfg)
	case "http":
		return NewHTTPMailer(cfg), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

type SMTPMailer struct {
	client *mail.Client
	domain string
}

func NewSMTPMailer(cfg *config.MailConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.Secure {
		opts = append(opts, mail.WithSSLPort(false))
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, domain: senderDomain(cfg.From)}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg MailMessage) (string, error) {
	email := mail.NewMsg()
	if err := email.From(msg.From); err != nil {
		return "", fmt.Errorf("sender %q: %w: %w", msg.From, ErrNonRetryable, err)
	}
	if err := email.To(msg.To); err != nil {
		return "", fmt.Errorf("recipient %q: %w: %w", msg.To, ErrNonRetryable, err)
	}
	email.Subject(msg.Subject)
	email.SetBodyString(mail.TypeTextHTML, msg.HTML)

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), m.domain)
	email.SetGenHeader(mail.HeaderMessageID, id)

	if err := m.client.DialAndSendWithContext(ctx, email); err != nil {
		return "", classifySMTP(err)
	}
	return id, nil
}

// classifySMTP applies the network classification and additionally treats a
// permanent (5xx) SMTP reply as non-retryable.
func classifySMTP(err error) error {
	classified := classifyNetErr("smtp", err)
	var sendErr *mail.SendError
	if IsRetryable(classified) && errors.As(err, &sendErr) && !sendErr.IsTemp() {
		return fmt.Errorf("smtp rejected: %w: %w", ErrNonRetryable, err)
	}
	return classified
}

// HTTPMailer posts messages to a JSON mail provider API.
type HTTPMailer struct {
	client *resty.Client
}

func NewHTTPMailer(cfg *config.MailConfig) *HTTPMailer {
	return &HTTPMailer{
		client: resty.New().
			SetBaseURL(cfg.APIURL).
			SetTimeout(cfg.Timeout).
			SetAuthToken(cfg.APIKey),
	}
}

func (m *HTTPMailer) Send(ctx context.Context, msg MailMessage) (string, error) {
	resp, err := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"from":    msg.From,
			"to":      []string{msg.To},
			"subject": msg.Subject,
			"html":    msg.HTML,
		}).
		Post("/emails")
	if err := classifyCall("mail provider", resp, err); err != nil {
		return "", err
	}
	id := gjson.Get(resp.String(), "id").String()
	if id == "" {
		id = gjson.Get(resp.String(), "message_id").String()
	}
	return id, nil
}

func senderDomain(from string) string {
	addr := strings.TrimSuffix(from, ">")
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
