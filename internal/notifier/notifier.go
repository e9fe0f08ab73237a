// Package notifier sends customer-facing payment emails. Delivery is best
// effort; callers never fail a payment flow on a notification error.
package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/config"
)

type Provider interface {
	Send(ctx context.Context, to string, subject string, htmlBody string) error
	SendSubscriptionActivated(ctx context.Context, to string, planName string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to string, subject string, htmlBody string) error {
	return nil
}

func (p *NoOpProvider) SendSubscriptionActivated(ctx context.Context, to string, planName string) error {
	return nil
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPProvider struct {
	cfg SMTPConfig
}

func NewSMTP(cfg SMTPConfig) *SMTPProvider {
	return &SMTPProvider{cfg: cfg}
}

func (p *SMTPProvider) Send(ctx context.Context, to string, subject string, htmlBody string) error {
	auth := smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", to, subject, mime, htmlBody))

	return smtp.SendMail(addr, auth, p.cfg.From, []string{to}, msg)
}

func (p *SMTPProvider) SendSubscriptionActivated(ctx context.Context, to string, planName string) error {
	subject := "Your subscription is active"
	body := fmt.Sprintf(
		"<p>Thanks for subscribing!</p><p>Your <strong>%s</strong> plan is now active. You can manage your subscription from your account page.</p>",
		planName,
	)
	return p.Send(ctx, to, subject, body)
}

// New picks SMTP when the deployment configures a host, otherwise a no-op
// provider so the payment flows stay testable without a mail relay.
func New(cfg config.Config, log *zap.Logger) Provider {
	if cfg.SMTPHost == "" {
		log.Named("notifier").Info("smtp not configured, using noop notifier")
		return &NoOpProvider{}
	}
	return NewSMTP(SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

var Module = fx.Module("notifier",
	fx.Provide(New),
)
