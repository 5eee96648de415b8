package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// MailerConfig captures SMTP delivery parameters.
type MailerConfig struct {
	Host     string   `mapstructure:"host" yaml:"host"`
	Port     int      `mapstructure:"port" yaml:"port"`
	Username string   `mapstructure:"username" yaml:"username"`
	Password string   `mapstructure:"password" yaml:"password"`
	From     string   `mapstructure:"from" yaml:"from"`
	To       []string `mapstructure:"to" yaml:"to"`
}

// sendFunc matches smtp.SendMail, injected for testing.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends job-completion emails over SMTP.
type Mailer struct {
	cfg  MailerConfig
	send sendFunc
}

// NewMailer creates an SMTP notifier.
func NewMailer(cfg MailerConfig) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	return &Mailer{cfg: cfg, send: smtp.SendMail}, nil
}

// Notify sends the completion summary as a plain-text email.
func (m *Mailer) Notify(_ context.Context, msg Message) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	body := buildMail(m.cfg.From, m.cfg.To, msg)
	if err := m.send(addr, auth, m.cfg.From, m.cfg.To, body); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func buildMail(from string, to []string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: Harvest %s: %s\r\n", msg.Status, msg.URL)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Job %s for %s finished with status %s.\r\n\r\n", msg.JobID, msg.URL, msg.Status)
	if msg.Error != "" {
		fmt.Fprintf(&b, "Error: %s\r\n\r\n", msg.Error)
	}
	fmt.Fprintf(&b, "Pages crawled: %d\r\n", msg.Stats.PagesCrawled)
	fmt.Fprintf(&b, "Products found: %d\r\n", msg.Stats.ProductsFound)
	fmt.Fprintf(&b, "Products stored: %d\r\n", msg.Stats.ProductsStored)
	fmt.Fprintf(&b, "Images downloaded: %d\r\n", msg.Stats.ImagesDownloaded)
	fmt.Fprintf(&b, "Errors: %d\r\n", msg.Stats.Errors)
	return []byte(b.String())
}
