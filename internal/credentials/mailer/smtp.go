package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"

	"github.com/kelseyhightower/envconfig"
)

// SMTPConfig is read from SMTP_* environment variables.
type SMTPConfig struct {
	Host     string
	Port     int    `default:"587"`
	Username string
	Password string
	From     string `default:"noreply@fieldbank.local"`
}

func (c SMTPConfig) IsValid() bool {
	return c.Host != "" && c.From != ""
}

func (c SMTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c SMTPConfig) auth() smtp.Auth {
	if c.Username == "" {
		return nil
	}
	return smtp.PlainAuth("", c.Username, c.Password, c.Host)
}

func LoadSMTPConfig() (SMTPConfig, error) {
	var cfg SMTPConfig
	if err := envconfig.Process("SMTP", &cfg); err != nil {
		return SMTPConfig{}, err
	}
	return cfg, nil
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPDispatcher sends multipart/alternative mail through a relay. Plain
// SMTP has no click tracking so DisableTracking needs no handling.
type SMTPDispatcher struct {
	config   SMTPConfig
	sendMail sendMailFunc
}

func NewSMTPDispatcher(cfg SMTPConfig) (*SMTPDispatcher, error) {
	if !cfg.IsValid() {
		return nil, fmt.Errorf("smtp: host and from address are required")
	}
	return &SMTPDispatcher{config: cfg, sendMail: smtp.SendMail}, nil
}

func (s *SMTPDispatcher) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := encodeMessage(s.config.From, msg)
	if err != nil {
		return fmt.Errorf("smtp: encode message: %w", err)
	}

	if err := s.sendMail(s.config.Address(), s.config.auth(), s.config.From, []string{msg.To}, encoded); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func encodeMessage(from string, msg Message) ([]byte, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	fmt.Fprintf(buf, "From: %s\r\n", from)
	fmt.Fprintf(buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(buf, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", mw.Boundary())
	fmt.Fprintf(buf, "\r\n")

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		h := textproto.MIMEHeader{}
		h.Add("Content-Type", p.contentType)
		h.Add("Content-Transfer-Encoding", "quoted-printable")
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
