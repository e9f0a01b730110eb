package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// TemplateName identifies a pair of html and text templates.
type TemplateName string

const (
	TemplateInvitation    TemplateName = "invitation"
	TemplatePasswordReset TemplateName = "password_reset"
	TemplateOTP           TemplateName = "otp"
)

var subjects = map[TemplateName]string{
	TemplateInvitation:    "You're invited to the portfolio dashboard",
	TemplatePasswordReset: "Reset your dashboard password",
	TemplateOTP:           "Your verification code",
}

// LinkData feeds the invitation and password reset templates.
type LinkData struct {
	URL       string
	Role      domain.Role
	InvitedBy string
	ExpiresAt time.Time
}

func (d LinkData) RoleLabel() string {
	switch d.Role {
	case domain.RoleAdmin:
		return "an administrator"
	case domain.RoleBankViewer:
		return "a bank viewer"
	case domain.RoleSpecialist:
		return "a specialist"
	}
	return "a member"
}

// CodeData feeds the OTP template.
type CodeData struct {
	Code     string
	ValidFor time.Duration
}

func (d CodeData) Minutes() int {
	return int(d.ValidFor.Minutes())
}

type Renderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func NewRenderer() (*Renderer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	return &Renderer{html: html, text: text}, nil
}

// MustRenderer panics if the embedded templates don't parse.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render builds a message for name addressed to to. Token-bearing templates
// always come back with tracking disabled.
func (r *Renderer) Render(name TemplateName, to string, data any) (Message, error) {
	subject, ok := subjects[name]
	if !ok {
		return Message{}, fmt.Errorf("unknown template %q", name)
	}

	var html, text bytes.Buffer
	if err := r.html.ExecuteTemplate(&html, string(name)+".html", data); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := r.text.ExecuteTemplate(&text, string(name)+".txt", data); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", name, err)
	}

	return Message{
		To:              to,
		Subject:         subject,
		HTML:            html.String(),
		Text:            text.String(),
		DisableTracking: true,
		Tags:            map[string]string{"template": string(name)},
	}, nil
}
