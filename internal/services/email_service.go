package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"tourbase/internal/config"
	"tourbase/internal/models"
)

// Mailer sends transactional mail. Callers must treat a send failure as a
// signal to roll back any token state they persisted for the message.
type Mailer interface {
	SendWelcome(user *models.User, url string) error
	SendPasswordReset(user *models.User, resetURL string) error
}

type smtpMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<h1>Welcome to Tourbase, {{.Name}}!</h1>
<p>We're glad to have you. Browse tours and book your next adventure:</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
`))

var passwordResetTemplate = template.Must(template.New("reset").Parse(`
<h1>Forgot your password?</h1>
<p>Submit a request with your new password to:</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
<p>This link is valid for 10 minutes. If you didn't request a reset, ignore this email.</p>
`))

func (m *smtpMailer) SendWelcome(user *models.User, url string) error {
	return m.send(user.Email, "Welcome to Tourbase!", welcomeTemplate, map[string]string{
		"Name": user.Name,
		"URL":  url,
	})
}

func (m *smtpMailer) SendPasswordReset(user *models.User, resetURL string) error {
	return m.send(user.Email, "Your password reset link (valid for 10 minutes)", passwordResetTemplate, map[string]string{
		"Name": user.Name,
		"URL":  resetURL,
	})
}

func (m *smtpMailer) send(to, subject string, tmpl *template.Template, data any) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
