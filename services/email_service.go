package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/HSouheill/scholarfund_backend/config"
	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/utils"
)

// Mailer sends the transactional emails of the platform
type Mailer interface {
	SendApplicationVerification(ctx context.Context, app *models.Application) error
	SendApplicationStatus(ctx context.Context, app *models.Application) error
	SendOTP(ctx context.Context, to, code string) error
}

// EmailService sends HTML mail through SMTP. Without SMTP credentials it
// logs the message instead, which keeps local development working.
type EmailService struct {
	from        string
	frontendURL string
	send        func(*gomail.Message) error
}

// NewEmailService builds the SMTP mailer from config
func NewEmailService(cfg config.SMTPConfig, frontendURL string) *EmailService {
	s := &EmailService{
		from:        cfg.FromEmail,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
	if s.from == "" {
		s.from = cfg.User
	}

	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		log.Warn().Msg("SMTP configuration is incomplete, emails will be logged instead of sent")
		s.send = logOnlySend
		return s
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	s.send = func(m *gomail.Message) error {
		return dialer.DialAndSend(m)
	}
	return s
}

func logOnlySend(m *gomail.Message) error {
	log.Info().
		Strs("to", m.GetHeader("To")).
		Strs("subject", m.GetHeader("Subject")).
		Msg("Mock email transport, message not sent")
	return nil
}

var (
	verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif;">
<h2>Confirm your scholarship application</h2>
<p>Hi {{.FullName}},</p>
<p>Thank you for applying to pool <code>{{.PoolID}}</code>. Please confirm your email address to move your application into review.</p>
<p><a href="{{.Link}}" style="background:#4f46e5;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none;">Verify email</a></p>
<p>If the button does not work, open this link: {{.Link}}</p>
</body></html>`))

	statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif;">
<h2>Your application was {{.Status}}</h2>
<p>Hi {{.FullName}},</p>
<p>Your application to pool <code>{{.PoolID}}</code> is now <strong>{{.Status}}</strong>.</p>
{{if .Notes}}<p>Reviewer notes: {{.Notes}}</p>{{end}}
<p><a href="{{.Link}}">View your applications</a></p>
</body></html>`))

	otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif;">
<h2>Your verification code</h2>
<p style="font-size:28px;letter-spacing:6px;"><strong>{{.Code}}</strong></p>
<p>The code expires in {{.Minutes}} minutes. If you did not request it, ignore this email.</p>
</body></html>`))
)

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *EmailService) deliver(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Debug().Str("to", utils.MaskEmail(to)).Str("subject", subject).Msg("Email sent")
	return nil
}

// VerificationLink is the frontend page that confirms an application email
func (s *EmailService) VerificationLink(token string) string {
	return s.frontendURL + "/verify-email?token=" + token
}

func (s *EmailService) SendApplicationVerification(_ context.Context, app *models.Application) error {
	body, err := render(verificationTemplate, map[string]interface{}{
		"FullName": app.FullName,
		"PoolID":   app.PoolID,
		"Link":     s.VerificationLink(app.VerificationToken),
	})
	if err != nil {
		return err
	}
	return s.deliver(app.Email, "Verify your scholarship application", body)
}

func (s *EmailService) SendApplicationStatus(_ context.Context, app *models.Application) error {
	body, err := render(statusTemplate, map[string]interface{}{
		"FullName": app.FullName,
		"PoolID":   app.PoolID,
		"Status":   string(app.Status),
		"Notes":    app.ReviewNotes,
		"Link":     s.frontendURL + "/applications",
	})
	if err != nil {
		return err
	}
	return s.deliver(app.Email, "Scholarship application "+string(app.Status), body)
}

func (s *EmailService) SendOTP(_ context.Context, to, code string) error {
	body, err := render(otpTemplate, map[string]interface{}{
		"Code":    code,
		"Minutes": int(OTPTTL.Minutes()),
	})
	if err != nil {
		return err
	}
	return s.deliver(to, "Your verification code", body)
}
