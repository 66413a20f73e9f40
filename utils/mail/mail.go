package mail

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"time"

	"github.com/joy095/servicehub/logger"
	gomail "gopkg.in/gomail.v2"
)

// SMTPConfig holds the dialer settings. An empty Host disables sending.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var alertTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <h3>{{.Subject}}</h3>
  <p>{{.Message}}</p>
  <table>
    {{range $k, $v := .Fields}}<tr><td><b>{{$k}}</b></td><td>{{$v}}</td></tr>{{end}}
  </table>
  <p style="color:#888;font-size:12px;">ServiceHub &copy; {{.Year}}</p>
</body>
</html>`))

type AlertData struct {
	Subject string
	Message string
	Fields  map[string]string
	Year    int
}

// Dialer is the subset of *gomail.Dialer used here.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Sender struct {
	cfg    SMTPConfig
	dialer Dialer
}

func NewSender(cfg SMTPConfig) *Sender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         cfg.Host,
	}
	return &Sender{cfg: cfg, dialer: d}
}

// NewSenderWithDialer is used by tests to capture outgoing messages.
func NewSenderWithDialer(cfg SMTPConfig, d Dialer) *Sender {
	return &Sender{cfg: cfg, dialer: d}
}

func (s *Sender) Enabled() bool {
	return s != nil && s.cfg.Host != ""
}

func RenderAlert(data AlertData) (string, error) {
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}
	var body bytes.Buffer
	if err := alertTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

// SendAlert renders data into the alert template and sends it to toEmail.
func (s *Sender) SendAlert(toEmail string, data AlertData) error {
	if !s.Enabled() {
		return fmt.Errorf("smtp is not configured")
	}

	body, err := RenderAlert(data)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to render alert email: %v", err)
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", data.Subject)
	m.SetBody("text/html", body)

	logger.InfoLogger.Printf("Attempting to connect to SMTP server: %s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.dialer.DialAndSend(m); err != nil {
		logger.ErrorLogger.Errorf("Failed to send email to %s: %v", toEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.InfoLogger.Printf("Successfully sent email to %s", toEmail)
	return nil
}
