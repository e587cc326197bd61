package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/taskflow/backend/internal/models"
	"github.com/taskflow/backend/pkg/logger"
	"gorm.io/gorm"
)

type EmailService struct {
	db *gorm.DB
}

type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

func NewEmailService(db *gorm.DB) *EmailService {
	return &EmailService{db: db}
}

func (s *EmailService) GetConfig() *EmailConfig {
	config := &EmailConfig{}

	var configs []models.SystemConfig
	s.db.Where("`group` = ?", "email").Find(&configs)

	for _, c := range configs {
		switch c.Key {
		case "email_enabled":
			config.Enabled = c.Value == "true"
		case "email_host":
			config.Host = c.Value
		case "email_port":
			if port, err := strconv.Atoi(c.Value); err == nil {
				config.Port = port
			}
		case "email_username":
			config.Username = c.Value
		case "email_password":
			config.Password = c.Value
		case "email_from":
			config.From = c.Value
		case "email_use_tls":
			config.UseTLS = c.Value == "true"
		}
	}

	if config.Port == 0 {
		config.Port = 587
	}

	return config
}

// MentionEmail carries the rendered context of a mention notification.
type MentionEmail struct {
	RecipientName string
	ActorName     string
	WorkspaceName string
	Message       string
	Detail        string
}

// SendMentionNotification emails a user that they were mentioned. A disabled
// or unconfigured mailer is a silent no-op.
func (s *EmailService) SendMentionNotification(m *MentionEmail, recipient string) error {
	config := s.GetConfig()
	if !config.Enabled || config.Host == "" {
		return nil
	}
	if recipient == "" {
		return nil
	}

	subject := fmt.Sprintf("[TaskFlow] %s mentioned you in %s", m.ActorName, m.WorkspaceName)
	body := s.buildMentionBody(m)

	return s.sendEmail(config, []string{recipient}, subject, body)
}

func (s *EmailService) buildMentionBody(m *MentionEmail) string {
	var sb strings.Builder

	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString(fmt.Sprintf("<p>Hi %s,</p>", m.RecipientName))
	sb.WriteString(fmt.Sprintf("<p><b>%s</b> %s in workspace <b>%s</b>.</p>",
		m.ActorName, m.Message, m.WorkspaceName))

	if m.Detail != "" {
		sb.WriteString(fmt.Sprintf("<div style=\"background: #f5f5f5; padding: 12px; border-radius: 4px; white-space: pre-wrap;\">%s</div>", m.Detail))
	}

	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">You receive this email because you were mentioned on TaskFlow.</p>")
	sb.WriteString("</body></html>")

	return sb.String()
}

func (s *EmailService) sendEmail(config *EmailConfig, to []string, subject, body string) error {
	from := config.From
	if from == "" {
		from = config.Username
	}

	headers := make(map[string]string)
	headers["From"] = from
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	var err error
	if config.UseTLS {
		err = s.sendEmailTLS(config, addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message.String()))
	}

	if err != nil {
		logger.Infof("[Email] Failed to send email: %v", err)
		return err
	}

	logger.Infof("[Email] Sent notification to %v", to)
	return nil
}

func (s *EmailService) sendEmailTLS(config *EmailConfig, addr string, auth smtp.Auth, from string, to []string, message string) error {
	tlsConfig := &tls.Config{
		ServerName: config.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, config.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err := w.Write([]byte(message)); err != nil {
		return err
	}

	return w.Close()
}
