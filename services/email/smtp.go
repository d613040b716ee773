package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	BaseURL     string
}

type SMTPService struct {
	config SMTPConfig
	send   func(m ...*gomail.Message) error
}

func NewSMTPService(config SMTPConfig) *SMTPService {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	return &SMTPService{
		config: config,
		send:   dialer.DialAndSend,
	}
}

func (s *SMTPService) SendEmail(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromAddress, s.config.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SMTPService) SendNewsletterConfirmation(to string) error {
	htmlBody, plainBody := renderNewsletterConfirmation(s.config.BaseURL, to)
	return s.SendEmail(to, "You're subscribed to EduSaaS updates", htmlBody, plainBody)
}

func (s *SMTPService) SendActivationReceipt(to string, receipt Receipt) error {
	htmlBody, plainBody := renderActivationReceipt(s.config.BaseURL, receipt)
	return s.SendEmail(to, "Your EduSaaS plan is ready", htmlBody, plainBody)
}
