package service

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/lastcallsw/trackeats/config"
)

type EmailService struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
	confirmURL   string
}

func NewEmailService(cfg *config.Config) IEmailService {
	return &EmailService{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUsername: cfg.SMTPUsername,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    cfg.EmailFrom,
		fromName:     cfg.EmailFromName,
		confirmURL:   cfg.ConfirmBaseURL,
	}
}

// SendConfirmationEmail mails the account-confirmation link for a pending
// user. With SMTP unconfigured the message is logged instead, which keeps
// local development working without a mail relay.
func (s *EmailService) SendConfirmationEmail(username, token, address string) error {
	subject := "Confirm your Trackeats account"
	link := fmt.Sprintf("%s/confirm?username=%s&token=%s", s.confirmURL, username, token)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\n"+
			"Please confirm your Trackeats account by following this link within %s:\r\n\r\n"+
			"%s\r\n\r\n"+
			"If you did not sign up, you can ignore this message.\r\n",
		username, ConfirmationWindow, link)
	return s.send(address, subject, body)
}

func (s *EmailService) send(to, subject, body string) error {
	if s.smtpHost == "" || s.smtpPort == "" {
		log.Printf("SMTP not configured, logging email instead")
		log.Printf("To: %s", to)
		log.Printf("Subject: %s", subject)
		log.Printf("Body:\n%s", body)
		return nil
	}

	auth := smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", to, from, subject, body))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	if err := smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
