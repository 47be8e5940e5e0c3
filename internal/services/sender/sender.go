// Package services содержит логику отправки писем из очереди уведомлений.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	smtplib "github.com/magabrotheeeer/dedoc-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/metrics"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

// SenderService потребляет почтовые задания из очереди и отправляет письма
// через SMTP.
type SenderService struct {
	transport smtplib.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtplib.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// HandleEmailMessage разбирает задание из очереди и отправляет письмо
// соответствующего типа.
func (s *SenderService) HandleEmailMessage(body []byte) error {
	var message models.EmailMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	var subject, bodyText string
	switch message.Type {
	case models.EmailWelcome:
		subject = "Welcome to DeDoc"
		bodyText = fmt.Sprintf("Hello %s!\n\nYour DeDoc account has been created. "+
			"Pick a subscription plan to unlock consultations, health reports and more.\n\n"+
			"Stay healthy,\nThe DeDoc team", s.displayName(message))
	case models.EmailPasswordChanged:
		subject = "Your DeDoc password was changed"
		bodyText = fmt.Sprintf("Hello %s!\n\nThe password for your DeDoc account was just changed. "+
			"If this was not you, please contact support immediately.\n\n"+
			"The DeDoc team", s.displayName(message))
	case models.EmailSubscriptionNew:
		subject = "Your DeDoc subscription is active"
		bodyText = fmt.Sprintf("Hello %s!\n\nYour %s subscription is now active until %s.\n\n"+
			"The DeDoc team", s.displayName(message),
			message.Data["plan"], message.Data["subscription_end"])
	default:
		s.log.Warn("unknown email message type", slog.String("type", message.Type))
		return fmt.Errorf("unknown email message type: %s", message.Type)
	}

	err := s.sendEmail([]string{message.To}, subject, bodyText)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.EmailsSentTotal.WithLabelValues(message.Type, outcome).Inc()
	return err
}

func (s *SenderService) displayName(m models.EmailMessage) string {
	if m.FullName != "" {
		return m.FullName
	}
	return m.Username
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
