package services

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"corpvox/internal/config"
	"corpvox/internal/repositories/interfaces"
	"corpvox/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailService delivers lifecycle notifications to experts. Failures are
// surfaced to the caller, which decides whether the notification is
// best effort.
type EmailService interface {
	Send(ctx context.Context, to, subject, body string) error
	SendToUser(ctx context.Context, userID primitive.ObjectID, subject, body string) error
}

type smtpEmailService struct {
	config   *config.SMTPConfig
	userRepo interfaces.UserRepository
	logger   *logger.Logger
}

func NewSMTPEmailService(cfg *config.SMTPConfig, userRepo interfaces.UserRepository, log *logger.Logger) EmailService {
	return &smtpEmailService{
		config:   cfg,
		userRepo: userRepo,
		logger:   log,
	}
}

func (s *smtpEmailService) Send(ctx context.Context, to, subject, body string) error {
	if s.config.Host == "" {
		return errors.New("smtp host not configured")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.WithField("subject", subject).Debug("Notification email sent")
	return nil
}

func (s *smtpEmailService) SendToUser(ctx context.Context, userID primitive.ObjectID, subject, body string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}

	return s.Send(ctx, user.Email, subject, body)
}
