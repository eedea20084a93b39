package delivery

import (
	"context"
	"fmt"
	"net/smtp"
)

// SMTPSender sends login and approval mail over plain SMTP.
type SMTPSender struct {
	host string
	port int
	auth smtp.Auth
	from string
	site Site

	// sendMail is swappable for tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, username, password, from string, site Site) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		auth:     auth,
		from:     from,
		site:     site,
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPSender) addr() string { return fmt.Sprintf("%s:%d", s.host, s.port) }

func (s *SMTPSender) send(to, subject, body string) error {
	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\n\r\n%s\r\n", to, s.from, subject, body))
	if err := s.sendMail(s.addr(), s.auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s via %s: %w", to, s.host, err)
	}
	return nil
}

func (s *SMTPSender) SendLoginEmail(ctx context.Context, to, tokenString string) error {
	return s.send(to, s.site.loginSubject(), s.site.loginBody(tokenString))
}

func (s *SMTPSender) SendApprovalRequest(ctx context.Context, contactInfo, contactType, tokenString string) error {
	return s.send(s.site.SupportEmail, s.site.approvalSubject(),
		s.site.approvalBody(contactInfo, contactType, tokenString))
}
