package delivery

import "fmt"

// Site carries the presentation context stamped into every message.
type Site struct {
	Name         string
	SupportEmail string
	// LoginURL is where a recipient enters the token, e.g.
	// https://example.com/auth/token.
	LoginURL string
}

func (s Site) loginSubject() string {
	return fmt.Sprintf("Here's your login to %s", s.Name)
}

func (s Site) loginBody(tokenString string) string {
	return fmt.Sprintf(
		"Your %s login token is %s\n\nEnter it at %s to sign in.\n\nQuestions? Contact %s.",
		s.Name, tokenString, s.LoginURL, s.SupportEmail,
	)
}

func (s Site) smsBody(tokenString string) string {
	return fmt.Sprintf("Your %s code is %s\n\nGo to %s to login.", s.Name, tokenString, s.LoginURL)
}

func (s Site) approvalSubject() string {
	return fmt.Sprintf("New account created on %s", s.Name)
}

func (s Site) approvalBody(contactInfo, contactType, tokenString string) string {
	return fmt.Sprintf(
		"A new login was requested on %s for the %s %s.\n\nApprove token %s in the admin panel to let them in.",
		s.Name, contactType, contactInfo, tokenString,
	)
}
