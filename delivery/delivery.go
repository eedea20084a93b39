// Package delivery sends authentication tokens out of band. The flow
// packages depend only on the sender interfaces; failures propagate
// to the caller unretried.
package delivery

import "context"

// EmailSender delivers a login token to an email address.
type EmailSender interface {
	SendLoginEmail(ctx context.Context, to, tokenString string) error
}

// SMSSender delivers a login code to a phone number.
type SMSSender interface {
	SendLoginSMS(ctx context.Context, to, tokenString string) error
}

// ApprovalNotifier tells the support address that a token awaits
// admin approval.
type ApprovalNotifier interface {
	SendApprovalRequest(ctx context.Context, contactInfo, contactType, tokenString string) error
}
