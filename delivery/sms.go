package delivery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// SMSClient delivers login codes through a Twilio-compatible REST API.
type SMSClient struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	site       Site
	httpClient *http.Client
}

type SMSOption func(*SMSClient)

func WithHTTPClient(c *http.Client) SMSOption {
	return func(cl *SMSClient) {
		cl.httpClient = c
	}
}

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) SMSOption {
	return func(cl *SMSClient) {
		cl.baseURL = u
	}
}

func NewSMSClient(accountSID, authToken, fromNumber string, site Site, opts ...SMSOption) *SMSClient {
	c := &SMSClient{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    "https://api.twilio.com",
		site:       site,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the account credentials are set.
func (c *SMSClient) Configured() bool {
	return c.accountSID != "" && c.authToken != "" && c.fromNumber != ""
}

func (c *SMSClient) SendLoginSMS(ctx context.Context, to, tokenString string) error {
	if !c.Configured() {
		return fmt.Errorf("sms client not configured: missing account credentials")
	}

	form := url.Values{}
	form.Set("From", c.fromNumber)
	form.Set("To", to)
	form.Set("Body", c.site.smsBody(tokenString))

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms API error: status %d", resp.StatusCode)
	}

	return nil
}
