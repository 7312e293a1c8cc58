package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches the Brevo API v3 transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender `json:"sender"`
	To          []BrevoTo   `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Sender sends transactional emails. A nil Sender means email is disabled.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, companyName string) error
	SendNotification(ctx context.Context, toEmail, title, message, link string) error
}

// BrevoClient sends emails via the Brevo (Sendinblue) API.
type BrevoClient struct {
	APIKey    string
	MailFrom  string
	PortalURL string // prefix for notification deep links
	Endpoint  string // defaults to the public API
	Client    *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@procurement.local"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "Procurement Portal"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcome is sent once after vendor registration.
func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, companyName string) error {
	if companyName == "" {
		companyName = "there"
	}
	return c.send(ctx, toEmail, "Welcome to the Procurement Portal", EmailLayout(welcomeContent(companyName, c.PortalURL)))
}

// SendNotification mirrors an in-app notification by email.
func (c *BrevoClient) SendNotification(ctx context.Context, toEmail, title, message, link string) error {
	url := ""
	if link != "" {
		url = c.PortalURL + link
	}
	return c.send(ctx, toEmail, title, EmailLayout(notificationContent(title, message, url)))
}
