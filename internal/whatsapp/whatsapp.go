// Package whatsapp handles the Twilio WhatsApp surface: parsing inbound
// webhook payloads, rendering TwiML replies, and sending outbound messages
// through the Twilio REST API.
package whatsapp

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.twilio.com"

	requestTimeout = 15 * time.Second
)

// Inbound is one message received from the webhook, with the transport
// prefix already stripped from the sender.
type Inbound struct {
	From string
	Body string
}

// Client sends WhatsApp messages through Twilio. When credentials are empty
// the client runs in debug mode and SendMessage is a no-op, which keeps
// local development working without a Twilio account.
type Client struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

func NewClient(accountSID, authToken, fromNumber, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Debug reports whether the client is running without Twilio credentials.
func (c *Client) Debug() bool {
	return c.accountSID == "" || c.authToken == ""
}

// SendMessage pushes one outbound WhatsApp message. The recipient may be
// given with or without the "whatsapp:" prefix.
func (c *Client) SendMessage(ctx context.Context, to, body string) error {
	if c.Debug() {
		return nil
	}

	form := url.Values{}
	form.Set("From", withPrefix(c.fromNumber))
	form.Set("To", withPrefix(to))
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create twilio request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// ParseInbound extracts the sender and message text from a webhook request.
// Twilio posts form-encoded From/Body fields; a JSON body with "from" and
// "message" keys is accepted as well so the webhook can be exercised with
// plain curl.
func ParseInbound(r *http.Request) (*Inbound, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var payload struct {
			From    string `json:"from"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("failed to decode json payload: %w", err)
		}
		if payload.From == "" || payload.Message == "" {
			return nil, fmt.Errorf("json payload missing from or message")
		}
		return &Inbound{From: stripPrefix(payload.From), Body: payload.Message}, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("failed to parse form payload: %w", err)
	}
	from := r.FormValue("From")
	body := r.FormValue("Body")
	if from == "" || body == "" {
		return nil, fmt.Errorf("form payload missing From or Body")
	}
	return &Inbound{From: stripPrefix(from), Body: body}, nil
}

// TwiML renders the synchronous webhook reply. Each chunk becomes its own
// <Message> element so Twilio delivers them as separate WhatsApp messages.
func TwiML(chunks []string) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<Response>")
	for _, chunk := range chunks {
		b.WriteString("<Message>")
		xml.EscapeText(&b, []byte(chunk))
		b.WriteString("</Message>")
	}
	b.WriteString("</Response>")
	return b.String()
}

func withPrefix(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

func stripPrefix(number string) string {
	return strings.TrimPrefix(number, "whatsapp:")
}
