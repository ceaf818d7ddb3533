package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseInboundForm(t *testing.T) {
	form := url.Values{}
	form.Set("From", "whatsapp:+15551234567")
	form.Set("Body", "generate meal plan")
	r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, err := ParseInbound(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.From != "+15551234567" {
		t.Errorf("prefix not stripped: %q", in.From)
	}
	if in.Body != "generate meal plan" {
		t.Errorf("body = %q", in.Body)
	}
}

func TestParseInboundJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/webhook",
		strings.NewReader(`{"from": "+15551234567", "message": "hi"}`))
	r.Header.Set("Content-Type", "application/json")

	in, err := ParseInbound(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.From != "+15551234567" || in.Body != "hi" {
		t.Errorf("unexpected inbound: %+v", in)
	}
}

func TestParseInboundMissingFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("From=abc"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if _, err := ParseInbound(r); err == nil {
		t.Fatalf("expected an error for missing Body")
	}

	r = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"from": ""}`))
	r.Header.Set("Content-Type", "application/json")
	if _, err := ParseInbound(r); err == nil {
		t.Fatalf("expected an error for empty json fields")
	}
}

func TestTwiML(t *testing.T) {
	got := TwiML([]string{"first <part>", "second & third"})
	if !strings.Contains(got, "<Response>") || !strings.Contains(got, "</Response>") {
		t.Errorf("missing response envelope: %q", got)
	}
	if strings.Count(got, "<Message>") != 2 {
		t.Errorf("expected 2 message elements: %q", got)
	}
	if !strings.Contains(got, "first &lt;part&gt;") {
		t.Errorf("angle brackets not escaped: %q", got)
	}
	if !strings.Contains(got, "second &amp; third") {
		t.Errorf("ampersand not escaped: %q", got)
	}
}

func TestTwiMLEmpty(t *testing.T) {
	got := TwiML(nil)
	if !strings.Contains(got, "<Response></Response>") {
		t.Errorf("empty reply should still be a valid envelope: %q", got)
	}
}

func TestSendMessage(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody string
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		r.ParseForm()
		gotTo = r.FormValue("To")
		gotFrom = r.FormValue("From")
		gotBody = r.FormValue("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient("AC123", "secret", "+15550009999", srv.URL)
	if err := c.SendMessage(context.Background(), "+15551234567", "hello there"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotUser != "AC123" || gotPass != "secret" {
		t.Errorf("basic auth = %q:%q", gotUser, gotPass)
	}
	if gotTo != "whatsapp:+15551234567" {
		t.Errorf("to = %q", gotTo)
	}
	if gotFrom != "whatsapp:+15550009999" {
		t.Errorf("from = %q", gotFrom)
	}
	if gotBody != "hello there" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestSendMessageErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "bad credentials"}`))
	}))
	defer srv.Close()

	c := NewClient("AC123", "wrong", "+15550009999", srv.URL)
	err := c.SendMessage(context.Background(), "+15551234567", "hello")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestDebugModeSkipsSend(t *testing.T) {
	c := NewClient("", "", "", "http://127.0.0.1:1")
	if !c.Debug() {
		t.Fatalf("empty credentials should enable debug mode")
	}
	if err := c.SendMessage(context.Background(), "+15551234567", "hello"); err != nil {
		t.Fatalf("debug send must be a no-op: %v", err)
	}
}
