package messaging

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Channels a Twilio inbound message can arrive on.
const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

// ValidateTwilioSignature reports whether X-Twilio-Signature matches the
// HMAC-SHA1 of webhookURL plus the sorted POST parameters.
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" || authToken == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	expected := signPayload(buildSignaturePayload(webhookURL, r.PostForm), authToken)
	return hmac.Equal([]byte(signature), []byte(expected))
}

func buildSignaturePayload(webhookURL string, params url.Values) string {
	var payload strings.Builder
	payload.WriteString(webhookURL)
	for _, key := range slices.Sorted(maps.Keys(params)) {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}
	return payload.String()
}

func signPayload(payload, authToken string) string {
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// InboundMessage is the subset of Twilio's message webhook the assistant reads.
type InboundMessage struct {
	MessageSid  string
	AccountSid  string
	From        string
	To          string
	Body        string
	ProfileName string
	NumMedia    int
}

// Channel reports whether the message came over WhatsApp or plain SMS.
func (m *InboundMessage) Channel() string {
	if strings.HasPrefix(strings.ToLower(m.From), "whatsapp:") {
		return ChannelWhatsApp
	}
	return ChannelSMS
}

// ParseTwilioWebhook reads the form-encoded webhook fields.
func ParseTwilioWebhook(r *http.Request) (*InboundMessage, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("messaging: parse form: %w", err)
	}
	numMedia, _ := strconv.Atoi(strings.TrimSpace(r.FormValue("NumMedia")))
	return &InboundMessage{
		MessageSid:  strings.TrimSpace(r.FormValue("MessageSid")),
		AccountSid:  strings.TrimSpace(r.FormValue("AccountSid")),
		From:        strings.TrimSpace(r.FormValue("From")),
		To:          strings.TrimSpace(r.FormValue("To")),
		Body:        r.FormValue("Body"),
		ProfileName: strings.TrimSpace(r.FormValue("ProfileName")),
		NumMedia:    numMedia,
	}, nil
}
