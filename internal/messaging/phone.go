package messaging

import (
	"regexp"
	"strings"
)

const whatsappPrefix = "whatsapp:"

var phoneDigitsRe = regexp.MustCompile(`\d+`)

// NormalizeE164 ensures the value begins with + and only contains digits afterward.
func NormalizeE164(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	digits := strings.Join(phoneDigitsRe.FindAllString(value, -1), "")
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// SenderKey identifies the conversation of a Twilio From value. WhatsApp and
// SMS senders with the same number are kept apart.
func SenderKey(from string) string {
	from = strings.TrimSpace(from)
	lower := strings.ToLower(from)
	if strings.HasPrefix(lower, whatsappPrefix) {
		if n := NormalizeE164(from[len(whatsappPrefix):]); n != "" {
			return whatsappPrefix + n
		}
		return from
	}
	if n := NormalizeE164(from); n != "" {
		return n
	}
	return from
}
