// Package main runs end-to-end scenarios of the booking dialogue against a
// running server.
//
// Scenarios cover:
//   - Greeting and service list
//   - Full booking by numbered choices
//   - Shortcut booking ("agendar <servicio> el DD/MM")
//   - Invalid choices and the attempt limit
//   - Help and cancel commands
//   - Free-form questions routed to the fallback model
//
// Usage:
//
//	API_BASE_URL=... go run scripts/e2e/run_e2e.go                # runs all
//	API_BASE_URL=... go run scripts/e2e/run_e2e.go happy-path     # runs one
//
// TWILIO_AUTH_TOKEN signs the webhooks when the server validates them.
// ADMIN_JWT_SECRET enables session purges and step checks through /admin.
package main

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/citas-assistant/internal/reply"
)

const (
	testSender  = "+15005550002"
	clinicPhone = "+15005550006"
	webhookPath = "/webhook"
)

var (
	apiBase   string
	authToken string
	adminJWT  string
	client    = &http.Client{Timeout: 45 * time.Second}
)

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed int
	failed int
	name   string
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...interface{}) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

type twimlResponse struct {
	Messages []string `xml:"Message"`
}

// send posts one inbound message and returns the assistant's reply.
func send(text string) (string, error) {
	form := url.Values{
		"MessageSid": {fmt.Sprintf("SM%d", time.Now().UnixNano())},
		"From":       {testSender},
		"To":         {clinicPhone},
		"Body":       {text},
	}
	req, err := http.NewRequest(http.MethodPost, apiBase+webhookPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if authToken != "" {
		req.Header.Set("X-Twilio-Signature", sign(apiBase+webhookPath, form))
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(body))
	}

	var out twimlResponse
	if err := xml.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode twiml: %w", err)
	}
	fmt.Printf("    > %s\n    < %s\n", text, strings.ReplaceAll(strings.Join(out.Messages, ""), "\n", "\n      "))
	return strings.Join(out.Messages, "\n"), nil
}

func sign(webhookURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(webhookURL)
	for _, k := range keys {
		for _, v := range form[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func adminRequest(method, path string) (*http.Response, error) {
	req, err := http.NewRequest(method, apiBase+"/admin"+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+adminJWT)
	return client.Do(req)
}

// purge drops the test sender's session; without admin access it cancels instead.
func purge() error {
	if adminJWT == "" {
		_, err := send("cancelar")
		return err
	}
	resp, err := adminRequest(http.MethodDelete, "/sessions/"+url.PathEscape(testSender))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("purge returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// currentStep reads the sender's step through the admin API, or "" when unavailable.
func currentStep() string {
	if adminJWT == "" {
		return ""
	}
	resp, err := adminRequest(http.MethodGet, "/sessions/"+url.PathEscape(testSender))
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	var out struct {
		Session struct {
			Step string `json:"step"`
		} `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ""
	}
	return out.Session.Step
}

func checkStep(t *T, want string) {
	if got := currentStep(); got != "" {
		t.check("session step is "+want, got == want)
	}
}

func generateJWT(secret string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "e2e",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	return token.SignedString([]byte(secret))
}

func setup(t *T) bool {
	if err := purge(); err != nil {
		t.fatalf("purge: %v", err)
		return false
	}
	return true
}

func scenarioGreeting(t *T) {
	if !setup(t) {
		return
	}
	resp, err := send("hola")
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("greets and asks to confirm", resp == reply.Greeting())
	checkStep(t, "await_start_confirm")

	resp, err = send("sí")
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("lists numbered services", strings.Contains(resp, "1."))
	checkStep(t, "service_choice")
}

func scenarioHappyPath(t *T) {
	if !setup(t) {
		return
	}
	for _, msg := range []string{"hola", "sí", "1"} {
		if _, err := send(msg); err != nil {
			t.fatalf("%v", err)
			return
		}
	}

	// Walk the date list until one has open slots.
	for day := 1; day <= 14; day++ {
		resp, err := send(fmt.Sprint(day))
		if err != nil {
			t.fatalf("%v", err)
			return
		}
		if resp == reply.AvailabilityError || resp == reply.ConfigError {
			t.fatalf("availability provider unavailable: %s", resp)
			return
		}
		if strings.HasPrefix(resp, "No hay horarios") {
			continue
		}
		checkStep(t, "slot_choice")

		resp, err = send("1")
		if err != nil {
			t.fatalf("%v", err)
			return
		}
		t.check("booking confirmed", strings.Contains(resp, "confirmada"))
		checkStep(t, "start")
		return
	}
	t.fatalf("no date within the horizon had open slots")
}

func scenarioShortcut(t *T) {
	if !setup(t) {
		return
	}
	date := time.Now().AddDate(0, 0, 1)
	resp, err := send(fmt.Sprintf("agendar pediatría el %02d/%02d", date.Day(), int(date.Month())))
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("shortcut reaches slots or reports none", containsAny(resp, "horarios", reply.AvailabilityError))

	far := time.Now().AddDate(0, 3, 0)
	resp, err = send(fmt.Sprintf("agendar pediatría el %02d/%02d", far.Day(), int(far.Month())))
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("date outside horizon rejected", strings.HasPrefix(resp, "Solo podemos agendar"))
}

func scenarioInvalidChoices(t *T) {
	if !setup(t) {
		return
	}
	for _, msg := range []string{"hola", "sí"} {
		if _, err := send(msg); err != nil {
			t.fatalf("%v", err)
			return
		}
	}
	resp, err := send("99")
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("first invalid choice reprompts", strings.HasPrefix(resp, "Opción no válida"))
	checkStep(t, "service_choice")

	if _, err := send("98"); err != nil {
		t.fatalf("%v", err)
		return
	}
	resp, err = send("97")
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("third invalid choice restarts", resp == reply.TooManyAttempts)
}

func scenarioCommands(t *T) {
	if !setup(t) {
		return
	}
	resp, err := send("ayuda")
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("help lists commands", resp == reply.Help())

	if _, err := send("hola"); err != nil {
		t.fatalf("%v", err)
		return
	}
	resp, err = send("cancelar")
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("cancel restarts", resp == reply.Restarted)
	checkStep(t, "start")
}

func scenarioQuestion(t *T) {
	if !setup(t) {
		return
	}
	resp, err := send("¿Atienden a niños menores de 2 años?")
	if err != nil {
		t.fatalf("%v", err)
		return
	}
	t.check("question answered or apologized", resp != "" && resp != reply.Greeting())
}

func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

func main() {
	apiBase = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	authToken = os.Getenv("TWILIO_AUTH_TOKEN")
	if apiBase == "" {
		fmt.Fprintln(os.Stderr, "ERROR: API_BASE_URL required")
		os.Exit(1)
	}
	if secret := os.Getenv("ADMIN_JWT_SECRET"); secret != "" {
		token, err := generateJWT(secret)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: sign admin token: %v\n", err)
			os.Exit(1)
		}
		adminJWT = token
	}

	scenarios := []scenario{
		{"greeting", scenarioGreeting},
		{"happy-path", scenarioHappyPath},
		{"shortcut", scenarioShortcut},
		{"invalid-choices", scenarioInvalidChoices},
		{"commands", scenarioCommands},
		{"question", scenarioQuestion},
	}

	filter := ""
	if len(os.Args) > 1 {
		filter = os.Args[1]
	}

	totalPassed := 0
	totalFailed := 0
	var results []string

	for _, s := range scenarios {
		if filter != "" && s.Name != filter {
			continue
		}

		fmt.Printf("\n========================================\n")
		fmt.Printf("SCENARIO: %s\n", s.Name)
		fmt.Printf("========================================\n")

		t := &T{name: s.Name}
		s.Fn(t)

		totalPassed += t.passed
		totalFailed += t.failed

		status := "✅"
		if t.failed > 0 {
			status = "❌"
		}
		results = append(results, fmt.Sprintf("  %s %s (%d passed, %d failed)", status, s.Name, t.passed, t.failed))
	}

	fmt.Printf("\n========================================\n")
	fmt.Println("SUMMARY")
	fmt.Printf("========================================\n")
	for _, r := range results {
		fmt.Println(r)
	}
	fmt.Printf("\nTotal: %d passed, %d failed\n", totalPassed, totalFailed)

	if totalFailed > 0 {
		fmt.Println("\n❌ SOME TESTS FAILED")
		os.Exit(1)
	}
	fmt.Println("\n✅ ALL TESTS PASSED")
}
