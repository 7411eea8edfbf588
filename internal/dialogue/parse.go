package dialogue

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wolfman30/citas-assistant/internal/catalog"
)

type command int

const (
	commandNone command = iota
	commandRestart
	commandHelp
)

var (
	punctuation = strings.NewReplacer(".", " ", ",", " ", "!", " ", "¡", " ", ";", " ", ":", " ", ")", " ", "(", " ", "?", " ", "¿", " ")

	yesWords = map[string]struct{}{
		"si":             {},
		"s":              {},
		"claro":          {},
		"ok":             {},
		"dale":           {},
		"de acuerdo":     {},
		"si por favor":   {},
		"si quiero":      {},
		"si gracias":     {},
		"quiero agendar": {},
	}

	restartWords = map[string]struct{}{
		"cancelar":  {},
		"reiniciar": {},
		"menu":      {},
		"salir":     {},
	}

	choicePrefixes = []string{"opcion", "numero", "num", "el", "la", "#"}

	shortcutPattern = regexp.MustCompile(`^agendar(?:\s+(.+?))?(?:\s+(?:para\s+)?(?:el\s+)?(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?)?$`)
)

// clean normalizes text for keyword matching. Slashes and digits are kept
// so dates survive.
func clean(text string) string {
	return catalog.Normalize(punctuation.Replace(text))
}

func parseCommand(text string) command {
	norm := clean(text)
	if _, ok := restartWords[norm]; ok {
		return commandRestart
	}
	if norm == "ayuda" || norm == "help" {
		return commandHelp
	}
	return commandNone
}

func isYes(text string) bool {
	_, ok := yesWords[clean(text)]
	return ok
}

// isQuestion reports free-form questions: text ending in "?" or opening with "¿".
func isQuestion(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasSuffix(t, "?") || strings.HasPrefix(t, "¿")
}

// parseChoice resolves a 1-based option number against n options and returns
// the 0-based index.
func parseChoice(text string, n int) (int, bool) {
	norm := clean(text)
	for _, p := range choicePrefixes {
		if rest, ok := strings.CutPrefix(norm, p); ok {
			norm = strings.TrimSpace(rest)
		}
	}
	num, err := strconv.Atoi(norm)
	if err != nil || num < 1 || num > n {
		return 0, false
	}
	return num - 1, true
}

// shortcutRequest is a parsed "agendar <servicio> [el] DD/MM[/YYYY]".
type shortcutRequest struct {
	service string
	hasDate bool
	day     int
	month   int
	year    int
}

func parseShortcut(text string) (shortcutRequest, bool) {
	m := shortcutPattern.FindStringSubmatch(clean(text))
	if m == nil {
		return shortcutRequest{}, false
	}
	req := shortcutRequest{service: strings.TrimSpace(m[1])}
	if m[2] == "" {
		return req, true
	}
	req.hasDate = true
	req.day, _ = strconv.Atoi(m[2])
	req.month, _ = strconv.Atoi(m[3])
	if m[4] != "" {
		req.year, _ = strconv.Atoi(m[4])
		if req.year < 100 {
			req.year += 2000
		}
	}
	return req, true
}
