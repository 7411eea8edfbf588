package dialogue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name    string
		message string
		n       int
		want    int
		ok      bool
	}{
		{name: "bare number", message: "1", n: 4, want: 0, ok: true},
		{name: "last option", message: "4", n: 4, want: 3, ok: true},
		{name: "trailing period", message: "2.", n: 4, want: 1, ok: true},
		{name: "hash", message: "#3", n: 4, want: 2, ok: true},
		{name: "opcion", message: "opción 2", n: 4, want: 1, ok: true},
		{name: "numero", message: "Número 1", n: 4, want: 0, ok: true},
		{name: "el", message: "el 2", n: 4, want: 1, ok: true},
		{name: "zero", message: "0", n: 4},
		{name: "out of range", message: "5", n: 4},
		{name: "negative", message: "-1", n: 4},
		{name: "text", message: "mañana", n: 4},
		{name: "empty list", message: "1", n: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseChoice(tt.message, tt.n)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseShortcut(t *testing.T) {
	tests := []struct {
		message string
		want    shortcutRequest
		ok      bool
	}{
		{message: "agendar pediatría el 15/07", want: shortcutRequest{service: "pediatria", hasDate: true, day: 15, month: 7}, ok: true},
		{message: "Agendar Medicina General 3/8", want: shortcutRequest{service: "medicina general", hasDate: true, day: 3, month: 8}, ok: true},
		{message: "agendar dermatologia para el 01/02/2026", want: shortcutRequest{service: "dermatologia", hasDate: true, day: 1, month: 2, year: 2026}, ok: true},
		{message: "agendar ginecologia el 9/9/26", want: shortcutRequest{service: "ginecologia", hasDate: true, day: 9, month: 9, year: 2026}, ok: true},
		{message: "agendar pediatría", want: shortcutRequest{service: "pediatria"}, ok: true},
		{message: "agendar", want: shortcutRequest{}, ok: true},
		{message: "quiero agendar pediatría", ok: false},
		{message: "agendarme", ok: false},
		{message: "1", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got, ok := parseShortcut(tt.message)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIsQuestion(t *testing.T) {
	assert.True(t, isQuestion("¿Cuánto cuesta la consulta"))
	assert.True(t, isQuestion("aceptan seguro? "))
	assert.False(t, isQuestion("sí"))
	assert.False(t, isQuestion("2"))
}

func TestParseCommand(t *testing.T) {
	assert.Equal(t, commandRestart, parseCommand("Cancelar"))
	assert.Equal(t, commandRestart, parseCommand("menú"))
	assert.Equal(t, commandRestart, parseCommand("reiniciar."))
	assert.Equal(t, commandHelp, parseCommand("AYUDA"))
	assert.Equal(t, commandNone, parseCommand("cancelar mi cita de mañana"))
}

func TestIsYes(t *testing.T) {
	for _, s := range []string{"sí", "si", "Sí!", "claro", "si, por favor"} {
		assert.True(t, isYes(s), s)
	}
	for _, s := range []string{"no", "hola", "sin duda"} {
		assert.False(t, isYes(s), s)
	}
}

func TestCalendar(t *testing.T) {
	// 2025-10-07 00:30 in the clinic is still 2025-10-07 06:30 UTC.
	now := time.Date(2025, 10, 7, 6, 30, 0, 0, time.UTC)
	c := calendar{loc: clinicZone, horizon: 14, now: func() time.Time { return now }}

	dates := c.dates()
	assert.Len(t, dates, 14)
	assert.Equal(t, "2025-10-07", dates[0])
	assert.Equal(t, "2025-10-20", dates[13])

	first, last := c.bounds()
	assert.Equal(t, "2025-10-07", first)
	assert.Equal(t, "2025-10-20", last)
	assert.True(t, c.contains("2025-10-07"))
	assert.True(t, c.contains("2025-10-20"))
	assert.False(t, c.contains("2025-10-21"))
	assert.False(t, c.contains("2025-10-06"))

	got, ok := c.resolve(15, 7, 0)
	assert.True(t, ok)
	assert.Equal(t, "2026-07-15", got)

	got, ok = c.resolve(8, 10, 0)
	assert.True(t, ok)
	assert.Equal(t, "2025-10-08", got)

	got, ok = c.resolve(7, 10, 0)
	assert.True(t, ok)
	assert.Equal(t, "2025-10-07", got)

	_, ok = c.resolve(31, 2, 2026)
	assert.False(t, ok)
	_, ok = c.resolve(1, 13, 0)
	assert.False(t, ok)
}

func TestCalendarUsesClinicZone(t *testing.T) {
	// 03:00 UTC on the 11th is still the 10th at UTC-6.
	now := time.Date(2025, 7, 11, 3, 0, 0, 0, time.UTC)
	c := calendar{loc: clinicZone, horizon: 14, now: func() time.Time { return now }}
	first, _ := c.bounds()
	assert.Equal(t, "2025-07-10", first)
}
