package reply

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/citas-assistant/internal/availability"
)

func TestServiceListNumbering(t *testing.T) {
	result := ServiceList([]string{"Medicina General", "Pediatría", "Dermatología"})

	assert.Contains(t, result, "1. Medicina General\n")
	assert.Contains(t, result, "2. Pediatría\n")
	assert.Contains(t, result, "3. Dermatología\n")
	assert.NotContains(t, result, "4.")
	assert.Contains(t, result, "Responde con el número del servicio.")
}

func TestDateListUsesSpanishWeekdays(t *testing.T) {
	result := DateList("Pediatría", "Dr. Carlos Ruiz", []string{"2025-07-10", "2025-07-13"})

	assert.Contains(t, result, "Elegiste Pediatría con Dr. Carlos Ruiz.")
	assert.Contains(t, result, "1. jue 10/07/2025\n")
	assert.Contains(t, result, "2. dom 13/07/2025\n")
}

func TestSlotListShowsClockTimes(t *testing.T) {
	slots := []availability.Slot{
		{Start: "2025-07-11 09:00:00", End: "2025-07-11 09:30:00"},
		{Start: "2025-07-11T16:15:00", End: "2025-07-11T16:45:00"},
	}
	result := SlotList("Dr. Carlos Ruiz", "2025-07-11", slots)

	assert.Contains(t, result, "Horarios disponibles con Dr. Carlos Ruiz el vie 11/07/2025:")
	assert.Contains(t, result, "1. 09:00 - 09:30\n")
	assert.Contains(t, result, "2. 16:15 - 16:45\n")
}

func TestConfirmationEchoesDetails(t *testing.T) {
	result := Confirmation("Pediatría", "Dr. Carlos Ruiz", "2025-07-11", availability.Slot{Start: "2025-07-11 09:00:00", End: "2025-07-11 09:30:00"})

	assert.Contains(t, result, "Pediatría")
	assert.Contains(t, result, "Dr. Carlos Ruiz")
	assert.Contains(t, result, "11/07/2025")
	assert.Contains(t, result, "de 09:00 a 09:30")
}

func TestInvalidChoiceStatesBound(t *testing.T) {
	result := InvalidChoice(4, ServiceList([]string{"a", "b", "c", "d"}))
	assert.True(t, strings.HasPrefix(result, "Opción no válida. Responde con un número del 1 al 4."))
	assert.Contains(t, result, "4. d")
}

func TestOutOfHorizon(t *testing.T) {
	assert.Equal(t,
		"Solo podemos agendar citas entre el jue 10/07/2025 y el mié 23/07/2025. Indica una fecha dentro de ese rango.",
		OutOfHorizon("2025-07-10", "2025-07-23"))
}

func TestSlotTakenVariants(t *testing.T) {
	remaining := []availability.Slot{{Start: "2025-07-11 11:00:00", End: "2025-07-11 11:30:00"}}
	assert.Contains(t, SlotTaken("2025-07-11", remaining), "1. 11:00 - 11:30")

	none := SlotTakenNoneLeft("2025-07-11", []string{"2025-07-12"})
	assert.Contains(t, none, "ya no quedan horarios")
	assert.Contains(t, none, "1. sáb 12/07/2025")
}

func TestFormatDateKeepsUnparseableInput(t *testing.T) {
	assert.Equal(t, "mañana", FormatDate("mañana"))
}
