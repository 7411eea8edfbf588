// Package reply renders the text sent back to the sender. Every numbered
// list is 1-based and follows the order of the slice it is given, which is the
// same order the dialogue stores for resolving the next reply.
package reply

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/citas-assistant/internal/availability"
)

// Fixed messages.
const (
	EmptyMessage      = "Por favor, envía un mensaje válido."
	AvailabilityError = "Error al obtener horarios. Intenta de nuevo."
	ConfigError       = "Error de configuración del bot. Contacta al administrador."
	FallbackApology   = "Lo siento, hubo un error con el bot. Intenta más tarde."
	TemporaryError    = "Estamos teniendo problemas técnicos. Intenta más tarde."
	Restarted         = "Conversación reiniciada. Escribe cualquier mensaje para comenzar de nuevo."
	TooManyAttempts   = "Demasiados intentos no válidos. Reiniciamos la conversación; escribe cualquier mensaje para comenzar de nuevo."
	CorruptedSession  = "Lo sentimos, ocurrió un problema con tu conversación y la reiniciamos. Escribe cualquier mensaje para comenzar."
)

const dateLayout = "2006-01-02"

var weekdays = [...]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"}

// Greeting opens the dialogue and asks for the booking confirmation.
func Greeting() string {
	return "¡Hola! Soy el asistente de citas médicas. ¿Deseas agendar una cita? Responde \"sí\" para continuar."
}

// StartConfirmReprompt repeats the opening question.
func StartConfirmReprompt() string {
	return "Para agendar una cita responde \"sí\". Si tienes otra pregunta, escríbela terminando con \"?\"."
}

// Help lists the commands the assistant understands.
func Help() string {
	return "Puedes escribir:\n" +
		"- \"sí\" para empezar a agendar\n" +
		"- el número de una opción de la lista\n" +
		"- \"agendar <servicio> el DD/MM\" para ir directo\n" +
		"- \"cancelar\" para reiniciar la conversación"
}

// ServiceList renders the services available for booking.
func ServiceList(services []string) string {
	var sb strings.Builder
	sb.WriteString("Estos son nuestros servicios:\n")
	writeNumbered(&sb, services)
	sb.WriteString("\nResponde con el número del servicio.")
	return sb.String()
}

// UnknownService is sent when a shortcut names a service not in the catalog.
func UnknownService(services []string) string {
	return "No encontré ese servicio. " + ServiceList(services)
}

// DateList renders the bookable dates for the chosen service.
func DateList(service, doctor string, dates []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Elegiste %s con %s.\nElige una fecha:\n", service, doctor)
	writeNumbered(&sb, formatDates(dates))
	sb.WriteString("\nResponde con el número de la fecha.")
	return sb.String()
}

// NoSlotsForDate asks for another date when the chosen one has no openings.
func NoSlotsForDate(date string, dates []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "No hay horarios disponibles para el %s. Elige otra fecha:\n", FormatDate(date))
	writeNumbered(&sb, formatDates(dates))
	sb.WriteString("\nResponde con el número de la fecha.")
	return sb.String()
}

// SlotList renders the open slots of one date.
func SlotList(doctor, date string, slots []availability.Slot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Horarios disponibles con %s el %s:\n", doctor, FormatDate(date))
	writeNumbered(&sb, formatSlots(slots))
	sb.WriteString("\nResponde con el número del horario.")
	return sb.String()
}

// SlotTaken re-renders the slots of the same date after the chosen one was booked.
func SlotTaken(date string, slots []availability.Slot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Lo sentimos, ese horario acaba de ser reservado. Estos son los horarios disponibles para el %s:\n", FormatDate(date))
	writeNumbered(&sb, formatSlots(slots))
	sb.WriteString("\nResponde con el número del horario.")
	return sb.String()
}

// SlotTakenNoneLeft is sent when the chosen slot was booked and the date has no openings left.
func SlotTakenNoneLeft(date string, dates []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Lo sentimos, ese horario acaba de ser reservado y ya no quedan horarios el %s. Elige otra fecha:\n", FormatDate(date))
	writeNumbered(&sb, formatDates(dates))
	sb.WriteString("\nResponde con el número de la fecha.")
	return sb.String()
}

// InvalidChoice prefixes a re-rendered prompt with the accepted range.
func InvalidChoice(count int, prompt string) string {
	return fmt.Sprintf("Opción no válida. Responde con un número del 1 al %d.\n\n%s", count, prompt)
}

// OutOfHorizon states the range in which dates are accepted.
func OutOfHorizon(first, last string) string {
	return fmt.Sprintf("Solo podemos agendar citas entre el %s y el %s. Indica una fecha dentro de ese rango.", FormatDate(first), FormatDate(last))
}

// Confirmation echoes the booked service, doctor, date and time range.
func Confirmation(service, doctor, date string, slot availability.Slot) string {
	return fmt.Sprintf("✅ Tu cita de %s con %s quedó confirmada para el %s de %s a %s.\nGracias por agendar con nosotros.",
		service, doctor, FormatDate(date), slot.StartClock(), slot.EndClock())
}

// FormatDate renders YYYY-MM-DD as "jue 10/07/2025". Unparseable input is returned unchanged.
func FormatDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return weekdays[t.Weekday()] + " " + t.Format("02/01/2006")
}

// FormatSlot renders a slot as "09:00 - 09:30".
func FormatSlot(slot availability.Slot) string {
	return slot.StartClock() + " - " + slot.EndClock()
}

func formatDates(dates []string) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = FormatDate(d)
	}
	return out
}

func formatSlots(slots []availability.Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = FormatSlot(s)
	}
	return out
}

func writeNumbered(sb *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(sb, "%d. %s\n", i+1, item)
	}
}
