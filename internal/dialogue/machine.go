// Package dialogue runs the per-sender booking conversation: service, date,
// slot and confirmation.
package dialogue

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/citas-assistant/internal/availability"
	"github.com/wolfman30/citas-assistant/internal/catalog"
	"github.com/wolfman30/citas-assistant/internal/observability/metrics"
	"github.com/wolfman30/citas-assistant/internal/reply"
	"github.com/wolfman30/citas-assistant/internal/session"
	"github.com/wolfman30/citas-assistant/pkg/logging"
)

// Answerer replies to free-form questions. Implementations always return
// user-ready text.
type Answerer interface {
	Answer(ctx context.Context, question string) string
}

// Deps are the collaborators of a Machine. Store, Catalog, Fetcher and
// Answerer are required.
type Deps struct {
	Store    session.Store
	Locker   *session.Locker
	Catalog  *catalog.Catalog
	Fetcher  availability.Fetcher
	Answerer Answerer
	Metrics  *metrics.DialogueMetrics
	Logger   *logging.Logger
}

// Settings tune the dialogue.
type Settings struct {
	HorizonDays        int
	MaxInvalidAttempts int
	Location           *time.Location
	Now                func() time.Time
}

// Machine consumes one inbound message at a time per sender.
type Machine struct {
	store      session.Store
	locker     *session.Locker
	catalog    *catalog.Catalog
	fetcher    availability.Fetcher
	answerer   Answerer
	metrics    *metrics.DialogueMetrics
	logger     *logging.Logger
	calendar   calendar
	maxInvalid int
	tracer     trace.Tracer
}

// New wires a Machine. A negative MaxInvalidAttempts is treated as zero,
// which disables the automatic reset.
func New(deps Deps, settings Settings) *Machine {
	if deps.Store == nil {
		panic("dialogue: session store cannot be nil")
	}
	if deps.Catalog == nil || deps.Catalog.Len() == 0 {
		panic("dialogue: catalog cannot be empty")
	}
	if deps.Fetcher == nil {
		panic("dialogue: availability fetcher cannot be nil")
	}
	if deps.Answerer == nil {
		panic("dialogue: answerer cannot be nil")
	}
	if deps.Locker == nil {
		deps.Locker = session.NewLocker()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if settings.HorizonDays <= 0 {
		settings.HorizonDays = 14
	}
	if settings.MaxInvalidAttempts < 0 {
		settings.MaxInvalidAttempts = 0
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Machine{
		store:    deps.Store,
		locker:   deps.Locker,
		catalog:  deps.Catalog,
		fetcher:  deps.Fetcher,
		answerer: deps.Answerer,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		calendar: calendar{
			loc:     settings.Location,
			horizon: settings.HorizonDays,
			now:     settings.Now,
		},
		maxInvalid: settings.MaxInvalidAttempts,
		tracer:     otel.Tracer("citas.internal.dialogue"),
	}
}

// turn carries the per-message state through the step handlers.
type turn struct {
	sess    *session.Session
	logger  *logging.Logger
	changed bool
}

// Handle processes one message from sender and returns the reply text.
// Every path produces a reply; errors are logged, never returned.
func (m *Machine) Handle(ctx context.Context, sender, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return reply.EmptyMessage
	}

	ctx, span := m.tracer.Start(ctx, "dialogue.handle")
	defer span.End()

	unlock := m.locker.Lock(sender)
	defer unlock()

	logger := m.logger.WithSender(sender)
	recovered := false
	sess, err := m.store.Get(ctx, sender)
	switch {
	case errors.Is(err, session.ErrCorrupt):
		span.RecordError(err)
		logger.Warn("stored session unreadable; starting over", "error", err)
		sess, recovered = session.New(), true
	case err != nil:
		span.RecordError(err)
		logger.Error("failed to load session", "error", err)
		return reply.TemporaryError
	}

	from := sess.Step
	span.SetAttributes(attribute.String("citas.dialogue.step", from.String()))
	m.metrics.ObserveInbound(from.String())

	t := &turn{sess: sess, logger: logger, changed: recovered}
	out := m.respond(ctx, t, text)

	if t.changed {
		if err := m.store.Put(ctx, sender, sess); err != nil {
			span.RecordError(err)
			logger.Error("failed to save session", "error", err, "step", sess.Step.String())
			return reply.TemporaryError
		}
	}
	if from != sess.Step {
		m.metrics.ObserveTransition(from.String(), sess.Step.String())
		logger.Debug("dialogue transition", "from", from.String(), "to", sess.Step.String())
	}
	return out
}

func (m *Machine) respond(ctx context.Context, t *turn, text string) string {
	sess := t.sess
	if !sess.Step.Valid() {
		t.logger.Warn("session had unknown step; resetting", "step", sess.Step.String(), "error", session.ErrInvalidStep)
		sess.Reset()
		t.changed = true
		return reply.CorruptedSession
	}

	switch parseCommand(text) {
	case commandRestart:
		sess.Reset()
		t.changed = true
		return reply.Restarted
	case commandHelp:
		return reply.Help()
	}

	if req, ok := parseShortcut(text); ok {
		return m.shortcut(ctx, t, req)
	}

	if isQuestion(text) {
		return m.answerer.Answer(ctx, text)
	}

	switch sess.Step {
	case session.StepStart:
		sess.Advance(session.StepAwaitStartConfirm)
		t.changed = true
		return reply.Greeting()
	case session.StepAwaitStartConfirm:
		if isYes(text) {
			return m.offerServices(t)
		}
		return reply.StartConfirmReprompt()
	case session.StepServiceChoice:
		return m.chooseService(t, text)
	case session.StepDateChoice:
		return m.chooseDate(ctx, t, text)
	case session.StepSlotChoice:
		return m.chooseSlot(ctx, t, text)
	}

	sess.Reset()
	t.changed = true
	return reply.CorruptedSession
}

func (m *Machine) offerServices(t *turn) string {
	names := m.catalog.Names()
	t.sess.Reset()
	t.sess.ServiceOptions = names
	t.sess.Advance(session.StepServiceChoice)
	t.changed = true
	return reply.ServiceList(names)
}

func (m *Machine) chooseService(t *turn, text string) string {
	opts := t.sess.ServiceOptions
	svc, ok := m.resolveService(text, opts)
	if !ok {
		return m.invalid(t, len(opts), reply.ServiceList(opts))
	}
	return m.offerDates(t, svc)
}

// resolveService accepts the option number or the service name itself, as
// long as it was offered.
func (m *Machine) resolveService(text string, opts []string) (catalog.Service, bool) {
	if idx, ok := parseChoice(text, len(opts)); ok {
		return m.catalog.Lookup(opts[idx])
	}
	svc, ok := m.catalog.Match(clean(text))
	if !ok {
		return catalog.Service{}, false
	}
	for _, o := range opts {
		if catalog.Normalize(o) == catalog.Normalize(svc.Name) {
			return svc, true
		}
	}
	return catalog.Service{}, false
}

func (m *Machine) offerDates(t *turn, svc catalog.Service) string {
	sess := t.sess
	sess.SelectService(svc.Name, svc.StaffID)
	sess.DateOptions = m.calendar.dates()
	sess.Advance(session.StepDateChoice)
	t.changed = true
	return reply.DateList(svc.Name, svc.Doctor, sess.DateOptions)
}

func (m *Machine) chooseDate(ctx context.Context, t *turn, text string) string {
	sess := t.sess
	svc, ok := m.currentService(t)
	if !ok {
		return m.corrupted(t)
	}
	opts := sess.DateOptions
	idx, ok := parseChoice(text, len(opts))
	if !ok {
		return m.invalid(t, len(opts), reply.DateList(svc.Name, svc.Doctor, opts))
	}
	date := opts[idx]
	if !m.calendar.contains(date) {
		// The list was offered on an earlier day.
		sess.DateOptions = m.calendar.dates()
		t.changed = true
		first, last := m.calendar.bounds()
		return reply.OutOfHorizon(first, last) + "\n\n" + reply.DateList(svc.Name, svc.Doctor, sess.DateOptions)
	}
	return m.loadSlots(ctx, t, svc, date)
}

// loadSlots fetches the day's openings. The session stays in DATE_CHOICE
// unless slots exist.
func (m *Machine) loadSlots(ctx context.Context, t *turn, svc catalog.Service, date string) string {
	sess := t.sess
	days, err := m.fetch(ctx, t, svc.StaffID)
	if err != nil {
		return availabilityFailure(err)
	}

	day, _ := availability.FindDay(days, date)
	slots := availability.SortedSlots(day.Slots)
	if len(slots) == 0 {
		sess.Date = ""
		sess.SlotOptions = nil
		sess.InvalidAttempts = 0
		t.changed = true
		return reply.NoSlotsForDate(date, sess.DateOptions)
	}

	if err := sess.SelectDate(date); err != nil {
		return m.corrupted(t)
	}
	sess.SlotOptions = slots
	sess.Advance(session.StepSlotChoice)
	t.changed = true
	return reply.SlotList(svc.Doctor, date, slots)
}

func (m *Machine) chooseSlot(ctx context.Context, t *turn, text string) string {
	sess := t.sess
	svc, ok := m.currentService(t)
	if !ok || sess.Date == "" {
		return m.corrupted(t)
	}
	idx, ok := parseChoice(text, len(sess.SlotOptions))
	if !ok {
		return m.invalid(t, len(sess.SlotOptions), reply.SlotList(svc.Doctor, sess.Date, sess.SlotOptions))
	}
	return m.confirm(ctx, t, svc, sess.SlotOptions[idx])
}

// confirm re-reads availability and books only if the slot is still listed.
func (m *Machine) confirm(ctx context.Context, t *turn, svc catalog.Service, chosen availability.Slot) string {
	sess := t.sess
	days, err := m.fetch(ctx, t, svc.StaffID)
	if err != nil {
		return availabilityFailure(err)
	}

	day, _ := availability.FindDay(days, sess.Date)
	fresh := availability.SortedSlots(day.Slots)
	if availability.Contains(fresh, chosen) {
		msg := reply.Confirmation(svc.Name, svc.Doctor, sess.Date, chosen)
		t.logger.Info("appointment confirmed",
			"service", svc.Name,
			"staff_id", svc.StaffID,
			"date", sess.Date,
			"start", chosen.Start,
		)
		m.metrics.ObserveConfirmation(svc.Name)
		sess.Reset()
		t.changed = true
		return msg
	}

	m.metrics.ObserveSlotRace()
	t.logger.Info("chosen slot no longer available", "date", sess.Date, "start", chosen.Start, "remaining", len(fresh))
	date := sess.Date
	t.changed = true
	if len(fresh) == 0 {
		sess.Date = ""
		sess.SlotOptions = nil
		sess.DateOptions = m.calendar.dates()
		sess.Advance(session.StepDateChoice)
		return reply.SlotTakenNoneLeft(date, sess.DateOptions)
	}
	sess.SlotOptions = fresh
	sess.InvalidAttempts = 0
	return reply.SlotTaken(date, fresh)
}

func (m *Machine) shortcut(ctx context.Context, t *turn, req shortcutRequest) string {
	if req.service == "" {
		return m.offerServices(t)
	}
	svc, ok := m.catalog.Match(req.service)
	if !ok {
		m.offerServices(t)
		return reply.UnknownService(t.sess.ServiceOptions)
	}
	if !req.hasDate {
		t.sess.Reset()
		return m.offerDates(t, svc)
	}

	date, ok := m.calendar.resolve(req.day, req.month, req.year)
	if !ok || !m.calendar.contains(date) {
		first, last := m.calendar.bounds()
		return reply.OutOfHorizon(first, last)
	}

	t.sess.Reset()
	m.offerDates(t, svc)
	return m.loadSlots(ctx, t, svc, date)
}

// invalid counts a rejected input and re-prompts, or resets once the limit is hit.
func (m *Machine) invalid(t *turn, count int, prompt string) string {
	t.sess.InvalidAttempts++
	t.changed = true
	if m.maxInvalid > 0 && t.sess.InvalidAttempts >= m.maxInvalid {
		t.logger.Info("too many invalid attempts; resetting", "step", t.sess.Step.String(), "attempts", t.sess.InvalidAttempts)
		t.sess.Reset()
		return reply.TooManyAttempts
	}
	return reply.InvalidChoice(count, prompt)
}

func (m *Machine) currentService(t *turn) (catalog.Service, bool) {
	svc, ok := m.catalog.Lookup(t.sess.Service)
	if !ok || svc.StaffID != t.sess.DoctorID {
		return catalog.Service{}, false
	}
	return svc, true
}

func (m *Machine) corrupted(t *turn) string {
	t.logger.Warn("session fields inconsistent with step; resetting", "step", t.sess.Step.String())
	t.sess.Reset()
	t.changed = true
	return reply.CorruptedSession
}

func (m *Machine) fetch(ctx context.Context, t *turn, staffID string) ([]availability.Day, error) {
	started := time.Now()
	days, err := m.fetcher.Fetch(ctx, staffID)
	status := "ok"
	switch {
	case errors.Is(err, availability.ErrNotConfigured):
		status = "not_configured"
	case err != nil:
		status = "error"
	}
	m.metrics.ObserveAvailability(status, time.Since(started).Seconds())
	if err != nil {
		t.logger.Error("availability fetch failed", "staff_id", staffID, "error", err)
	}
	return days, err
}

func availabilityFailure(err error) string {
	if errors.Is(err, availability.ErrNotConfigured) {
		return reply.ConfigError
	}
	return reply.AvailabilityError
}
