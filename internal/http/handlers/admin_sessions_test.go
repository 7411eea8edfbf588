package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/citas-assistant/internal/catalog"
	"github.com/wolfman30/citas-assistant/internal/session"
	"github.com/wolfman30/citas-assistant/internal/transcript"
	"github.com/wolfman30/citas-assistant/pkg/logging"
)

const testSender = "+5215512345678"

func newAdminRouter(t *testing.T, withTranscripts bool) (http.Handler, *session.MemoryStore, *transcript.Store) {
	t.Helper()
	store := session.NewMemoryStore(30 * time.Minute)
	var transcripts *transcript.Store
	if withTranscripts {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		transcripts = transcript.NewStore(client)
	}
	h := NewAdminSessionsHandler(store, transcripts, catalog.Default(), logging.NewWithWriter(io.Discard, "error"))
	r := chi.NewRouter()
	r.Route("/admin", h.Routes)
	return r, store, transcripts
}

func TestAdminGetSession(t *testing.T) {
	router, store, _ := newAdminRouter(t, false)
	require.NoError(t, store.Put(context.Background(), testSender, &session.Session{
		Step:     session.StepDateChoice,
		Service:  "Pediatría",
		DoctorID: "102",
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/sessions/%2B5215512345678", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sender  string `json:"sender"`
		Session struct {
			Step     string `json:"step"`
			Service  string `json:"service"`
			DoctorID string `json:"doctor_id"`
		} `json:"session"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, testSender, resp.Sender)
	assert.Equal(t, "date_choice", resp.Session.Step)
	assert.Equal(t, "Pediatría", resp.Session.Service)
	assert.Equal(t, "102", resp.Session.DoctorID)
}

func TestAdminResetSession(t *testing.T) {
	router, store, _ := newAdminRouter(t, false)
	require.NoError(t, store.Put(context.Background(), testSender, &session.Session{Step: session.StepSlotChoice}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/sessions/"+testSender, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	sess, err := store.Get(context.Background(), testSender)
	require.NoError(t, err)
	assert.Equal(t, session.StepStart, sess.Step)
}

func TestAdminTranscript(t *testing.T) {
	router, _, transcripts := newAdminRouter(t, true)
	ctx := context.Background()
	require.NoError(t, transcripts.Append(ctx, testSender, transcript.Message{Role: transcript.RoleUser, Body: "hola"}))
	require.NoError(t, transcripts.Append(ctx, testSender, transcript.Message{Role: transcript.RoleAssistant, Body: "¡Hola!"}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/sessions/"+testSender+"/transcript?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TranscriptResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "¡Hola!", resp.Messages[0].Body)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/sessions/"+testSender+"/transcript?limit=-2", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminTranscriptDisabled(t *testing.T) {
	router, _, _ := newAdminRouter(t, false)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/sessions/"+testSender+"/transcript", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCatalog(t *testing.T) {
	router, _, _ := newAdminRouter(t, false)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Services []catalog.Service `json:"services"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Services, 4)
	assert.Equal(t, "Medicina General", resp.Services[0].Name)
	assert.Equal(t, "101", resp.Services[0].StaffID)
}
