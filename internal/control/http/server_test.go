package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sekz/ODR-PadEnc/internal/coordinator"
	"github.com/sekz/ODR-PadEnc/internal/dls"
	"github.com/sekz/ODR-PadEnc/internal/padsink"
	"github.com/sekz/ODR-PadEnc/internal/slideshow"
	"github.com/sekz/ODR-PadEnc/internal/validator"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	slides := slideshow.New(slideshow.Config{Cap: 5}, nil, nil)
	messages := dls.New(dls.Config{}, nil)
	selector := dls.NewContextSelector()
	sink := padsink.NewMemorySink()
	coord := coordinator.New(coordinator.Config{
		SlideshowTickInterval: time.Millisecond,
		DLSTickInterval:       time.Millisecond,
		DLSEmergencyInterval:  time.Millisecond,
	}, slides, messages, selector, sink, nil)
	v := validator.New(validator.TokenLists{Disallowed: []string{"badword"}})

	s := New(Config{RateLimitRPS: 1000}, slides, messages, coord, selector, v)
	t.Cleanup(func() {
		slides.Stop()
		messages.Stop()
	})
	return s
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "ok", got.Status)
	require.True(t, got.Slideshow.Healthy)
	require.True(t, got.DLS.Healthy)
	require.Equal(t, 5, got.Slideshow.Cap)
}

func TestHandleConfigReload(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/config/reload", nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got reloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotZero(t, got.DLSTickMs)
	require.NotZero(t, got.SlideshowTickMs)
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.True(t, got.DLSHealthy)
	require.False(t, got.EmergencyActive)
}

func TestHandleAddMessageRejectsDisallowedText(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(addMessageRequest{SourceID: "x", Text: "this has a badword in it"})
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleAddMessageAdmitsCleanText(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(addMessageRequest{SourceID: "x", Text: "clean update"})
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, s.messages.Len())
}

func TestHandleEmergencySetAndClear(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(setEmergencyRequest{Message: "evacuate now", DurationSeconds: 0})
	req := httptest.NewRequest(http.MethodPost, "/emergency", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.True(t, s.coord.Status().EmergencyActive)

	req = httptest.NewRequest(http.MethodDelete, "/emergency", nil)
	rec = httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.False(t, s.coord.Status().EmergencyActive)
}

func TestHandleThaiValidate(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(thaiTextRequest{Text: "สวัสดี"})
	req := httptest.NewRequest(http.MethodPost, "/thai/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var verdict validator.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verdict))
	require.True(t, verdict.IsAppropriate)
}

func TestHandleThaiConvert(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(thaiTextRequest{Text: "AB"})
	req := httptest.NewRequest(http.MethodPost, "/thai/convert", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got thaiConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, []byte{0x0E, 'A', 'B'}, got.Encoded)
}

func TestListenAndServeRespectsContextCancellation(t *testing.T) {
	s := newTestServer(t)
	s.cfg.BindAddr = "127.0.0.1:0"
	s.server.Addr = s.cfg.BindAddr

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ListenAndServe did not return after context cancellation")
	}
}
