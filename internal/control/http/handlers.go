package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sekz/ODR-PadEnc/internal/charset"
	"github.com/sekz/ODR-PadEnc/internal/dls"
	"github.com/sekz/ODR-PadEnc/internal/fingerprint"
	"github.com/sekz/ODR-PadEnc/internal/slideshow"
)

// writeJSON mirrors the teacher's status handler: set the content-type
// header, encode, log encoding failures rather than trying to recover from
// a half-written response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("control: encode response failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// engineHealth is one engine's sub-status within healthResponse.
type engineHealth struct {
	Healthy  bool      `json:"healthy"`
	Size     int       `json:"size"`
	Cap      int       `json:"cap,omitempty"`
	LastRef  string    `json:"last_ref,omitempty"`
	LastTick time.Time `json:"last_tick_at,omitempty"`
}

// healthResponse is the GET /health payload: an overall status plus a
// per-engine breakdown, so a monitoring probe can tell which half of the
// pipeline is degraded without also polling GET /status.
type healthResponse struct {
	Status    string       `json:"status"`
	Slideshow engineHealth `json:"slideshow"`
	DLS       engineHealth `json:"dls"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cs := s.coord.Status()

	resp := healthResponse{
		Status: "ok",
		Slideshow: engineHealth{
			Healthy:  cs.SlideshowHealthy,
			Size:     s.slides.Len(),
			Cap:      s.slides.Cap(),
			LastRef:  cs.LastSlideshowFP,
			LastTick: cs.LastTickAt,
		},
		DLS: engineHealth{
			Healthy:  cs.DLSHealthy,
			Size:     s.messages.Len(),
			LastRef:  cs.LastDLSSourceID,
			LastTick: cs.LastTickAt,
		},
	}
	if !resp.Slideshow.Healthy || !resp.DLS.Healthy {
		resp.Status = "degraded"
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, resp)
}

// statusResponse mirrors the Coordinator's Status snapshot plus queue sizes,
// the §6 GET /status payload.
type statusResponse struct {
	SlideshowHealthy bool      `json:"slideshow_healthy"`
	DLSHealthy       bool      `json:"dls_healthy"`
	EmergencyActive  bool      `json:"emergency_active"`
	EmergencyMessage string    `json:"emergency_message,omitempty"`
	Context          string    `json:"context"`
	SlideshowCount   int       `json:"slideshow_count"`
	DLSQueueCount    int       `json:"dls_queue_count"`
	LastTickAt       time.Time `json:"last_tick_at"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cs := s.coord.Status()
	s.writeJSON(w, http.StatusOK, statusResponse{
		SlideshowHealthy: cs.SlideshowHealthy,
		DLSHealthy:       cs.DLSHealthy,
		EmergencyActive:  cs.EmergencyActive,
		EmergencyMessage: cs.EmergencyMessage,
		Context:          cs.Context.String(),
		SlideshowCount:   s.slides.Len(),
		DLSQueueCount:    s.messages.Len(),
		LastTickAt:       cs.LastTickAt,
	})
}

type imageSummary struct {
	Fingerprint string  `json:"fingerprint"`
	Format      string  `json:"format"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ServeCount  int     `json:"serve_count"`
	Freshness   float64 `json:"freshness"`
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	entries := s.slides.Snapshot()
	out := make([]imageSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, imageSummary{
			Fingerprint: string(e.Fingerprint),
			Format:      string(e.Format),
			Width:       e.Width,
			Height:      e.Height,
			ServeCount:  e.ServeCount,
			Freshness:   e.Freshness,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type addImageRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleAddImage(w http.ResponseWriter, r *http.Request) {
	var req addImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := s.slides.Add(r.Context(), req.Path); err != nil {
		if err == slideshow.ErrDuplicate {
			s.writeError(w, http.StatusConflict, "duplicate image")
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.notify.publish(event{Kind: "image_added", Data: req.Path})
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.slides.Remove(fingerprint.Fingerprint(id)) {
		s.writeError(w, http.StatusNotFound, "image not found")
		return
	}
	s.notify.publish(event{Kind: "image_removed", Data: id})
	w.WriteHeader(http.StatusNoContent)
}

type messageSummary struct {
	SourceID  string    `json:"source_id"`
	Text      string    `json:"text"`
	Priority  string    `json:"priority"`
	IsThai    bool      `json:"is_thai"`
	SendCount int       `json:"send_count"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs := s.messages.Snapshot()
	out := make([]messageSummary, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageSummary{
			SourceID:  m.SourceID,
			Text:      m.Text,
			Priority:  m.Priority.String(),
			IsThai:    m.IsThai,
			SendCount: m.SendCount,
			CreatedAt: m.CreatedAt,
			ExpiresAt: m.ExpiresAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type addMessageRequest struct {
	SourceID   string  `json:"source_id"`
	Text       string  `json:"text"`
	Priority   int     `json:"priority"`
	Importance float64 `json:"importance"`
	MaxSends   int     `json:"max_sends"`
}

func (s *Server) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	var req addMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	verdict := s.validator.Validate(req.Text)
	if !verdict.IsAppropriate {
		s.writeError(w, http.StatusUnprocessableEntity, "text failed appropriateness validation")
		return
	}

	msg, err := s.messages.Add(dls.AddRequest{
		SourceID:   req.SourceID,
		Text:       req.Text,
		Priority:   dls.Priority(req.Priority),
		Importance: req.Importance,
		MaxSends:   req.MaxSends,
		Source:     dls.Manual,
	})
	if err != nil {
		if err == dls.ErrDuplicate {
			s.writeError(w, http.StatusConflict, "duplicate message")
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.notify.publish(event{Kind: "message_added", Data: msg.SourceID})
	s.writeJSON(w, http.StatusCreated, messageSummary{
		SourceID:  msg.SourceID,
		Text:      msg.Text,
		Priority:  msg.Priority.String(),
		IsThai:    msg.IsThai,
		CreatedAt: msg.CreatedAt,
		ExpiresAt: msg.ExpiresAt,
	})
}

type setEmergencyRequest struct {
	Message         string `json:"message"`
	DurationSeconds int    `json:"duration_seconds"`
}

func (s *Server) handleSetEmergency(w http.ResponseWriter, r *http.Request) {
	var req setEmergencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	duration := time.Duration(req.DurationSeconds) * time.Second
	if err := s.coord.SetEmergency(req.Message, duration); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.notify.publish(event{Kind: "emergency_set", Data: req.Message})
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleClearEmergency(w http.ResponseWriter, r *http.Request) {
	if err := s.coord.ClearEmergency(); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.notify.publish(event{Kind: "emergency_cleared"})
	w.WriteHeader(http.StatusNoContent)
}

type thaiTextRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleThaiValidate(w http.ResponseWriter, r *http.Request) {
	var req thaiTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.writeJSON(w, http.StatusOK, s.validator.Validate(req.Text))
}

type thaiConvertResponse struct {
	Encoded []byte `json:"encoded"`
}

func (s *Server) handleThaiConvert(w http.ResponseWriter, r *http.Request) {
	var req thaiTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.writeJSON(w, http.StatusOK, thaiConvertResponse{Encoded: charset.Encode(req.Text)})
}

type buddhistDateResponse struct {
	YearBE        int    `json:"year_be"`
	YearCE        int    `json:"year_ce"`
	Month         int    `json:"month"`
	Day           int    `json:"day"`
	ThaiMonthName string `json:"thai_month_name"`
	ThaiDayName   string `json:"thai_day_name"`
	IsHolyDay     bool   `json:"is_holy_day"`
	Formatted     string `json:"formatted"`
}

// handleBuddhistDate resolves a Common-Era instant into its Buddhist-Era
// calendar fields (spec.md §1's "Buddhist-era date formatting" scope line).
// ?date=<RFC3339> overrides "now" for reproducible ticker rendering; an
// unparseable or missing value falls back to the current time rather than
// erroring, since this endpoint always has a sensible default.
func (s *Server) handleBuddhistDate(w http.ResponseWriter, r *http.Request) {
	t := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			t = parsed
		}
	}
	bd := charset.GetBuddhistDate(t)
	s.writeJSON(w, http.StatusOK, buddhistDateResponse{
		YearBE:        bd.YearBE,
		YearCE:        bd.YearCE,
		Month:         bd.Month,
		Day:           bd.Day,
		ThaiMonthName: bd.ThaiMonthName,
		ThaiDayName:   bd.ThaiDayName,
		IsHolyDay:     bd.IsHolyDay,
		Formatted:     charset.FormatBuddhistDate(t),
	})
}

type reloadResponse struct {
	Version         string `json:"version"`
	SlideshowTickMs int64  `json:"slideshow_tick_ms"`
	DLSTickMs       int64  `json:"dls_tick_ms"`
}

// handleConfigReload re-runs the config loader and hot-swaps the
// Coordinator's tick cadence and the Validator's token lists, draining
// the current tick first (§5 reconfigure-drains-first, via
// coordinator.Reconfigure -> config.WaitDrain).
func (s *Server) handleConfigReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.reloadConfig()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.notify.publish(event{Kind: "config_reloaded", Data: snap.Version})
	s.writeJSON(w, http.StatusOK, reloadResponse{
		Version:         snap.Version,
		SlideshowTickMs: snap.Slideshow.TickInterval.Milliseconds(),
		DLSTickMs:       snap.DLS.TickInterval.Milliseconds(),
	})
}
