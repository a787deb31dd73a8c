package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JeanGrijp/seo-report/internal/adapters/http/middleware"
	"github.com/JeanGrijp/seo-report/internal/core/domain"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

type trackBody struct {
	Action     string `json:"action" validate:"required,max=64"`
	Domain     string `json:"domain" validate:"max=253"`
	ReportType string `json:"reportType" validate:"max=32"`
}

type trackResponse struct {
	Tracked bool `json:"tracked"`
}

// TrackHandler recebe eventos do navegador e sempre responde 200 com {tracked}.
type TrackHandler struct {
	tracker  ports.UsageTracker
	validate *validator.Validate
	log      *zap.Logger
}

func NewTrackHandler(tracker ports.UsageTracker, log *zap.Logger) *TrackHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TrackHandler{tracker: tracker, validate: validator.New(), log: log}
}

func (h *TrackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var body trackBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.log.Debug("track body rejected", zap.Error(err))
		writeJSON(w, http.StatusOK, trackResponse{Tracked: false})
		return
	}
	if err := h.validate.Struct(body); err != nil {
		h.log.Debug("track body rejected", zap.Error(validationError("track", err)))
		writeJSON(w, http.StatusOK, trackResponse{Tracked: false})
		return
	}

	event := domain.UsageEvent{
		Action:    strings.TrimSpace(body.Action),
		Domain:    strings.ToLower(strings.TrimSpace(body.Domain)),
		Identity:  middleware.ExtractIdentity(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}
	if tier, err := domain.ParseTier(body.ReportType); err == nil {
		event.Tier = tier
	}

	tracked := h.tracker != nil && h.tracker.Track(event)
	writeJSON(w, http.StatusOK, trackResponse{Tracked: tracked})
}
