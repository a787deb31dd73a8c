package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JeanGrijp/seo-report/internal/adapters/http/middleware"
	"github.com/JeanGrijp/seo-report/internal/core/domain"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

const maxBodyBytes = 64 << 10

// Renderer é implementado pelo presenter HTML.
type Renderer interface {
	Render(w io.Writer, doc domain.ReportDocument) error
	RenderForm(w io.Writer) error
}

type reportBody struct {
	Domain     string   `json:"domain" validate:"required,max=253"`
	ReportType string   `json:"reportType" validate:"required,oneof=quick standard detailed"`
	Keywords   []string `json:"keywords" validate:"omitempty,max=50,dive,max=200"`
}

type ReportHandler struct {
	builder  ports.ReportBuilder
	tracker  ports.UsageTracker
	renderer Renderer
	validate *validator.Validate
	log      *zap.Logger
}

func NewReportHandler(builder ports.ReportBuilder, tracker ports.UsageTracker, renderer Renderer, log *zap.Logger) *ReportHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportHandler{
		builder:  builder,
		tracker:  tracker,
		renderer: renderer,
		validate: validator.New(),
		log:      log,
	}
}

// JSON atende POST /api/report.
func (h *ReportHandler) JSON(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HTML atende POST /api/report/html com o relatório renderizado.
func (h *ReportHandler) HTML(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.build(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, doc); err != nil {
		h.log.Error("render report failed", zap.String("report_id", doc.ReportID), zap.Error(err))
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *ReportHandler) build(w http.ResponseWriter, r *http.Request) (domain.ReportDocument, bool) {
	req, err := h.decode(w, r)
	if err != nil {
		writeError(w, err)
		return domain.ReportDocument{}, false
	}

	doc, err := h.builder.Build(r.Context(), req)
	if err != nil {
		h.log.Error("build report failed",
			zap.String("domain", req.Domain),
			zap.String("tier", string(req.Tier)),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err),
		)
		writeError(w, err)
		return domain.ReportDocument{}, false
	}

	if h.tracker != nil {
		h.tracker.Track(domain.UsageEvent{
			Action:    domain.ActionReportGenerated,
			Domain:    doc.Domain,
			Tier:      doc.ReportType,
			Identity:  middleware.IdentityFromContext(r.Context()),
			UserAgent: r.UserAgent(),
			Referrer:  r.Referer(),
		})
	}
	return doc, true
}

// decode aceita JSON ou formulário; keywords do formulário vêm separadas por vírgula.
func (h *ReportHandler) decode(w http.ResponseWriter, r *http.Request) (domain.ReportRequest, error) {
	const op = "decode report request"
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var body reportBody
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return domain.ReportRequest{}, domain.WrapError(domain.KindValidation, op, err)
		}
		body.Domain = r.PostForm.Get("domain")
		body.ReportType = r.PostForm.Get("reportType")
		if raw := r.PostForm.Get("keywords"); raw != "" {
			body.Keywords = strings.Split(raw, ",")
		}
	default:
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&body); err != nil {
			return domain.ReportRequest{}, domain.WrapError(domain.KindValidation, op, err)
		}
	}

	if err := h.validate.Struct(body); err != nil {
		return domain.ReportRequest{}, validationError(op, err)
	}
	return domain.NewReportRequest(body.Domain, body.ReportType, body.Keywords)
}
