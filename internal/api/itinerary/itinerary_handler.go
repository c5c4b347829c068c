package itinerary

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-day-trip-planner/internal/api"
	"github.com/FACorreiaa/go-day-trip-planner/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

const missingInputMessage = "Please enter both city and interests."

type HandlerImpl struct {
	service  Service
	logger   *slog.Logger
	page     *template.Template
	markdown *MarkdownRenderer
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service:  service,
		logger:   logger,
		page:     template.Must(template.ParseFS(templateFS, "templates/planner.html")),
		markdown: NewMarkdownRenderer(),
	}
}

// pageData is what planner.html renders. At most one of Warning, Error and
// Itinerary is set.
type pageData struct {
	City          string
	Interests     string
	Warning       string
	Error         string
	Itinerary     *types.Itinerary
	// ItineraryHTML is Itinerary.Text rendered from markdown and sanitized.
	ItineraryHTML template.HTML
}

// ShowForm handles GET / - renders the empty planner form.
func (h *HandlerImpl) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageData{})
}

// SubmitForm handles POST / - the planner form submission.
func (h *HandlerImpl) SubmitForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "SubmitForm", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "SubmitForm"))

	if err := r.ParseForm(); err != nil {
		l.WarnContext(ctx, "Invalid form submission", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid form")
		h.render(w, r, http.StatusBadRequest, pageData{Error: "The form could not be read. Please try again."})
		return
	}

	req := types.DayTripRequest{
		City:      r.PostForm.Get("city"),
		Interests: r.PostForm.Get("interests"),
	}
	data := pageData{City: req.City, Interests: req.Interests}

	itinerary, err := h.service.PlanDayTrip(ctx, req)
	if err != nil {
		status, message := classifyError(err)
		l.InfoContext(ctx, "Itinerary not generated", slog.Int("status", status), slog.Any("error", err))
		span.SetStatus(codes.Error, message)
		if errors.Is(err, types.ErrMissingInput) {
			data.Warning = message
		} else {
			data.Error = message
		}
		h.render(w, r, status, data)
		return
	}

	span.SetAttributes(attribute.String("app.itinerary.id", itinerary.ID.String()))

	rendered, err := h.markdown.Render(itinerary.Text)
	if err != nil {
		l.WarnContext(ctx, "Falling back to plain text itinerary", slog.Any("error", err))
		rendered = template.HTML(template.HTMLEscapeString(itinerary.Text))
	}

	span.SetStatus(codes.Ok, "Itinerary rendered")
	data.Itinerary = itinerary
	data.ItineraryHTML = rendered
	h.render(w, r, http.StatusOK, data)
}

// CreateItinerary godoc
// @Summary      Generate a day trip itinerary
// @Description  Formats the city and comma-separated interests into the planner prompt and returns the model's text unchanged.
// @Tags         Itinerary
// @Accept       json
// @Produce      json
// @Param        request body types.DayTripRequest true "City and comma-separated interests"
// @Success      200 {object} types.ItineraryResponse
// @Failure      400 {object} map[string]interface{} "Missing input or malformed body"
// @Failure      502 {object} map[string]interface{} "Completion service failure"
// @Router       /api/v1/itinerary [post]
func (h *HandlerImpl) CreateItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "CreateItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/itinerary"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "CreateItinerary"))

	var req types.DayTripRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	itinerary, err := h.service.PlanDayTrip(ctx, req)
	if err != nil {
		status, message := classifyError(err)
		l.InfoContext(ctx, "Itinerary not generated", slog.Int("status", status), slog.Any("error", err))
		span.SetStatus(codes.Error, message)
		api.ErrorResponse(w, r, status, message)
		return
	}

	span.SetAttributes(attribute.String("app.itinerary.id", itinerary.ID.String()))
	span.SetStatus(codes.Ok, "Itinerary generated")
	api.WriteJSONResponse(w, r, http.StatusOK, types.ItineraryResponse{Success: true, Itinerary: itinerary})
}

// classifyError maps service errors to a status code and a user-facing message.
func classifyError(err error) (int, string) {
	var completionErr *types.CompletionError
	switch {
	case errors.Is(err, types.ErrMissingInput):
		return http.StatusBadRequest, missingInputMessage
	case errors.As(err, &completionErr):
		return http.StatusBadGateway, "Could not generate an itinerary: " + completionErr.Reason
	default:
		return http.StatusInternalServerError, "Could not generate an itinerary."
	}
}

func (h *HandlerImpl) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render planner page", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to write planner page", slog.Any("error", err))
	}
}
