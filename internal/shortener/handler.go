package shortener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sundayezeilo/shortlink/codegen"
	"github.com/sundayezeilo/shortlink/internal/analytics"
	"github.com/sundayezeilo/shortlink/internal/clicks"
	"github.com/sundayezeilo/shortlink/internal/errx"
	"github.com/sundayezeilo/shortlink/internal/httpx"
	"github.com/sundayezeilo/shortlink/internal/ratelimit"
)

// HTTPCreateLinkRequest represents the JSON request body for creating a link.
type HTTPCreateLinkRequest struct {
	URL        string `json:"url"`
	CustomCode string `json:"custom_code,omitempty"`
	OwnerID    *int64 `json:"owner_id,omitempty"`
}

// LinkResponse represents the JSON shape of a link.
type LinkResponse struct {
	ID            string  `json:"id"`
	ShortCode     string  `json:"short_code"`
	LongURL       string  `json:"long_url"`
	ShortURL      string  `json:"short_url"`
	IsCustom      bool    `json:"is_custom"`
	Clicks        int64   `json:"clicks"`
	Disabled      bool    `json:"disabled"`
	DisableReason *string `json:"disable_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// PreviewResponse is the preview payload: the link plus its analytics
// report. Analytics is omitted when the report cannot be built.
type PreviewResponse struct {
	LinkResponse
	Analytics *analytics.Summary `json:"analytics,omitempty"`
}

// Summarizer produces per-link analytics.
type Summarizer interface {
	Summarize(ctx context.Context, code string) (analytics.Summary, error)
}

// Handler provides HTTP handlers for the URL shortener service.
type Handler struct {
	service   Service
	analytics Summarizer
	limiter   ratelimit.Limiter
	recorder  clicks.Recorder
	logger    *slog.Logger
	baseURL   string
	baseHost  string

	redirectLimit int
	previewLimit  int
	limitWindow   time.Duration
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service   Service
	Analytics Summarizer
	Limiter   ratelimit.Limiter
	Recorder  clicks.Recorder
	Logger    *slog.Logger
	BaseURL   string // Base URL for constructing short URLs (e.g., "https://sho.rt")

	RedirectLimit int
	PreviewLimit  int
	LimitWindow   time.Duration
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	baseHost := ""
	if u, err := url.Parse(cfg.BaseURL); err == nil {
		baseHost = u.Host
	}

	return &Handler{
		service:       cfg.Service,
		analytics:     cfg.Analytics,
		limiter:       cfg.Limiter,
		recorder:      cfg.Recorder,
		logger:        logger,
		baseURL:       cfg.BaseURL,
		baseHost:      baseHost,
		redirectLimit: cfg.RedirectLimit,
		previewLimit:  cfg.PreviewLimit,
		limitWindow:   cfg.LimitWindow,
	}
}

// Redirect handles GET /{code}: the hot path. It validates the code shape,
// applies the per-IP limit, rejects self-referential loops, resolves the
// destination, and hands the hit to the click pipeline before redirecting.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(ctx, r)

	code := r.PathValue("code")
	// Malformed codes can never exist, so they are reported exactly like
	// missing ones.
	if codegen.ValidateCode(code) != nil {
		httpx.WriteError(w, http.StatusNotFound, "not_found",
			"short link doesn't exist", nil)
		return
	}

	clientIP := httpx.ClientIP(r)
	if !h.allow(ctx, logger, "redirect", clientIP, h.redirectLimit) {
		httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited",
			"Too many requests. Please slow down.", nil)
		return
	}

	if h.isRedirectLoop(r, code) {
		logger.WarnContext(ctx, "redirect loop detected",
			"short_code", code,
			"referer", r.Referer(),
		)
		httpx.WriteError(w, httpx.StatusLoopDetected, "loop_detected",
			"Redirect loop detected", nil)
		return
	}

	longURL, err := h.service.Resolve(ctx, code)
	if err != nil {
		h.handleResolveError(ctx, w, err, code)
		return
	}

	h.recorder.Record(clicks.RawHit{
		ShortCode: code,
		IP:        clientIP,
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
		Time:      time.Now(),
	})

	logger.InfoContext(ctx, "redirecting",
		"short_code", code,
		"long_url", longURL,
	)

	http.Redirect(w, r, longURL, http.StatusMovedPermanently)
}

// Preview handles GET /preview/{code}: shows where a code leads without
// counting a click.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(ctx, r)

	code := r.PathValue("code")
	if codegen.ValidateCode(code) != nil {
		httpx.WriteError(w, http.StatusNotFound, "not_found",
			"short link doesn't exist", nil)
		return
	}

	clientIP := httpx.ClientIP(r)
	if !h.allow(ctx, logger, "preview", clientIP, h.previewLimit) {
		httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited",
			"Too many requests. Please slow down.", nil)
		return
	}

	link, err := h.service.Preview(ctx, code)
	if err != nil {
		h.handleResolveError(ctx, w, err, code)
		return
	}

	resp := PreviewResponse{LinkResponse: h.linkResponse(link)}

	// The preview still renders without its report.
	summary, err := h.analytics.Summarize(ctx, code)
	if err != nil {
		logger.WarnContext(ctx, "failed to summarize link for preview",
			"short_code", code,
			"error", err.Error(),
		)
	} else {
		resp.Analytics = &summary
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// CreateLink handles POST /api/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(ctx, r)

	req, err := httpx.DecodeJSON[HTTPCreateLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request",
			"error", err.Error(),
		)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	if req.URL == "" {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "url is required", nil)
		return
	}

	link, err := h.service.Create(ctx, CreateLinkRequest{
		LongURL:    req.URL,
		CustomCode: req.CustomCode,
		OwnerID:    req.OwnerID,
	})
	if err != nil {
		h.handleCreateError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "link created",
		"link_id", link.ID.String(),
		"short_code", link.ShortCode,
		"custom_code", req.CustomCode != "",
	)

	httpx.WriteJSON(w, http.StatusCreated, h.linkResponse(link))
}

// GetLink handles GET /api/links/{code}. Returns the link in any state.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	link, err := h.service.Get(ctx, r.PathValue("code"))
	if err != nil {
		h.handleAdminError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, h.linkResponse(link))
}

// ListLinks handles GET /api/links?owner_id=N. Lists all links that
// belong to one owner, newest first.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, err := strconv.ParseInt(r.URL.Query().Get("owner_id"), 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"owner_id must be an integer", nil)
		return
	}

	links, err := h.service.ListByOwner(ctx, ownerID)
	if err != nil {
		h.handleAdminError(ctx, w, err)
		return
	}

	out := make([]LinkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, h.linkResponse(link))
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"links": out})
}

// HTTPDisableLinkRequest represents the JSON request body for disabling a link.
type HTTPDisableLinkRequest struct {
	Reason string `json:"reason"`
}

// DisableLink handles POST /api/links/{code}/disable.
func (h *Handler) DisableLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(ctx, r)

	req, err := httpx.DecodeJSON[HTTPDisableLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request",
			"error", err.Error(),
		)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	link, err := h.service.Disable(ctx, r.PathValue("code"), req.Reason)
	if err != nil {
		h.handleAdminError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "link disabled",
		"short_code", link.ShortCode,
		"reason", req.Reason,
	)

	httpx.WriteJSON(w, http.StatusOK, h.linkResponse(link))
}

// EnableLink handles POST /api/links/{code}/enable.
func (h *Handler) EnableLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(ctx, r)

	link, err := h.service.Enable(ctx, r.PathValue("code"))
	if err != nil {
		h.handleAdminError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "link enabled", "short_code", link.ShortCode)

	httpx.WriteJSON(w, http.StatusOK, h.linkResponse(link))
}

// DeleteLink handles DELETE /api/links/{code}.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(ctx, r)

	code := r.PathValue("code")
	if err := h.service.Delete(ctx, code); err != nil {
		h.handleAdminError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "link deleted", "short_code", code)

	w.WriteHeader(http.StatusNoContent)
}

// LinkAnalytics handles GET /api/links/{code}/analytics.
func (h *Handler) LinkAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.PathValue("code")

	// Confirm the link exists before aggregating; analytics over a deleted
	// code would otherwise return an empty summary.
	if _, err := h.service.Get(ctx, code); err != nil {
		h.handleAdminError(ctx, w, err)
		return
	}

	summary, err := h.analytics.Summarize(ctx, code)
	if err != nil {
		h.handleAdminError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, summary)
}

// WarmCache handles POST /api/cache/warm.
func (h *Handler) WarmCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(ctx, r)

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
				"limit must be an integer", nil)
			return
		}
		limit = n
	}

	warmed, err := h.service.WarmCache(ctx, limit)
	if err != nil {
		h.handleAdminError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "cache warm requested", "warmed", warmed, "limit", limit)

	httpx.WriteJSON(w, http.StatusOK, map[string]int{"warmed": warmed})
}

// allow applies the per-IP fixed-window limit. Limiter failures fail open:
// an unreachable Redis must not take redirects down with it.
func (h *Handler) allow(ctx context.Context, logger *slog.Logger, class, clientIP string, limit int) bool {
	ok, err := h.limiter.Attempt(ctx, class, clientIP, limit, h.limitWindow)
	if err != nil {
		logger.ErrorContext(ctx, "rate limiter unavailable, allowing request",
			"class", class,
			"error", err.Error(),
		)
		return true
	}
	return ok
}

// isRedirectLoop reports whether the request arrived from this service's own
// short URL for the same code.
func (h *Handler) isRedirectLoop(r *http.Request, code string) bool {
	referer := r.Referer()
	if referer == "" || h.baseHost == "" {
		return false
	}

	u, err := url.Parse(referer)
	if err != nil {
		return false
	}

	return u.Host == h.baseHost && strings.Contains(referer, code)
}

func (h *Handler) requestLogger(ctx context.Context, r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

func (h *Handler) linkResponse(link Link) LinkResponse {
	return LinkResponse{
		ID:            link.ID.String(),
		ShortCode:     link.ShortCode,
		LongURL:       link.LongURL,
		ShortURL:      fmt.Sprintf("%s/%s", h.baseURL, link.ShortCode),
		IsCustom:      link.IsCustom,
		Clicks:        link.Clicks,
		Disabled:      link.Disabled,
		DisableReason: link.DisableReason,
		CreatedAt:     link.CreatedAt.Format(time.RFC3339),
	}
}

// handleCreateError handles errors from the Create service method.
func (h *Handler) handleCreateError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.Conflict:
		h.logger.WarnContext(ctx, "short code conflict", logAttrs...)
		httpx.WriteError(w, http.StatusConflict, "conflict",
			"This code is already taken",
			map[string]string{
				"hint": "Try a different custom code or let us generate one for you",
			})

	case errx.Invalid:
		h.logger.WarnContext(ctx, "invalid link request", logAttrs...)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)

	case errx.Unavailable:
		h.logger.ErrorContext(ctx, "service unavailable", logAttrs...)
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
			"Unable to create short link at this time. Please try again.", nil)

	default:
		h.logger.ErrorContext(ctx, "unexpected error creating link", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Unable to create short link at this time. Please try again.", nil)
	}
}

// handleResolveError handles errors from the Resolve and Preview service
// methods.
func (h *Handler) handleResolveError(ctx context.Context, w http.ResponseWriter, err error, code string) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
		"short_code", code,
	}

	switch kind {
	case errx.NotFound:
		h.logger.WarnContext(ctx, "short code not found", logAttrs...)
		httpx.WriteError(w, http.StatusNotFound, "not_found",
			"short link doesn't exist", nil)

	case errx.Disabled:
		h.logger.WarnContext(ctx, "link is disabled", logAttrs...)
		httpx.WriteError(w, http.StatusGone, "link_disabled",
			disabledMessage(err), nil)

	case errx.Invalid:
		h.logger.WarnContext(ctx, "invalid short code", logAttrs...)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_code", err.Error(), nil)

	default:
		h.logger.ErrorContext(ctx, "unexpected error resolving link", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Unable to resolve this link at this time", nil)
	}
}

// handleAdminError handles errors from the admin surface.
func (h *Handler) handleAdminError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.NotFound:
		h.logger.WarnContext(ctx, "link not found", logAttrs...)
		httpx.WriteError(w, http.StatusNotFound, "not_found",
			"short link doesn't exist", nil)

	case errx.Invalid:
		h.logger.WarnContext(ctx, "invalid request", logAttrs...)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)

	case errx.Unavailable:
		h.logger.ErrorContext(ctx, "service unavailable", logAttrs...)
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
			"Service temporarily unavailable. Please try again.", nil)

	default:
		h.logger.ErrorContext(ctx, "unexpected error", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Something went wrong. Please try again.", nil)
	}
}

// disabledMessage extracts the user-facing reason from a Disabled error.
func disabledMessage(err error) string {
	var de *DisabledError
	if errors.As(err, &de) {
		return de.Error()
	}
	return "link is disabled"
}
