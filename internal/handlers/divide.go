package handlers

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hanko-field/namedivider/internal/platform/httpx"
	"github.com/hanko-field/namedivider/internal/platform/observability"
	"github.com/hanko-field/namedivider/internal/platform/requestctx"
	"github.com/hanko-field/namedivider/internal/services"
)

const maxDivideRequestBody = 1 << 20

// DivideHandlers exposes the batch division endpoint.
type DivideHandlers struct {
	divisions services.NameDivisionService
	validate  *validator.Validate
	newID     func() string
	limiter   rateLimiter
}

// DivideOption customises DivideHandlers.
type DivideOption func(*DivideHandlers)

// WithDivideIDGenerator overrides the batch identifier generator.
func WithDivideIDGenerator(gen func() string) DivideOption {
	return func(h *DivideHandlers) {
		if gen != nil {
			h.newID = gen
		}
	}
}

// WithDivideRateLimit limits each client address to perSecond requests with the given burst.
func WithDivideRateLimit(perSecond float64, burst int) DivideOption {
	return func(h *DivideHandlers) {
		h.limiter = newClientRateLimiter(perSecond, burst, nil)
	}
}

// NewDivideHandlers constructs the division handlers.
func NewDivideHandlers(svc services.NameDivisionService, opts ...DivideOption) *DivideHandlers {
	h := &DivideHandlers{
		divisions: svc,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		newID:     func() string { return ulid.Make().String() },
	}
	h.validate.RegisterTagNameFunc(jsonFieldName)
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers POST /divide on r.
func (h *DivideHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	route := r
	if h.limiter != nil {
		route = route.With(rateLimitMiddleware(h.limiter))
	}
	route.Post("/divide", h.divide)
}

type divideRequest struct {
	Names []string `json:"names" validate:"required,min=1,dive,max=256"`
	Mode  string   `json:"mode" validate:"omitempty,max=32"`
}

type dividedNamePayload struct {
	Family    string  `json:"family"`
	Given     string  `json:"given"`
	Separator string  `json:"separator"`
	Score     float64 `json:"score"`
	Algorithm string  `json:"algorithm"`
}

type divideResponse struct {
	BatchID      string               `json:"batch_id"`
	Mode         string               `json:"mode"`
	DividedNames []dividedNamePayload `json:"divided_names"`
}

func (h *DivideHandlers) divide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.divisions == nil {
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeUnavailable, "name division service not available", http.StatusServiceUnavailable))
		return
	}

	var req divideRequest
	if err := httpx.DecodeJSON(r, maxDivideRequestBody, &req); err != nil {
		switch {
		case errors.Is(err, httpx.ErrBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError(httpx.CodePayloadTooLarge, err.Error(), http.StatusRequestEntityTooLarge))
		case errors.Is(err, httpx.ErrMalformedJSON):
			httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeInvalidRequest, httpx.ErrMalformedJSON.Error(), http.StatusBadRequest))
		default:
			httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeInvalidRequest, err.Error(), http.StatusBadRequest))
		}
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(ctx, w, err)
		return
	}
	if limit := h.divisions.MaxBatch(); len(req.Names) > limit {
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeValidationFailed, "too many names in one request", http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"max_names": limit, "names": len(req.Names)}))
		return
	}

	requestctx.Annotate(ctx, zap.Int("names", len(req.Names)))
	result, err := h.divisions.DivideBatch(ctx, services.DivideBatchCommand{
		Names: req.Names,
		Mode:  req.Mode,
	})
	if err != nil {
		writeDivisionError(ctx, w, err)
		return
	}

	requestctx.Annotate(ctx, zap.String("mode", result.Mode))
	payload := divideResponse{
		BatchID:      h.newID(),
		Mode:         result.Mode,
		DividedNames: make([]dividedNamePayload, 0, len(result.Results)),
	}
	for _, name := range result.Results {
		payload.DividedNames = append(payload.DividedNames, dividedNamePayload{
			Family:    name.Family,
			Given:     name.Given,
			Separator: name.Separator,
			Score:     name.Score,
			Algorithm: name.Algorithm,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, payload)
}

func writeValidationError(ctx context.Context, w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeInvalidRequest, err.Error(), http.StatusBadRequest))
		return
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace())
	}
	httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeValidationFailed, "request failed validation", http.StatusUnprocessableEntity).
		WithDetails(map[string]any{"fields": fields}))
}

func writeDivisionError(ctx context.Context, w http.ResponseWriter, err error) {
	var batchErr *services.BatchError
	switch {
	case errors.As(err, &batchErr) && errors.Is(err, services.ErrInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeInvalidName, "name must contain at least two characters", http.StatusBadRequest).
			WithDetails(map[string]any{"index": batchErr.Index, "name": batchErr.Name}))
	case errors.Is(err, services.ErrInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeInvalidName, "name must contain at least two characters", http.StatusBadRequest))
	case errors.Is(err, services.ErrBatchTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeValidationFailed, err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrUnknownMode):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeUnsupportedMode, err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrEngineUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeUnavailable, "name divider not loaded", http.StatusServiceUnavailable))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeUnavailable, "request cancelled", http.StatusServiceUnavailable))
	default:
		observability.FromContext(ctx).Error("name division failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeDivisionFailed, "failed to divide names", http.StatusInternalServerError))
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
