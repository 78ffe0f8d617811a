package dispatch

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/blocks/middlewares"
)

// ErrorHandler logs handler errors and writes the error response.
//
// HTTP errors are expected outcomes (missing action, missing file) and are
// logged at warn level as "<status> - <message>". Anything else, panics
// included, is logged at error level and answered with a generic 500 so
// internals never reach the client.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates an ErrorHandler. A nil logger discards.
func NewErrorHandler(log *slog.Logger) *ErrorHandler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ErrorHandler{logger: log}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
	Status    int    `json:"status"`
}

// Handle matches middlewares.ErrorHandlerFunc.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	ctx := r.Context()

	code, message := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)

	if he, ok := AsHTTPError(err); ok {
		code, message = he.Code, he.Message
		attrs := []any{slog.String("path", r.URL.Path)}
		if he.Err != nil {
			attrs = append(attrs, slog.String("cause", he.Err.Error()))
		}
		h.logger.WarnContext(ctx, strconv.Itoa(code)+" - "+message, attrs...)
	} else if pe, ok := middlewares.AsPanicError(err); ok && pe.Stack != nil {
		h.logger.ErrorContext(ctx, err.Error(),
			slog.String("path", r.URL.Path),
			slog.String("stack", string(pe.Stack)),
		)
	} else {
		h.logger.ErrorContext(ctx, err.Error(), slog.String("path", r.URL.Path))
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(errorResponse{
			Error:     message,
			Status:    code,
			RequestID: middlewares.GetRequestID(ctx),
		})
		return
	}

	http.Error(w, message, code)
}
