package handlers

import (
	"biometria/biometry"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handlers serves the biometry API on top of a Service.
type Handlers struct {
	Service *biometry.Service
	Logger  *slog.Logger
}

func New(svc *biometry.Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{Service: svc, Logger: logger}
}

func statusFor(kind biometry.Kind) int {
	switch kind {
	case biometry.KindValidation:
		return http.StatusBadRequest
	case biometry.KindAuth:
		return http.StatusUnauthorized
	case biometry.KindTimedOut:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// negative is a well-formed request whose answer is "no".
func negative(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: false, Message: message, Data: data})
}

func (h *Handlers) fail(c *gin.Context, op string, err error) {
	kind := biometry.KindOf(err)
	message := "Erro interno."
	var be *biometry.Error
	if errors.As(err, &be) {
		message = be.Message
	}
	if kind == biometry.KindValidation {
		h.Logger.Debug(op+" rejected", "error", err)
	} else {
		// Causes stay in the logs
		h.Logger.Error(op+" failed", "kind", kind, "error", err)
	}
	c.JSON(statusFor(kind), Response{Success: false, Message: message, Error: string(kind)})
}

// bindJSON reports malformed or oversized bodies as validation errors.
func (h *Handlers) bindJSON(c *gin.Context, op string, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, Response{
			Success: false,
			Message: "Requisição muito grande.",
			Error:   string(biometry.KindValidation),
		})
		return false
	}
	h.fail(c, op, &biometry.Error{Kind: biometry.KindValidation, Message: "JSON inválido.", Cause: err})
	return false
}
