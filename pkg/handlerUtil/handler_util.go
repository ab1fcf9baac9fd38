package handlerUtil

import (
	"AgriVoice/internal/api/customer"
	"AgriVoice/internal/api/voice"
	"AgriVoice/pkg/log"
	"AgriVoice/pkg/response"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// errorCodes gives clients a stable code for each domain error.
var errorCodes = []struct {
	err  error
	code string
}{
	{customer.ErrPhoneNumberAlreadyExists, "PHONE_NUMBER_ALREADY_EXISTS"},
	{customer.ErrInvalidPhoneNumber, "INVALID_PHONE"},
	{customer.ErrInvalidCredentials, "INVALID_CREDENTIALS"},
	{customer.ErrCustomerNotFound, "CUSTOMER_NOT_FOUND"},
	{voice.ErrInvalidAudioFile, "INVALID_AUDIO"},
	{voice.ErrAudioFileTooLarge, "AUDIO_TOO_LARGE"},
	{voice.ErrUnsupportedFormat, "UNSUPPORTED_AUDIO"},
	{voice.ErrTranscriptionFailed, "RECOGNITION_FAILED"},
	{voice.ErrRouteNotFound, "ROUTE_NOT_FOUND"},
	{voice.ErrRouteAlreadyExists, "ROUTE_ALREADY_EXISTS"},
	{voice.ErrInvalidRoute, "INVALID_ROUTE"},
	{voice.ErrAudioNotFound, "AUDIO_NOT_FOUND"},
	{voice.ErrStreamingUnavailable, "STREAMING_UNAVAILABLE"},
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		fields := log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       respErr.Code,
			"path":       path,
			"operation":  operation,
		}
		if respErr.Code >= fiber.StatusInternalServerError {
			h.logger.WithFields(fields).Error("Operation failed with error response")
		} else {
			h.logger.WithFields(fields).Warn("Operation failed with error response")
		}

		return c.Status(respErr.Code).JSON(ErrorResponse{
			Error: respErr.Error(),
			Code:  codeFor(err),
		})
	}

	traceID := log.TraceID(requestID)
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"trace_id":   traceID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "An unexpected error occurred",
		TraceID: traceID,
	})
}

// Describe returns the status and body Handle would respond with, for
// transports that cannot go through a fiber response.
func Describe(requestID string, err error) (int, ErrorResponse) {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		return respErr.Code, ErrorResponse{
			Error: respErr.Error(),
			Code:  codeFor(err),
		}
	}
	return fiber.StatusInternalServerError, ErrorResponse{
		Error:   "An unexpected error occurred",
		TraceID: log.TraceID(requestID),
	}
}

func codeFor(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ""
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: "Validation failed: " + err.Error(),
		Code:  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(ErrorResponse{
		Error: utils.StatusMessage(fiber.StatusRequestTimeout),
		Code:  "REQUEST_TIMEOUT",
	})
}

func (h *ErrorHandler) HandleUnauthorized(c *fiber.Ctx, requestID string, message string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"path":       c.Path(),
		"message":    message,
	}).Warn("Unauthorized access")

	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error: message,
		Code:  "UNAUTHORIZED",
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
