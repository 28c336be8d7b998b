package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"ytchatbot/app/agent"
	"ytchatbot/index"
	"ytchatbot/registry"
	"ytchatbot/splitter"
	"ytchatbot/store"
	"ytchatbot/transcript"
	"ytchatbot/types"
)

// Error is the JSON error shape. Detail carries the underlying provider
// message for 500s; clients never see a raw stack trace.
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Detail  string `json:"message,omitempty"`
}

// Error implements the error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid JSON request",
	}
}

// ErrorHandler classifies every failure that escapes a handler into the
// taxonomy and renders it. This is the only place provider errors turn into
// HTTP status codes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var valErr types.ValidationError
	if errors.As(err, &valErr) {
		return c.Status(valErr.Status).JSON(valErr)
	}

	apiErr := classify(err)

	curTime := time.Now()
	fmt.Printf("%s Request failed with code %d and message: %s\n", &curTime, apiErr.Code, apiErr.Message)
	return c.Status(apiErr.Code).JSON(apiErr)
}

func classify(err error) Error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, registry.ErrInvalidSessionID):
		return Error{Code: fiber.StatusBadRequest, Message: "sessionId may only contain letters, digits, hyphen and underscore"}
	case errors.Is(err, transcript.ErrNoTranscript):
		return Error{Code: fiber.StatusBadRequest, Message: "Transcript unavailable. Check if the video has captions."}
	case errors.Is(err, splitter.ErrEmptyText):
		return Error{Code: fiber.StatusUnprocessableEntity, Message: "Transcript is empty, nothing to index."}
	case errors.Is(err, store.ErrCollectionNotFound):
		return Error{Code: fiber.StatusNotFound, Message: "No previous context found for follow-up question. Retry without sessionId to start a new session."}
	case errors.Is(err, index.ErrEmbedding),
		errors.Is(err, index.ErrIndexWrite),
		errors.Is(err, index.ErrIndexRead),
		errors.Is(err, agent.ErrGeneration):
		return Error{Code: fiber.StatusInternalServerError, Message: "Internal Error", Detail: err.Error()}
	}

	var fibErr *fiber.Error
	if errors.As(err, &fibErr) {
		return Error{Code: fibErr.Code, Message: fibErr.Message}
	}

	return Error{Code: fiber.StatusInternalServerError, Message: "Internal Error", Detail: err.Error()}
}
