package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// Check if it's a Fiber error
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code := domain.CodeInvalidParameter
			if fiberErr.Code >= 500 {
				code = domain.CodeUnknown
			}
			return c.Status(fiberErr.Code).JSON(ErrorBody{Error: ErrorDetail{
				Code:    code,
				Name:    "HTTP_ERROR",
				Message: fiberErr.Message,
			}})
		}

		// Check if it's our AppError
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			// Log internal errors
			if appErr.StatusCode >= 500 {
				logger.Error("internal error",
					slog.Int("code", appErr.Code),
					slog.String("name", appErr.Name),
					slog.String("message", appErr.Message),
					slog.Any("error", appErr.Err),
					slog.String("path", c.Path()),
				)
			}

			return c.Status(appErr.StatusCode).JSON(ErrorBody{Error: ErrorDetail{
				Code:    appErr.Code,
				Name:    appErr.Name,
				Message: appErr.Message,
			}})
		}

		// Unknown error - log and return generic message
		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(unknownErrorBody())
	}
}

func unknownErrorBody() ErrorBody {
	return ErrorBody{Error: ErrorDetail{
		Code:    domain.ErrUnknown.Code,
		Name:    domain.ErrUnknown.Name,
		Message: domain.ErrUnknown.Message,
	}}
}
