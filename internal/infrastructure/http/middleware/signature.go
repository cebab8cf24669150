package middleware

import (
	"bytes"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/handoff-assistant/errors"
	"github.com/johnquangdev/handoff-assistant/pkg/webhook"
)

// RawBodyContextKey holds the verified request body in the echo context
const RawBodyContextKey = "raw_body"

// EchoSignature returns an Echo middleware that rejects requests whose
// X-Signature header does not match the body. The verified body is stored
// under RawBodyContextKey and the request body is rewound for later binding.
func EchoSignature(secret string, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return respondError(c, errors.ErrUnavailable("transcript webhook", fmt.Errorf("WEBHOOK_SECRET is not configured")))
			}

			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return respondError(c, errors.ErrInvalidPayload())
			}

			if !webhook.VerifyHMAC(secret, body, c.Request().Header.Get(webhook.SignatureHeader)) {
				if logger != nil {
					logger.Warn("❌ Rejected webhook with invalid signature",
						zap.String("path", c.Path()),
						zap.String("remote_ip", c.RealIP()),
					)
				}
				return respondError(c, errors.ErrInvalidSignature())
			}

			c.Set(RawBodyContextKey, body)
			c.Request().Body = io.NopCloser(bytes.NewReader(body))
			return next(c)
		}
	}
}

// RawBody returns the body verified by EchoSignature
func RawBody(c echo.Context) ([]byte, bool) {
	body, ok := c.Get(RawBodyContextKey).([]byte)
	return body, ok
}

func respondError(c echo.Context, appErr errors.AppError) error {
	return c.JSON(appErr.HTTPCode, map[string]interface{}{
		"code":    int(appErr.Code),
		"message": appErr.Message,
	})
}
