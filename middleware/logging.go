package middleware

import (
	"log/slog"
	"strings"
	"time"
)

// TurnLogger logs the input and outcome of each agent turn.
type TurnLogger struct {
	logger *slog.Logger
}

// NewTurnLogger creates a turn logging middleware
func NewTurnLogger(logger *slog.Logger) *TurnLogger {
	return &TurnLogger{logger: logger}
}

// Name returns the middleware name
func (m *TurnLogger) Name() string {
	return "TurnLogger"
}

// Execute logs the turn
func (m *TurnLogger) Execute(ctx *Context, next Handler) error {
	start := time.Now()
	if m.logger != nil {
		m.logger.Info("turn started", "input", ctx.Input)
	}

	err := next(ctx)

	if m.logger != nil {
		if err != nil {
			m.logger.Error("turn failed", "error", err, "duration", time.Since(start))
		} else if ctx.Response != nil {
			m.logger.Info("turn completed", "output_len", len(ctx.Response.Content), "duration", time.Since(start))
		}
	}
	return err
}

// InputValidator rejects blank input before it reaches the model.
type InputValidator struct{}

// NewInputValidator creates an input validation middleware
func NewInputValidator() *InputValidator {
	return &InputValidator{}
}

// Name returns the middleware name
func (m *InputValidator) Name() string {
	return "InputValidator"
}

// Execute validates the input
func (m *InputValidator) Execute(ctx *Context, next Handler) error {
	if strings.TrimSpace(ctx.Input) == "" {
		return ErrEmptyInput
	}
	return next(ctx)
}
