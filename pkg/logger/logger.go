package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Text handler for development, JSON for production
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("request_id", requestID)),
	}
}

// WithUserID adds user ID to logger context
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("user_id", userID)),
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// Reservation lifecycle logging methods

// LogTicketReserved logs a successful seat reservation
func (l *Logger) LogTicketReserved(ctx context.Context, ticketID, userID string, leaseExpiresAt time.Time) {
	l.Logger.InfoContext(ctx,
		"Ticket Reserved",
		slog.String("ticket_id", ticketID),
		slog.String("user_id", userID),
		slog.Time("lease_expires_at", leaseExpiresAt),
	)
}

// LogDegradedReservation logs a reservation that bypassed the lock coordinator.
// The write goes through a plain conditional update; two processes racing on
// the same seat is an accepted risk of this mode and must stay visible in logs.
func (l *Logger) LogDegradedReservation(ctx context.Context, ticketID, userID string, cause error) {
	l.Logger.WarnContext(ctx,
		"Reservation in degraded mode: lock service unavailable",
		slog.Bool("degraded_mode", true),
		slog.String("ticket_id", ticketID),
		slog.String("user_id", userID),
		slog.String("cause", cause.Error()),
	)
}

// LogReservationReleased logs a lease expiry releasing a seat
func (l *Logger) LogReservationReleased(ctx context.Context, ticketID string) {
	l.Logger.InfoContext(ctx,
		"Reservation Released",
		slog.String("ticket_id", ticketID),
	)
}

// LogExpirySweep logs the result of a sweep over lapsed reservations
func (l *Logger) LogExpirySweep(ctx context.Context, released int) {
	l.Logger.InfoContext(ctx,
		"Expiry Sweep Completed",
		slog.Int("released", released),
	)
}

// LogOrderPaid logs a confirmed payment bulk-transitioning tickets
func (l *Logger) LogOrderPaid(ctx context.Context, orderID, userID string, ticketCount int) {
	l.Logger.InfoContext(ctx,
		"Order Paid",
		slog.String("order_id", orderID),
		slog.String("user_id", userID),
		slog.Int("ticket_count", ticketCount),
	)
}

// LogTicketRedeemed logs a token redemption consuming a ticket
func (l *Logger) LogTicketRedeemed(ctx context.Context, ticketID, holderID string) {
	l.Logger.InfoContext(ctx,
		"Ticket Redeemed",
		slog.String("ticket_id", ticketID),
		slog.String("holder_id", holderID),
	)
}

// Helper methods for common patterns

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
