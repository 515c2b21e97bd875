package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Attribute helpers use the empty Attr pattern for nil safety.
// This allows calls like log.Info("msg", logger.Error(err)) without explicit
// nil checks, following the principle of making zero values useful.

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// Returns empty Attr for nil errors, enabling safe usage without nil checks.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups multiple non-nil errors under the key "errors".
// Uses index-based keys to preserve error order. Returns empty Attr for all nil errors.
func Errors(errs ...error) slog.Attr {
	count := 0
	for _, err := range errs {
		if err != nil {
			count++
		}
	}
	if count == 0 {
		return slog.Attr{}
	}

	as := make([]slog.Attr, 0, count)
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Latency is an alias for Duration, commonly used in web contexts.
func Latency(d time.Duration) slog.Attr {
	return slog.Duration("latency", d)
}

// Elapsed calculates and logs the duration since the start time.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// RequestID creates an attribute for HTTP request IDs.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Method creates an attribute for HTTP methods.
func Method(method string) slog.Attr {
	return slog.String("method", method)
}

// Path creates an attribute for URL paths.
func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// StatusCode creates an attribute for HTTP status codes.
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// RemoteAddr creates an attribute for client network addresses.
func RemoteAddr(addr string) slog.Attr {
	if addr == "" {
		return slog.Attr{}
	}
	return slog.String("remote_addr", addr)
}

// Component creates an attribute identifying the system component.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event creates an attribute naming the event being logged.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Model creates an attribute for the encoder model type.
func Model(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("model", name)
}

// Count creates an attribute for counting items.
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}
