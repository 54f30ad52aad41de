package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// JobID records the job identifier under the key "job_id".
// If id is nil, it returns an empty Attr.
func JobID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("job_id", id)
}

// JobType records the job type under the key "job_type".
func JobType(jobType string) slog.Attr {
	return slog.String("job_type", jobType)
}

// Attempt records the attempt count under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Purpose records a link token purpose under the key "purpose".
func Purpose(p string) slog.Attr {
	return slog.String("purpose", p)
}

// RequestID records the request identifier under the key "request_id".
// If id is nil, it returns an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
