// Package logger builds configured slog.Logger instances for the portal
// services: JSON or text output, static attributes, and per-record
// attribute extraction from context (request IDs and the like).
package logger
