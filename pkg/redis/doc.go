// Package redis provides the Redis connection used by the replay guard:
// URL-based configuration, startup retries, and a health check probe.
package redis
