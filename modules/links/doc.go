// Package links is the magic-link module: it mints signed tokens for the
// portal's link families, embeds them in URLs, and exposes the redemption
// endpoint that verifies a presented token, consults the replay guard for
// single-use purposes, and runs the purpose's registered action.
package links
