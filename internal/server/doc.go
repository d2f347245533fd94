// Package server implements the MCP stdio tool surface for the podcast
// transcriber and the optional HTTP monitoring endpoints. Tool arguments are
// validated at the boundary and all downstream failures are returned as tool
// error results rather than transport errors.
package server
