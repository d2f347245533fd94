// Package transcription implements the client adapter for the external
// speech-to-text API. It submits single audio payloads with the configured
// model and language, surfaces failures without retrying, and tracks request
// statistics for the monitoring endpoints.
package transcription
