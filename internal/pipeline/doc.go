// Package pipeline implements the chunked transcription orchestrator: it
// splits an audio file into bounded-size byte-range segments, submits each
// segment sequentially to the transcription adapter, and reassembles a single
// ordered transcript while tolerating per-segment failures.
package pipeline
