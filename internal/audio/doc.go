// Package audio handles audio acquisition and byte-range segmentation.
// It resolves local or remote audio sources into readable files, splits large
// files into bounded-size segments for independent transcription, and manages
// the request-scoped scratch directory that holds the intermediate files.
package audio
