// Package config provides configuration loading and validation for the podcast
// transcriber service. It layers defaults, an optional YAML file, and environment
// variables, with the API credential accepted from the environment only.
package config
