// Package config loads the TOML description of a movie and the writer settings used
// by the mp4box command.
package config
