package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ValidationError represents a configuration value that cannot be used.
type ValidationError struct {
	Field  string
	Reason string
}

// Error returns the error message for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMovie(); err != nil {
		return err
	}
	if err := c.validateFileType(); err != nil {
		return err
	}
	if err := c.validateTracks(); err != nil {
		return err
	}
	return c.validateWriter()
}

func (c *Config) validateMovie() error {
	if c.Movie.Timescale == 0 {
		return &ValidationError{Field: "movie.timescale", Reason: "must be positive"}
	}
	if c.duration < 0 {
		return &ValidationError{Field: "movie.duration", Reason: "must not be negative"}
	}
	if c.Movie.ModificationTime.Before(c.Movie.CreationTime) {
		return &ValidationError{Field: "movie.modification_time", Reason: "must not precede creation_time"}
	}
	return nil
}

func (c *Config) validateFileType() error {
	if err := validateBrand("filetype.major_brand", c.FileType.MajorBrand); err != nil {
		return err
	}
	for _, brand := range c.FileType.CompatibleBrands {
		if err := validateBrand("filetype.compatible_brands", brand); err != nil {
			return err
		}
	}
	return nil
}

func validateBrand(field, brand string) error {
	if len(brand) != 4 {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%q must be exactly 4 bytes", brand)}
	}
	return nil
}

func (c *Config) validateTracks() error {
	roles := map[string]bool{}
	ids := map[uint32]bool{}
	for i, track := range c.Tracks {
		field := fmt.Sprintf("tracks[%d]", i)
		switch track.Role {
		case RoleVideo, RoleAudio:
		default:
			return &ValidationError{Field: field + ".role", Reason: fmt.Sprintf("%q must be video or audio", track.Role)}
		}
		if roles[track.Role] {
			return &ValidationError{Field: field + ".role", Reason: fmt.Sprintf("only one %s track is supported", track.Role)}
		}
		roles[track.Role] = true
		if track.TrackID == 0 {
			return &ValidationError{Field: field + ".track_id", Reason: "must be positive"}
		}
		if ids[track.TrackID] {
			return &ValidationError{Field: field + ".track_id", Reason: fmt.Sprintf("%d is used twice", track.TrackID)}
		}
		ids[track.TrackID] = true
		if c.Movie.NextTrackID != 0 && track.TrackID >= c.Movie.NextTrackID {
			return &ValidationError{Field: "movie.next_track_id", Reason: fmt.Sprintf("must exceed track id %d", track.TrackID)}
		}
	}
	return nil
}

func (c *Config) validateWriter() error {
	if c.Writer.BufferLimit < 1 {
		return &ValidationError{Field: "writer.buffer_limit", Reason: "must be positive"}
	}
	if c.Writer.Padding < 0 {
		return &ValidationError{Field: "writer.padding", Reason: "must not be negative"}
	}
	if _, err := logrus.ParseLevel(c.Writer.LogLevel); err != nil {
		return &ValidationError{Field: "writer.log_level", Reason: err.Error()}
	}
	return nil
}
