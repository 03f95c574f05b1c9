package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/ugparu/mp4mux/format/mp4"
	"github.com/ugparu/mp4mux/format/mp4/mp4io"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	RoleVideo = "video"
	RoleAudio = "audio"
)

// Movie holds the `mvhd` fields. Zero times are replaced by the load time.
type Movie struct {
	Timescale        uint32    `toml:"timescale"`
	Duration         string    `toml:"duration"`
	NextTrackID      uint32    `toml:"next_track_id"` // Default: highest track id + 1
	CreationTime     time.Time `toml:"creation_time"`
	ModificationTime time.Time `toml:"modification_time"`
}

// FileType holds the `ftyp` brands.
type FileType struct {
	MajorBrand       string   `toml:"major_brand"`
	MinorVersion     uint32   `toml:"minor_version"`
	CompatibleBrands []string `toml:"compatible_brands"`
}

// Track holds the fragment defaults of one track.
type Track struct {
	Role                          string `toml:"role"`
	TrackID                       uint32 `toml:"track_id"`
	DefaultSampleDescriptionIndex uint32 `toml:"default_sample_description_index"`
	DefaultSampleDuration         uint32 `toml:"default_sample_duration"`
	DefaultSampleSize             uint32 `toml:"default_sample_size"`
	DefaultSampleFlags            uint32 `toml:"default_sample_flags"`
}

// Writer holds the output settings.
type Writer struct {
	BufferLimit int    `toml:"buffer_limit"`
	Padding     int    `toml:"padding"` // size of the `free` box after `ftyp`, 0 omits it
	LogLevel    string `toml:"log_level"`
}

// Server holds the HTTP settings of `mp4box serve`.
type Server struct {
	Addr string `toml:"addr"`
}

// Config is the decoded configuration file.
type Config struct {
	Movie    Movie    `toml:"movie"`
	FileType FileType `toml:"filetype"`
	Tracks   []Track  `toml:"tracks"`
	Writer   Writer   `toml:"writer"`
	Server   Server   `toml:"server"`

	duration time.Duration
}

// SampleConfig returns an annotated example configuration.
func SampleConfig() string {
	return sampleConfig
}

// Load reads, normalizes and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes data on top of Default, then normalizes and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	now := time.Now().UTC()
	if c.Movie.CreationTime.IsZero() {
		c.Movie.CreationTime = now
	}
	if c.Movie.ModificationTime.IsZero() {
		c.Movie.ModificationTime = c.Movie.CreationTime
	}
	if d := strings.TrimSpace(c.Movie.Duration); d != "" {
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return &ValidationError{Field: "movie.duration", Reason: err.Error()}
		}
		c.duration = parsed
	}
	for i := range c.Tracks {
		c.Tracks[i].Role = strings.ToLower(strings.TrimSpace(c.Tracks[i].Role))
	}
	c.Writer.LogLevel = strings.ToLower(strings.TrimSpace(c.Writer.LogLevel))
	return nil
}

// MovieDuration returns the parsed movie duration.
func (c *Config) MovieDuration() time.Duration {
	return c.duration
}

// Build converts the configuration into the movie record and a write context bound
// to tracker, with the video and audio track indices registered.
func (c *Config) Build(tracker *mp4.PositionTracker) (*mp4io.Movie, *mp4.Context) {
	movie := &mp4io.Movie{
		Header: mp4io.MovieHeader{
			CreationTime:     c.Movie.CreationTime,
			ModificationTime: c.Movie.ModificationTime,
			Timescale:        c.Movie.Timescale,
			Duration:         c.duration,
			NextTrackID:      1,
		},
	}
	ctx := mp4.NewContext(tracker)
	ctx.SetBufferLimit(c.Writer.BufferLimit)
	for _, track := range c.Tracks {
		index := movie.AddTrackExtends(mp4io.TrackExtends{
			TrackID:                       track.TrackID,
			DefaultSampleDescriptionIndex: track.DefaultSampleDescriptionIndex,
			DefaultSampleDuration:         track.DefaultSampleDuration,
			DefaultSampleSize:             track.DefaultSampleSize,
			DefaultSampleFlags:            track.DefaultSampleFlags,
		})
		switch track.Role {
		case RoleVideo:
			ctx.SetVideoIndex(index)
		case RoleAudio:
			ctx.SetAudioIndex(index)
		}
	}
	if c.Movie.NextTrackID != 0 {
		movie.Header.NextTrackID = c.Movie.NextTrackID
	}
	return movie, ctx
}

// BuildFileType converts the `filetype` table.
func (c *Config) BuildFileType() *mp4io.FileType {
	ftyp := &mp4io.FileType{
		MajorBrand:   mp4io.StringToTag(c.FileType.MajorBrand),
		MinorVersion: c.FileType.MinorVersion,
	}
	for _, brand := range c.FileType.CompatibleBrands {
		ftyp.CompatibleBrands = append(ftyp.CompatibleBrands, mp4io.StringToTag(brand))
	}
	return ftyp
}
