package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	mp4ff "github.com/Eyevinn/mp4ff/mp4"
	"github.com/stretchr/testify/require"
	"github.com/ugparu/mp4mux/format/mp4"
	"github.com/ugparu/mp4mux/format/mp4/boxstream"
	"github.com/ugparu/mp4mux/format/mp4/mp4io"
	"github.com/ugparu/mp4mux/internal/config"
	"github.com/ugparu/mp4mux/writer/sink"
)

func TestSampleConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(config.SampleConfig()))
	require.NoError(t, err)

	require.Equal(t, uint32(90000), cfg.Movie.Timescale)
	require.Equal(t, 90*time.Second, cfg.MovieDuration())
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Movie.CreationTime.UTC())
	require.Len(t, cfg.Tracks, 2)
	require.Equal(t, config.RoleVideo, cfg.Tracks[0].Role)
	require.Equal(t, uint32(0x01010000), cfg.Tracks[0].DefaultSampleFlags)
	require.Equal(t, 4096, cfg.Writer.BufferLimit)
	require.Equal(t, ":8080", cfg.Server.Addr)
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse(nil)
	require.NoError(t, err)

	require.Equal(t, uint32(mp4io.DefaultTimescale), cfg.Movie.Timescale)
	require.Equal(t, boxstream.DefaultBufferLimit, cfg.Writer.BufferLimit)
	require.Equal(t, "info", cfg.Writer.LogLevel)
	require.False(t, cfg.Movie.CreationTime.IsZero())
	require.Equal(t, cfg.Movie.CreationTime, cfg.Movie.ModificationTime)
	require.Empty(t, cfg.Tracks)

	ftyp := cfg.BuildFileType()
	require.Equal(t, "isom", ftyp.MajorBrand.String())
	require.Equal(t, []mp4io.Tag{mp4io.StringToTag("iso6"), mp4io.StringToTag("mp41")}, ftyp.CompatibleBrands)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(`
[[tracks]]
role = " Audio "
track_id = 7

[writer]
log_level = "DEBUG"
`))
	require.NoError(t, err)
	require.Equal(t, config.RoleAudio, cfg.Tracks[0].Role)
	require.Equal(t, "debug", cfg.Writer.LogLevel)
}

func TestValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		data  string
		field string
	}{
		{"zero timescale", "[movie]\ntimescale = 0", "movie.timescale"},
		{"bad duration", "[movie]\nduration = \"soon\"", "movie.duration"},
		{"negative duration", "[movie]\nduration = \"-1s\"", "movie.duration"},
		{
			"modification before creation",
			"[movie]\ncreation_time = 2024-01-02T00:00:00Z\nmodification_time = 2024-01-01T00:00:00Z",
			"movie.modification_time",
		},
		{"short brand", "[filetype]\nmajor_brand = \"mp4\"", "filetype.major_brand"},
		{"bad compatible brand", "[filetype]\ncompatible_brands = [\"isom\", \"avc\"]", "filetype.compatible_brands"},
		{"unknown role", "[[tracks]]\nrole = \"text\"\ntrack_id = 1", "tracks[0].role"},
		{"second video", "[[tracks]]\nrole = \"video\"\ntrack_id = 1\n[[tracks]]\nrole = \"video\"\ntrack_id = 2", "tracks[1].role"},
		{"zero track id", "[[tracks]]\nrole = \"video\"", "tracks[0].track_id"},
		{"duplicate track id", "[[tracks]]\nrole = \"video\"\ntrack_id = 1\n[[tracks]]\nrole = \"audio\"\ntrack_id = 1", "tracks[1].track_id"},
		{"low next track id", "[movie]\nnext_track_id = 2\n[[tracks]]\nrole = \"video\"\ntrack_id = 2", "movie.next_track_id"},
		{"zero buffer limit", "[writer]\nbuffer_limit = 0", "writer.buffer_limit"},
		{"negative padding", "[writer]\npadding = -1", "writer.padding"},
		{"bad log level", "[writer]\nlog_level = \"loud\"", "writer.log_level"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Parse([]byte(tc.data))
			targetError := &config.ValidationError{}
			require.ErrorAs(t, err, &targetError)
			require.Equal(t, tc.field, targetError.Field)
		})
	}
}

func TestParseError(t *testing.T) {
	t.Parallel()

	_, err := config.Parse([]byte("[movie\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "movie.toml")
	require.NoError(t, os.WriteFile(path, []byte(config.SampleConfig()), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Tracks, 2)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(config.SampleConfig()))
	require.NoError(t, err)

	buf := sink.NewBuffer()
	movie, ctx := cfg.Build(mp4.NewPositionTracker(buf))

	require.Equal(t, uint32(3), movie.Header.NextTrackID)
	video, ok := ctx.VideoIndex()
	require.True(t, ok)
	require.Equal(t, 0, video)
	audio, ok := ctx.AudioIndex()
	require.True(t, ok)
	require.Equal(t, 1, audio)

	seg, err := mp4.NewInitSegment(ctx, cfg.BuildFileType(), movie, cfg.Writer.Padding)
	require.NoError(t, err)
	require.NoError(t, seg.WriteAndFlush())

	r := bytes.NewReader(buf.Bytes())
	box, err := mp4ff.DecodeBox(0, r)
	require.NoError(t, err)
	ftyp, ok := box.(*mp4ff.FtypBox)
	require.True(t, ok)
	require.Equal(t, "isom", ftyp.MajorBrand())

	box, err = mp4ff.DecodeBox(ftyp.Size(), r)
	require.NoError(t, err)
	moov, ok := box.(*mp4ff.MoovBox)
	require.True(t, ok)
	require.Equal(t, uint64(len(buf.Bytes())), ftyp.Size()+moov.Size())

	require.Equal(t, uint32(90000), moov.Mvhd.Timescale)
	require.Equal(t, uint64(90*90000), moov.Mvhd.Duration)
	require.Equal(t, uint32(3), moov.Mvhd.NextTrackID)
	require.Len(t, moov.Mvex.Trexs, 2)
	require.Equal(t, uint32(1), moov.Mvex.Trexs[0].TrackID)
	require.Equal(t, uint32(3000), moov.Mvex.Trexs[0].DefaultSampleDuration)
	require.Equal(t, uint32(2), moov.Mvex.Trexs[1].TrackID)
	require.Equal(t, uint32(1024), moov.Mvex.Trexs[1].DefaultSampleDuration)
}

func TestBuildExplicitNextTrackID(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte("[movie]\nnext_track_id = 10\n[[tracks]]\nrole = \"audio\"\ntrack_id = 4"))
	require.NoError(t, err)

	movie, ctx := cfg.Build(mp4.NewPositionTracker(sink.NewBuffer()))
	require.Equal(t, uint32(10), movie.Header.NextTrackID)
	_, ok := ctx.VideoIndex()
	require.False(t, ok)
	index, ok := ctx.AudioIndex()
	require.True(t, ok)
	require.Equal(t, 0, index)
}
