package config

import (
	"github.com/ugparu/mp4mux/format/mp4/boxstream"
	"github.com/ugparu/mp4mux/format/mp4/mp4io"
)

const (
	defaultMajorBrand = "isom"
	defaultLogLevel   = "info"
	defaultAddr       = ":8080"
)

var defaultCompatibleBrands = []string{"iso6", "mp41"}

// Default returns the configuration used for keys a file leaves out.
func Default() Config {
	return Config{
		Movie: Movie{
			Timescale: mp4io.DefaultTimescale,
		},
		FileType: FileType{
			MajorBrand:       defaultMajorBrand,
			MinorVersion:     mp4io.DefaultMinorVersion,
			CompatibleBrands: append([]string(nil), defaultCompatibleBrands...),
		},
		Writer: Writer{
			BufferLimit: boxstream.DefaultBufferLimit,
			LogLevel:    defaultLogLevel,
		},
		Server: Server{
			Addr: defaultAddr,
		},
	}
}
