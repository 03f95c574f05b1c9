package mp4io

import "time"

const (
	DefaultTimescale    = 1000
	DefaultMinorVersion = 0x200
)

// Movie is the content of a `moov` box.
type Movie struct {
	Header  MovieHeader
	Extends MovieExtends
}

// MovieHeader is the content of a `mvhd` box.
type MovieHeader struct {
	CreationTime     time.Time
	ModificationTime time.Time
	Timescale        uint32        // time units per second
	Duration         time.Duration // written in Timescale units
	NextTrackID      uint32
}

// MovieExtends is the content of a `mvex` box. Entries are addressed by track index.
type MovieExtends struct {
	TrackExtends []TrackExtends
}

// TrackExtends is the content of a `trex` box. Fields stay zero until the
// fragment defaults have been computed.
type TrackExtends struct {
	TrackID                       uint32
	DefaultSampleDescriptionIndex uint32
	DefaultSampleDuration         uint32 // in the track timescale
	DefaultSampleSize             uint32
	DefaultSampleFlags            uint32
}

// NewMovie returns a movie whose timestamps are set to now.
func NewMovie() *Movie {
	now := time.Now().UTC()
	return &Movie{
		Header: MovieHeader{
			CreationTime:     now,
			ModificationTime: now,
			Timescale:        DefaultTimescale,
			NextTrackID:      1,
		},
	}
}

// AddTrackExtends appends trex defaults and returns the index to register on the
// write context.
func (m *Movie) AddTrackExtends(trex TrackExtends) int {
	m.Extends.TrackExtends = append(m.Extends.TrackExtends, trex)
	if trex.TrackID >= m.Header.NextTrackID {
		m.Header.NextTrackID = trex.TrackID + 1
	}
	return len(m.Extends.TrackExtends) - 1
}

// FileType is the content of a `ftyp` box.
type FileType struct {
	MajorBrand       Tag
	MinorVersion     uint32
	CompatibleBrands []Tag
}

func NewFileType() *FileType {
	return &FileType{
		MajorBrand:   StringToTag("isom"),
		MinorVersion: DefaultMinorVersion,
		CompatibleBrands: []Tag{
			StringToTag("iso6"),
			StringToTag("mp41"),
		},
	}
}
