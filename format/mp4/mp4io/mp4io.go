// Package mp4io holds the box type codes and the read-only records that box writers serialize.
package mp4io

import (
	"time"

	"github.com/deepch/vdk/utils/bits/pio"
)

const (
	HeaderSize     = 8
	FullHeaderSize = 12
)

// Unix seconds of 1904-01-01 00:00:00 UTC, the epoch of ISO base media timestamps.
const epoch1904Unix int64 = -2082844800

// ISOTime converts t to seconds since midnight, Jan 1, 1904, in UTC.
func ISOTime(t time.Time) uint64 {
	return uint64(t.Unix() - epoch1904Unix) //nolint:gosec
}

// FromISOTime is the inverse of ISOTime.
func FromISOTime(sec uint64) time.Time {
	return time.Unix(int64(sec)+epoch1904Unix, 0).UTC() //nolint:gosec
}

// Ticks converts d to units of timescale, truncating.
func Ticks(d time.Duration, timescale uint32) uint64 {
	if d <= 0 {
		return 0
	}
	sec := d / time.Second
	rem := d % time.Second
	return uint64(sec)*uint64(timescale) + uint64(rem)*uint64(timescale)/uint64(time.Second) //nolint:gosec
}

// Tag is a four-character box type code.
type Tag uint32

func (t Tag) String() string {
	var b [4]byte
	pio.PutU32BE(b[:], uint32(t))
	for i := 0; i < 4; i++ {
		if b[i] == 0 {
			b[i] = ' '
		}
	}
	return string(b[:])
}

func StringToTag(tag string) Tag {
	var b [4]byte
	copy(b[:], []byte(tag))
	return Tag(pio.U32BE(b[:]))
}

const (
	MOOV = Tag(0x6d6f6f76)
	MVHD = Tag(0x6d766864)
	MVEX = Tag(0x6d766578)
	TREX = Tag(0x74726578)
	FTYP = Tag(0x66747970)
	FREE = Tag(0x66726565)
	MDAT = Tag(0x6d646174)
)
