package vfat32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsciiToStringTrimsTrailingPadding(t *testing.T) {
	name, ok := asciiToString([]byte("HELLO   "))
	assert.True(t, ok)
	assert.Equal(t, "HELLO", name)
}

func TestAsciiToStringAllBlankHasNoResult(t *testing.T) {
	_, ok := asciiToString([]byte("   "))
	assert.False(t, ok)
}

func TestAsciiToStringStopsAtFirstNull(t *testing.T) {
	name, ok := asciiToString([]byte{'A', 'B', 0x00, 'C'})
	assert.True(t, ok)
	assert.Equal(t, "AB", name)
}

func TestBuildShortNameOmitsDotWhenExtensionBlank(t *testing.T) {
	f := regularFields{}
	copy(f.name[:], "SUBDIR  ")
	copy(f.ext[:], "   ")
	assert.Equal(t, "SUBDIR", buildShortName(f))
}

func TestBuildShortNameJoinsNameAndExtension(t *testing.T) {
	f := regularFields{}
	copy(f.name[:], "HELLO   ")
	copy(f.ext[:], "TXT")
	assert.Equal(t, "HELLO.TXT", buildShortName(f))
}

func TestUCS2ToStringTerminatesAtNull(t *testing.T) {
	units := []uint16{'h', 'i', 0x0000, 'x'}
	assert.Equal(t, "hi", ucs2ToString(units))
}

func TestUCS2ToStringTerminatesAtFFFF(t *testing.T) {
	units := []uint16{'h', 'i', 0xFFFF, 0xFFFF}
	assert.Equal(t, "hi", ucs2ToString(units))
}

func TestUCS2ToStringDecodesSurrogatePair(t *testing.T) {
	// U+1F600 GRINNING FACE encoded as a UTF-16 surrogate pair.
	units := []uint16{0xD83D, 0xDE00}
	assert.Equal(t, "\U0001F600", ucs2ToString(units))
}

func TestUCS2ToStringUnpairedSurrogateBecomesReplacementChar(t *testing.T) {
	units := []uint16{0xD800, 'x'}
	assert.Equal(t, "�x", ucs2ToString(units))
}

func TestLFNOrdinalAndDeletedFragment(t *testing.T) {
	raw := make([]byte, 32)
	raw[0] = 0x41 // ordinal 1, last-fragment bit set
	entry := rawDirEntry{raw: raw}
	assert.Equal(t, 1, entry.lfnOrdinal())
	assert.False(t, entry.lfnIsDeleted())

	raw[0] = 0xE5
	assert.True(t, entry.lfnIsDeleted())
}

func TestDirTimestampBitLayout(t *testing.T) {
	// 2024-03-05, 13:07:44 (seconds truncated to even per 2-second resolution).
	date := uint16((2024-1980)<<9 | 3<<5 | 5)
	clock := uint16(13<<11 | 7<<5 | 22)
	ts := dirTimestamp(date, clock)

	assert.Equal(t, 2024, ts.Year)
	assert.Equal(t, 3, ts.Month)
	assert.Equal(t, 5, ts.Day)
	assert.Equal(t, 13, ts.Hour)
	assert.Equal(t, 7, ts.Minute)
	assert.Equal(t, 44, ts.Second)
}

func TestParseDirectoryStopsAtEndMarker(t *testing.T) {
	data := make([]byte, 64)
	copy(data[0:], []byte("HELLO   TXT"))
	data[11] = AttrArchive
	// data[32] left as all-zero: end-of-directory marker.

	records := parseDirectory(data)
	assert.Len(t, records, 1)
	assert.Equal(t, "HELLO.TXT", records[0].Name)
}

func TestParseDirectorySkipsDeletedEntry(t *testing.T) {
	data := make([]byte, 32)
	data[0] = 0xE5
	records := parseDirectory(data)
	assert.Empty(t, records)
}

func TestParseDirectoryEmitsVolumeLabelEntry(t *testing.T) {
	data := make([]byte, 64)
	copy(data[0:], []byte("MYVOL      "))
	data[11] = AttrVolumeID
	// data[32] left as all-zero: end-of-directory marker.

	records := parseDirectory(data)
	assert.Len(t, records, 1)
	assert.Equal(t, "MYVOL", records[0].Name)
	assert.True(t, records[0].Metadata.IsVolumeLabel())
	assert.False(t, records[0].IsDir)
}
