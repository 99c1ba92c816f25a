package vfat32

import (
	"encoding/binary"
	"strings"
	"time"
	"unicode/utf16"
)

// Directory entry attribute flags (spec §3).
const (
	AttrReadOnly   = 0x01
	AttrHidden     = 0x02
	AttrSystem     = 0x04
	AttrVolumeID   = 0x08
	AttrDirectory  = 0x10
	AttrArchive    = 0x20
	attrLongName   = 0x0F
)

const dirEntrySize = 32

// rawDirEntry is the byte-exact 32-byte on-disk directory record, before its
// tag (end/deleted/LFN/regular) has been determined (spec §3, §4.7).
type rawDirEntry struct {
	raw []byte
}

func (r rawDirEntry) firstByte() byte { return r.raw[0] }
func (r rawDirEntry) attr() byte      { return r.raw[11] }

func (r rawDirEntry) isEnd() bool     { return r.firstByte() == 0x00 }
func (r rawDirEntry) isDeleted() bool { return r.firstByte() == 0xE5 }
func (r rawDirEntry) isLFN() bool     { return !r.isEnd() && !r.isDeleted() && r.attr() == attrLongName }

// lfnSeqNumber is the raw sequence byte of an LFN entry.
func (r rawDirEntry) lfnSeqNumber() byte { return r.raw[0] }

// lfnIsDeleted reports whether this specific LFN fragment is itself deleted
// (spec §4.7's LFN tolerance note), distinct from rawDirEntry.isDeleted,
// which only checks the shared 0xE5 sentinel byte convention.
func (r rawDirEntry) lfnIsDeleted() bool { return r.lfnSeqNumber() == 0xE5 }

// lfnOrdinal returns the 1-based fragment ordinal from the low 5 bits of the
// sequence byte (spec §4.7).
func (r rawDirEntry) lfnOrdinal() int { return int(r.lfnSeqNumber() & 0x1F) }

// lfnUnits returns this fragment's 13 UCS-2 code units, gathered from the
// three scattered subfields of widths 5, 6, 2 (spec §3).
func (r rawDirEntry) lfnUnits() [13]uint16 {
	var units [13]uint16
	readUnits(r.raw[1:11], units[0:5])
	readUnits(r.raw[14:26], units[5:11])
	readUnits(r.raw[28:32], units[11:13])
	return units
}

func readUnits(src []byte, dst []uint16) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint16(src[i*2 : i*2+2])
	}
}

// regularFields are the fields of a regular (short-name) directory entry
// (spec §3).
type regularFields struct {
	name         [8]byte
	ext          [3]byte
	attr         uint8
	createDate   uint16
	accessDate   uint16
	clusterHigh  uint16
	modifyTime   uint16
	modifyDate   uint16
	clusterLow   uint16
	size         uint32
}

func (r rawDirEntry) regular() regularFields {
	raw := r.raw
	var f regularFields
	copy(f.name[:], raw[0:8])
	copy(f.ext[:], raw[8:11])
	f.attr = raw[11]
	f.createDate = binary.LittleEndian.Uint16(raw[16:18])
	f.accessDate = binary.LittleEndian.Uint16(raw[18:20])
	f.clusterHigh = binary.LittleEndian.Uint16(raw[20:22])
	f.modifyTime = binary.LittleEndian.Uint16(raw[22:24])
	f.modifyDate = binary.LittleEndian.Uint16(raw[24:26])
	f.clusterLow = binary.LittleEndian.Uint16(raw[26:28])
	f.size = binary.LittleEndian.Uint32(raw[28:32])
	return f
}

func (f regularFields) firstCluster() uint32 {
	return uint32(f.clusterHigh)<<16 | uint32(f.clusterLow)
}

// asciiToString decodes an 8.3 short-name field: characters up to the first
// 0x00 or 0x20 byte. An all-blank field decodes to ok=false, matching spec §8
// scenario 2 ("empty-result marker, not \"\"").
func asciiToString(field []byte) (string, bool) {
	var b strings.Builder
	for _, c := range field {
		if c == 0x00 || c == 0x20 {
			break
		}
		b.WriteByte(c)
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

// ucs2ToString decodes a UCS-2 buffer up to the first 0x0000 or 0xFFFF
// terminator, treating invalid surrogate sequences as U+FFFD, per spec §3 and
// §8 scenario 3. This mirrors the pack's other FAT driver's hand-rolled UTF-16
// codec (_examples/soypat-fat/internal/utf16x), which itself is built on
// unicode/utf16 + unicode/utf8 — no third-party library in the pack supplies
// surrogate-aware UCS-2 decoding independent of those two stdlib packages.
func ucs2ToString(units []uint16) string {
	terminator := len(units)
	for i, u := range units {
		if u == 0x0000 || u == 0xFFFF {
			terminator = i
			break
		}
	}
	runes := utf16.Decode(units[:terminator])
	return string(runes)
}

// buildShortName reconstructs "NAME.EXT" from the 8.3 short fields, each
// cut at its first 0x00 or 0x20 byte (see asciiToString); the dot is omitted
// if the extension decodes to empty (spec §4.7).
func buildShortName(f regularFields) string {
	name, _ := asciiToString(f.name[:])
	ext, hasExt := asciiToString(f.ext[:])
	if !hasExt {
		return name
	}
	return name + "." + ext
}

// lfnAccumulator collects LFN fragments for the regular entry that follows
// them, sized for the FAT32 maximum of 20 fragments * 13 code units = 260
// UCS-2 units (spec §4.7).
type lfnAccumulator struct {
	units [20 * 13]uint16
	used  bool
}

func (a *lfnAccumulator) add(entry rawDirEntry) {
	if entry.lfnIsDeleted() {
		return
	}
	ordinal := entry.lfnOrdinal()
	if ordinal < 1 || ordinal > 20 {
		return
	}
	offset := (ordinal - 1) * 13
	units := entry.lfnUnits()
	copy(a.units[offset:offset+13], units[:])
	a.used = true
}

func (a *lfnAccumulator) reset() {
	a.units = [20 * 13]uint16{}
	a.used = false
}

func (a *lfnAccumulator) name() string {
	return ucs2ToString(a.units[:])
}

// dirTimestamp decodes a FAT32 date/time pair into year/month/day/hour/
// minute/second fields per spec §3's bit layout.
func dirTimestamp(date, clock uint16) Timestamp {
	return Timestamp{
		Year:   int((date>>9)&0x7F) + 1980,
		Month:  int((date >> 5) & 0x0F),
		Day:    int(date & 0x1F),
		Hour:   int((clock >> 11) & 0x1F),
		Minute: int((clock >> 5) & 0x3F),
		Second: int(clock&0x1F) * 2,
	}
}

// Timestamp is a decoded FAT32 date/time pair (spec §4.9).
type Timestamp struct {
	Year, Month, Day, Hour, Minute, Second int
}

// Time converts the Timestamp to a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.Date(t.Year, time.Month(t.Month), t.Day, t.Hour, t.Minute, t.Second, 0, time.UTC)
}

// Metadata is the read-only metadata carried by every directory entry
// (spec §4.9).
type Metadata struct {
	Attr     uint8
	Modified Timestamp
	Accessed Timestamp
}

// IsReadOnly reports the read-only attribute bit.
func (m Metadata) IsReadOnly() bool { return m.Attr&AttrReadOnly != 0 }

// IsHidden reports the hidden attribute bit.
func (m Metadata) IsHidden() bool { return m.Attr&AttrHidden != 0 }

// IsSystem reports the system attribute bit (DOMAIN EXPANSION item 2).
func (m Metadata) IsSystem() bool { return m.Attr&AttrSystem != 0 }

// IsVolumeLabel reports the volume-label attribute bit (DOMAIN EXPANSION item 2).
func (m Metadata) IsVolumeLabel() bool { return m.Attr&AttrVolumeID != 0 }

// IsArchive reports the archive attribute bit (DOMAIN EXPANSION item 2).
func (m Metadata) IsArchive() bool { return m.Attr&AttrArchive != 0 }

// dirRecord is one resolved directory entry: a long name (if any LFN
// fragments preceded it) or short name, plus the fields needed to build a
// File or Dir (spec §4.7, §4.8).
type dirRecord struct {
	Name         string
	Metadata     Metadata
	FirstCluster uint32
	Size         uint32
	IsDir        bool
}

// parseDirectory walks one directory's full cluster-chain contents and
// returns its live (non-deleted) entries, stopping at the first end-of-
// directory marker (spec §4.7). LFN fragments accumulate into a pending long
// name that is attached to the next regular entry; an orphaned run of LFN
// fragments not followed by a regular entry before the next reset point is
// silently dropped, matching the original implementation's tolerance of
// partially overwritten LFN runs.
func parseDirectory(data []byte) []dirRecord {
	var records []dirRecord
	var pending lfnAccumulator

	for offset := 0; offset+dirEntrySize <= len(data); offset += dirEntrySize {
		entry := rawDirEntry{raw: data[offset : offset+dirEntrySize]}

		if entry.isEnd() {
			break
		}
		if entry.isDeleted() {
			pending.reset()
			continue
		}
		if entry.isLFN() {
			pending.add(entry)
			continue
		}

		f := entry.regular()
		name := buildShortName(f)
		if pending.used {
			name = pending.name()
		}
		pending.reset()

		records = append(records, dirRecord{
			Name: name,
			Metadata: Metadata{
				Attr:     f.attr,
				Modified: dirTimestamp(f.modifyDate, f.modifyTime),
				Accessed: dirTimestamp(f.accessDate, 0),
			},
			FirstCluster: f.firstCluster(),
			Size:         f.size,
			IsDir:        f.attr&AttrDirectory != 0,
		})
	}

	return records
}
