package vfat32

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/student/vfat32/vfaterr"
)

// mbrSize is sizeof(MBR): 436-byte bootstrap, 10-byte disk ID, four 16-byte
// partition records, and a 2-byte signature (spec §6).
const mbrSize = 436 + 10 + 4*16 + 2

// chs is a packed cylinder/head/sector address. This driver never interprets
// it; it's carried only because it sits between fields we do care about.
type chs struct {
	Head     uint8
	Sector   uint8
	Cylinder uint8
}

// rawPartitionEntry is the 16-byte on-disk partition record, byte-exact per
// spec §6.
type rawPartitionEntry struct {
	Boot           uint8
	CHSStart       chs
	Type           uint8
	CHSEnd         chs
	RelativeSector uint32
	TotalSectors   uint32
}

// PartitionEntry is the decoded, user-facing form of a partition record.
type PartitionEntry struct {
	Type         uint8
	StartSector  uint64
	TotalSectors uint64
}

type rawMBR struct {
	Bootstrap  [436]byte
	DiskID     [10]byte
	Partitions [4]rawPartitionEntry
	Signature  [2]byte
}

// MBR is the decoded Master Boot Record: sector 0 of the device, holding the
// partition table (spec §4.3).
type MBR struct {
	Partitions [4]PartitionEntry
}

// fat32PartitionTypes are the partition type bytes that mark a FAT32 LBA
// partition (spec §4.3): 0x0B (CHS) and 0x0C (LBA).
const (
	partitionTypeFAT32CHS = 0x0B
	partitionTypeFAT32LBA = 0x0C
)

// ReadMBR reads and decodes sector 0 of device.
//
// It fails with vfaterr.BadSignature if the trailing 0x55,0xAA signature is
// missing, and with a vfaterr.UnknownBootIndicator for the first partition
// record whose boot byte is neither 0x00 nor 0x80.
func ReadMBR(device BlockDevice) (*MBR, error) {
	buf := make([]byte, mbrSize)
	n, err := device.ReadSector(0, buf)
	if err != nil {
		return nil, err
	}
	if n < mbrSize {
		return nil, io.ErrUnexpectedEOF
	}

	var raw rawMBR
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &raw); err != nil {
		return nil, err
	}

	if raw.Signature != [2]byte{0x55, 0xAA} {
		return nil, vfaterr.BadSignature
	}

	mbr := &MBR{}
	for i, rawEntry := range raw.Partitions {
		if rawEntry.Boot != 0x00 && rawEntry.Boot != 0x80 {
			return nil, vfaterr.UnknownBootIndicator(i)
		}
		mbr.Partitions[i] = PartitionEntry{
			Type:         rawEntry.Type,
			StartSector:  uint64(rawEntry.RelativeSector),
			TotalSectors: uint64(rawEntry.TotalSectors),
		}
	}

	return mbr, nil
}

// FirstFAT32 scans the partition table in order and returns the first
// partition whose type byte marks it as FAT32 (0x0B or 0x0C). If none exists,
// it fails with vfaterr.NotFound.
func (mbr *MBR) FirstFAT32() (*PartitionEntry, error) {
	for i := range mbr.Partitions {
		switch mbr.Partitions[i].Type {
		case partitionTypeFAT32CHS, partitionTypeFAT32LBA:
			return &mbr.Partitions[i], nil
		}
	}
	return nil, vfaterr.NotFound
}
