package vfat32_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vfat32 "github.com/student/vfat32"
	"github.com/student/vfat32/fixtures"
	"github.com/student/vfat32/vfaterr"
)

type sliceDevice []byte

func (d sliceDevice) ReadSector(index uint64, dst []byte) (int, error) {
	offset := int(index) * len(dst)
	if offset >= len(d) {
		return 0, nil
	}
	n := copy(dst, d[offset:])
	return n, nil
}

func TestReadMBRShortDeviceIsUnexpectedEOF(t *testing.T) {
	_, err := vfat32.ReadMBR(sliceDevice(make([]byte, 10)))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadMBRBadSignature(t *testing.T) {
	buf := fixtures.BuildMBR([4]fixtures.PartitionSpec{})
	buf[510] = 0x00
	buf[511] = 0x00

	_, err := vfat32.ReadMBR(sliceDevice(buf))
	assert.ErrorIs(t, err, vfaterr.BadSignature)
}

func TestReadMBRUnknownBootIndicator(t *testing.T) {
	buf := fixtures.BuildMBR([4]fixtures.PartitionSpec{
		{Type: 0x0C, StartSector: 1, TotalSectors: 100},
	})
	buf[446] = 0x7F // neither 0x00 nor 0x80

	_, err := vfat32.ReadMBR(sliceDevice(buf))
	var indicator vfaterr.UnknownBootIndicator
	require.ErrorAs(t, err, &indicator)
	assert.Equal(t, 0, int(indicator))
}

func TestFirstFAT32ReturnsNotFoundWhenAbsent(t *testing.T) {
	buf := fixtures.BuildMBR([4]fixtures.PartitionSpec{
		{Type: 0x07, StartSector: 1, TotalSectors: 100},
	})
	mbr, err := vfat32.ReadMBR(sliceDevice(buf))
	require.NoError(t, err)

	_, err = mbr.FirstFAT32()
	assert.ErrorIs(t, err, vfaterr.NotFound)
}

func TestFirstFAT32SkipsNonFATPartitions(t *testing.T) {
	buf := fixtures.BuildMBR([4]fixtures.PartitionSpec{
		{Type: 0x07, StartSector: 1, TotalSectors: 50},
		{Type: 0x0C, StartSector: 51, TotalSectors: 100},
	})
	mbr, err := vfat32.ReadMBR(sliceDevice(buf))
	require.NoError(t, err)

	part, err := mbr.FirstFAT32()
	require.NoError(t, err)
	assert.Equal(t, uint64(51), part.StartSector)
}
