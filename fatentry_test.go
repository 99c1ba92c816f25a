package vfat32_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	vfat32 "github.com/student/vfat32"
)

func TestClusterMasksReservedNibble(t *testing.T) {
	c := vfat32.NewCluster(0xFABCDEF0)
	assert.Equal(t, uint32(0x0ABCDEF0), c.FATIndex())
}

func TestClusterDataIndex(t *testing.T) {
	idx, err := vfat32.Cluster(2).DataIndex()
	assert.NoError(t, err)
	assert.Equal(t, uint32(0), idx)

	idx, err = vfat32.Cluster(9).DataIndex()
	assert.NoError(t, err)
	assert.Equal(t, uint32(7), idx)
}

func TestClusterDataIndexBelowTwoIsUsageError(t *testing.T) {
	_, err := vfat32.Cluster(0).DataIndex()
	assert.Error(t, err)

	_, err = vfat32.Cluster(1).DataIndex()
	assert.Error(t, err)
}

func TestFATEntryStatusClassification(t *testing.T) {
	cases := []struct {
		value  uint32
		status vfat32.FATStatus
	}{
		{0x00000000, vfat32.StatusFree},
		{0x00000001, vfat32.StatusReserved},
		{0x00000002, vfat32.StatusData},
		{0x0FFFFFEF, vfat32.StatusData},
		{0x0FFFFFF0, vfat32.StatusReserved},
		{0x0FFFFFF6, vfat32.StatusReserved},
		{0x0FFFFFF7, vfat32.StatusBad},
		{0x0FFFFFF8, vfat32.StatusEoc},
		{0x0FFFFFFF, vfat32.StatusEoc},
	}

	for _, tc := range cases {
		entry := vfat32.FATEntry(tc.value)
		assert.Equalf(
			t, tc.status, entry.Status(), "value 0x%08X classified wrong", tc.value,
		)
	}
}

func TestFATEntryNextMasksReservedNibble(t *testing.T) {
	entry := vfat32.FATEntry(0xF0000005)
	assert.Equal(t, vfat32.StatusData, entry.Status())
	assert.Equal(t, vfat32.Cluster(5), entry.Next())
}
