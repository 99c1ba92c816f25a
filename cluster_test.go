package vfat32_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vfat32 "github.com/student/vfat32"
	"github.com/student/vfat32/fixtures"
)

func testVolume(t *testing.T, build func(img *fixtures.Image) uint32) *vfat32.Volume {
	t.Helper()

	img := fixtures.NewImage(fixtures.Geometry{
		BytesPerSector:       512,
		SectorsPerCluster:    1,
		ReservedSectors:      2,
		NumFATs:              1,
		PartitionStartSector: 1,
		DataClusters:         32,
	})

	rootCluster := build(img)
	device := img.Finish(rootCluster)

	vol, err := vfat32.Mount(device)
	require.NoError(t, err)
	return vol
}

func TestReadChainFollowsMultiClusterFile(t *testing.T) {
	var fileCluster uint32
	vol := testVolume(t, func(img *fixtures.Image) uint32 {
		root := img.AllocateChain(1)
		fileCluster = img.AllocateChain(2)

		img.SetClusterBytes(fileCluster, bytes.Repeat([]byte("A"), 512))
		img.SetClusterBytes(fileCluster+1, bytes.Repeat([]byte("B"), 512))

		cursor := img.DirCursor(root)
		cursor.AddRegularEntry("DATA.BIN", vfat32.AttrArchive, fileCluster, 1024, fixedModTime())
		cursor.AddEndMarker()
		return root
	})

	entry, err := vol.Open("DATA.BIN")
	require.NoError(t, err)

	file, err := entry.AsFile()
	require.NoError(t, err)

	contents := file.ReadAll()
	require.Len(t, contents, 1024)
	assert.Equal(t, bytes.Repeat([]byte("A"), 512), contents[:512])
	assert.Equal(t, bytes.Repeat([]byte("B"), 512), contents[512:])
}

func TestReadChainTruncatesFinalClusterToSize(t *testing.T) {
	var fileCluster uint32
	vol := testVolume(t, func(img *fixtures.Image) uint32 {
		root := img.AllocateChain(1)
		fileCluster = img.AllocateChain(1)
		img.SetClusterBytes(fileCluster, bytes.Repeat([]byte("Z"), 512))

		cursor := img.DirCursor(root)
		cursor.AddRegularEntry("SMALL.TXT", vfat32.AttrArchive, fileCluster, 5, fixedModTime())
		cursor.AddEndMarker()
		return root
	})

	entry, err := vol.Open("SMALL.TXT")
	require.NoError(t, err)

	file, err := entry.AsFile()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), file.Size())
	assert.Equal(t, []byte("ZZZZZ"), file.ReadAll())
}

func TestZeroSizeFileReadsEmpty(t *testing.T) {
	vol := testVolume(t, func(img *fixtures.Image) uint32 {
		root := img.AllocateChain(1)
		cursor := img.DirCursor(root)
		cursor.AddRegularEntry("EMPTY.TXT", vfat32.AttrArchive, 0, 0, fixedModTime())
		cursor.AddEndMarker()
		return root
	})

	entry, err := vol.Open("EMPTY.TXT")
	require.NoError(t, err)

	file, err := entry.AsFile()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), file.Size())
	assert.Empty(t, file.ReadAll())
}

func TestOpenDescendsIntoSubdirectory(t *testing.T) {
	vol := testVolume(t, func(img *fixtures.Image) uint32 {
		root := img.AllocateChain(1)
		sub := img.AllocateChain(1)
		leaf := img.AllocateChain(1)
		img.SetClusterBytes(leaf, []byte("inside"))

		subCursor := img.DirCursor(sub)
		subCursor.AddRegularEntry("LEAF.TXT", vfat32.AttrArchive, leaf, 6, fixedModTime())
		subCursor.AddEndMarker()

		rootCursor := img.DirCursor(root)
		rootCursor.AddRegularEntry("SUBDIR", vfat32.AttrDirectory, sub, 0, fixedModTime())
		rootCursor.AddEndMarker()
		return root
	})

	entry, err := vol.Open("SUBDIR/LEAF.TXT")
	require.NoError(t, err)

	file, err := entry.AsFile()
	require.NoError(t, err)
	assert.Equal(t, []byte("inside"), file.ReadAll())
}

func TestOpenMissingPathIsNotFound(t *testing.T) {
	vol := testVolume(t, func(img *fixtures.Image) uint32 {
		root := img.AllocateChain(1)
		cursor := img.DirCursor(root)
		cursor.AddEndMarker()
		return root
	})

	_, err := vol.Open("NOPE.TXT")
	assert.Error(t, err)
}

func TestLongNameEntryResolvesByLongName(t *testing.T) {
	vol := testVolume(t, func(img *fixtures.Image) uint32 {
		root := img.AllocateChain(1)
		data := img.AllocateChain(1)
		img.SetClusterBytes(data, []byte("hello world"))

		cursor := img.DirCursor(root)
		cursor.AddLongEntry("a very long file name.txt", "VERYLO~1.TXT", vfat32.AttrArchive, data, 11, fixedModTime())
		cursor.AddEndMarker()
		return root
	})

	entry, err := vol.Open("a very long file name.txt")
	require.NoError(t, err)
	assert.Equal(t, "a very long file name.txt", entry.Name())

	file, err := entry.AsFile()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), file.ReadAll())
}

func TestRootDirEntriesListsAllFiles(t *testing.T) {
	vol := testVolume(t, func(img *fixtures.Image) uint32 {
		root := img.AllocateChain(1)
		a := img.AllocateChain(1)
		b := img.AllocateChain(1)

		cursor := img.DirCursor(root)
		cursor.AddRegularEntry("A.TXT", vfat32.AttrArchive, a, 1, fixedModTime())
		cursor.AddRegularEntry("B.TXT", vfat32.AttrArchive, b, 1, fixedModTime())
		cursor.AddEndMarker()
		return root
	})

	entries, err := vol.RootDir().Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "A.TXT", entries[0].Name())
	assert.Equal(t, "B.TXT", entries[1].Name())
}
