package blockcache_test

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student/vfat32/blockcache"
)

func fetcher(sectorSize int, reads *int) blockcache.FetchSector {
	return func(index uint64, dst []byte) (int, error) {
		*reads++
		for i := range dst {
			dst[i] = byte(index)
		}
		return sectorSize, nil
	}
}

func TestGetLoadsOnMiss(t *testing.T) {
	reads := 0
	cache := blockcache.New(8, 4, fetcher(8, &reads))

	buf, err := cache.Get(5)
	require.NoError(t, err)
	assert.Equal(t, byte(5), buf[0])
	assert.Equal(t, 1, reads)
}

func TestGetIsCachedOnSecondCall(t *testing.T) {
	reads := 0
	cache := blockcache.New(8, 4, fetcher(8, &reads))

	_, err := cache.Get(5)
	require.NoError(t, err)
	cache.Release(5)

	_, err = cache.Get(5)
	require.NoError(t, err)

	assert.Equal(t, 1, reads, "second Get should hit the cache, not the device")
}

func TestEvictionSkipsBorrowedSectors(t *testing.T) {
	reads := 0
	cache := blockcache.New(8, 2, fetcher(8, &reads))

	first, err := cache.Get(1) // slot 0, stays borrowed
	require.NoError(t, err)

	_, err = cache.Get(2) // slot 1
	require.NoError(t, err)
	cache.Release(2)

	// Third distinct sector forces an eviction; sector 1 is still borrowed so
	// sector 2 (not borrowed) must be the one evicted, leaving sector 1's
	// bytes untouched.
	_, err = cache.Get(3)
	require.NoError(t, err)

	assert.Equal(t, byte(1), first[0], "borrowed sector must not be evicted")
}

func TestExhaustedCacheFailsExplicitly(t *testing.T) {
	reads := 0
	cache := blockcache.New(8, 1, fetcher(8, &reads))

	_, err := cache.Get(1) // pins the only slot
	require.NoError(t, err)

	_, err = cache.Get(2)
	require.Error(t, err)
}

func TestFetchErrorPropagates(t *testing.T) {
	boom := fmt.Errorf("device exploded")
	cache := blockcache.New(8, 1, func(index uint64, dst []byte) (int, error) {
		return 0, boom
	})

	_, err := cache.Get(0)
	assert.ErrorIs(t, err, boom)
}

func TestShortReadBecomesUnexpectedEOF(t *testing.T) {
	cache := blockcache.New(8, 1, func(index uint64, dst []byte) (int, error) {
		return 4, nil
	})

	_, err := cache.Get(0)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
