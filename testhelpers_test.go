package vfat32_test

import "time"

func fixedModTime() time.Time {
	return time.Date(2024, time.March, 5, 13, 7, 44, 0, time.UTC)
}
