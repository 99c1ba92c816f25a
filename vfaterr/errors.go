// Package vfaterr defines the named error kinds raised by the vfat32 driver's
// public surface: the structural failures that make a volume unmountable, and
// the lookup failures a caller can reasonably recover from.
//
// It mirrors the shape of github.com/dargueta/disko's errors package: a small
// interface that lets a sentinel be enriched with a message or wrap an
// underlying error, rather than a single monolithic error struct.
package vfaterr

import "fmt"

// Kind is the interface satisfied by every sentinel in this package. It lets
// callers attach context without losing errors.Is/errors.As compatibility.
type Kind interface {
	error
	WithMessage(message string) Kind
	Unwrap() error
}

type sentinel string

func (s sentinel) Error() string { return string(s) }

func (s sentinel) WithMessage(message string) Kind {
	return &wrapped{kind: s, message: fmt.Sprintf("%s: %s", string(s), message)}
}

func (s sentinel) Unwrap() error { return nil }

type wrapped struct {
	kind    sentinel
	message string
}

func (w *wrapped) Error() string { return w.message }

func (w *wrapped) WithMessage(message string) Kind {
	return &wrapped{kind: w.kind, message: fmt.Sprintf("%s: %s", w.message, message)}
}

func (w *wrapped) Unwrap() error { return w.kind }

// Structural errors: fatal at mount time, per spec §7 kind 1.
const (
	// BadSignature means a sector's trailing 0x55,0xAA signature was missing
	// or wrong (MBR sector 0, or a partition's EBPB sector).
	BadSignature = sentinel("bad boot signature")
)

// UnknownBootIndicator means partition record i's boot byte was neither 0x00
// nor 0x80. i is zero-based, matching spec §4.3.
type UnknownBootIndicator int

func (e UnknownBootIndicator) Error() string {
	return fmt.Sprintf("partition %d: unknown boot indicator byte", int(e))
}

// Lookup errors: recoverable, per spec §7 kind 3.
const (
	// NotFound means a path component, or a FAT32 partition, could not be
	// located.
	NotFound = sentinel("not found")

	// InvalidInput means a lookup query did not decode as UTF-8, or a
	// partition's boot sector is not FAT32-shaped. Unsupported path
	// components ("." and "..") are rejected by Volume.Open with a
	// DriverError instead.
	InvalidInput = sentinel("invalid input")
)

// Corrupt-chain errors: surfaced at the read that triggers them, per spec §7
// kind 2. Not recovered; the caller may only report them.
const (
	// ErrChainTooLong means a cluster chain followed more links than the FAT
	// has slots (sectors per FAT × entries per sector) without reaching Eoc,
	// per spec §9's cycle-protection note: a malformed (cyclic) chain would
	// otherwise grow without bound.
	ErrChainTooLong = sentinel("cluster chain exceeds volume capacity; probable cycle")
)

// BadChainStatus reports that a FAT entry in Free, Reserved, or Bad state was
// reached while following a chain (spec §4.6, §7 kind 2).
type BadChainStatus struct {
	Status  string
	Cluster uint32
}

func (e *BadChainStatus) Error() string {
	return fmt.Sprintf("cluster %d has unreadable FAT status %s", e.Cluster, e.Status)
}
