package vfat32

// Entry is a single resolved directory entry: either a File or a Dir, plus
// its shared name/metadata (spec §4.8's "Entry" sum type).
type Entry struct {
	name         string
	meta         Metadata
	isDir        bool
	firstCluster Cluster
	size         uint32
	engine       *chainEngine
}

// Name returns the entry's resolved name (long name if present, otherwise
// the reconstructed 8.3 short name).
func (e Entry) Name() string { return e.name }

// Metadata returns the entry's attribute and timestamp metadata.
func (e Entry) Metadata() Metadata { return e.meta }

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.isDir }

// AsFile returns the entry as a File. It fails with a usage DriverError if
// the entry is a directory.
func (e Entry) AsFile() (*File, error) {
	if e.isDir {
		return nil, NewDriverErrorWithMessage(errnoInvalidCluster, "entry is a directory, not a file")
	}
	return newFile(e.engine, e.firstCluster, e.size)
}

// AsDir returns the entry as a Dir. It fails with a usage DriverError if the
// entry is a regular file.
func (e Entry) AsDir() (*Dir, error) {
	if !e.isDir {
		return nil, NewDriverErrorWithMessage(errnoInvalidCluster, "entry is a file, not a directory")
	}
	return &Dir{engine: e.engine, firstCluster: e.firstCluster}, nil
}

func entryFromRecord(engine *chainEngine, rec dirRecord) Entry {
	return Entry{
		name:         rec.Name,
		meta:         rec.Metadata,
		isDir:        rec.IsDir,
		firstCluster: NewCluster(rec.FirstCluster),
		size:         rec.Size,
		engine:       engine,
	}
}
