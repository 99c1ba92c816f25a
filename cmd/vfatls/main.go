package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"

	vfat32 "github.com/student/vfat32"
)

func main() {
	app := cli.App{
		Usage: "Inspect and extract files from a read-only FAT32 image",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List the contents of a directory",
				Action:    listDir,
				ArgsUsage: "IMAGE_FILE [PATH]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "output format: table or csv",
						Value: "table",
					},
				},
			},
			{
				Name:      "cat",
				Usage:     "Print a file's contents to stdout",
				Action:    catFile,
				ArgsUsage: "IMAGE_FILE PATH",
			},
			{
				Name:      "extract",
				Usage:     "Copy one file, or every file, out of the image",
				Action:    extractFiles,
				ArgsUsage: "IMAGE_FILE [PATH] DEST_DIR",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "extract every file in the image instead of a single path",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func mountArg(context *cli.Context, index int) (*vfat32.Volume, error) {
	imagePath := context.Args().Get(index)
	if imagePath == "" {
		return nil, fmt.Errorf("missing required IMAGE_FILE argument")
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return nil, err
	}
	return vfat32.Mount(fileDevice{f})
}

// fileDevice adapts an *os.File to the driver's BlockDevice contract using
// fixed 512-byte sectors, the conventional physical sector size for images
// produced by this CLI's target devices.
type fileDevice struct {
	f *os.File
}

const cliSectorSize = 512

func (d fileDevice) ReadSector(index uint64, dst []byte) (int, error) {
	if _, err := d.f.Seek(int64(index)*cliSectorSize, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(d.f, dst)
}

// listingRow is one row of "ls --format=csv" output, marshaled with
// gocarina/gocsv the same way the teacher's disks package renders
// DiskGeometry rows.
type listingRow struct {
	Name     string `csv:"name"`
	Size     uint32 `csv:"size_bytes"`
	IsDir    bool   `csv:"is_dir"`
	Modified string `csv:"modified"`
}

func listDir(context *cli.Context) error {
	vol, err := mountArg(context, 0)
	if err != nil {
		return err
	}

	path := context.Args().Get(1)
	dir := vol.RootDir()
	if path != "" {
		entry, err := vol.Open(path)
		if err != nil {
			return err
		}
		dir, err = entry.AsDir()
		if err != nil {
			return err
		}
	}

	entries, err := dir.Entries()
	if err != nil {
		return err
	}

	rows := make([]listingRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, listingRow{
			Name:     e.Name(),
			Size:     entrySize(e),
			IsDir:    e.IsDir(),
			Modified: e.Metadata().Modified.Time().Format("2006-01-02 15:04:05"),
		})
	}

	if context.String("format") == "csv" {
		out, err := gocsv.MarshalString(&rows)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	for _, r := range rows {
		kind := "FILE"
		if r.IsDir {
			kind = "DIR "
		}
		fmt.Printf("%s  %10d  %s  %s\n", kind, r.Size, r.Modified, r.Name)
	}
	return nil
}

func entrySize(e vfat32.Entry) uint32 {
	if e.IsDir() {
		return 0
	}
	f, err := e.AsFile()
	if err != nil {
		return 0
	}
	return f.Size()
}

func catFile(context *cli.Context) error {
	vol, err := mountArg(context, 0)
	if err != nil {
		return err
	}

	path := context.Args().Get(1)
	if path == "" {
		return fmt.Errorf("missing required PATH argument")
	}

	entry, err := vol.Open(path)
	if err != nil {
		return err
	}

	file, err := entry.AsFile()
	if err != nil {
		return err
	}

	_, err = io.Copy(os.Stdout, file)
	return err
}

// extractFiles copies either a single file (default) or every file in the
// image (--all) into destDir, collecting per-file failures instead of
// aborting on the first one (DOMAIN EXPANSION item 4).
func extractFiles(context *cli.Context) error {
	vol, err := mountArg(context, 0)
	if err != nil {
		return err
	}

	if !context.Bool("all") {
		path := context.Args().Get(1)
		destDir := context.Args().Get(2)
		if path == "" || destDir == "" {
			return fmt.Errorf("usage: extract IMAGE_FILE PATH DEST_DIR")
		}
		entry, err := vol.Open(path)
		if err != nil {
			return err
		}
		return extractOne(entry, filepath.Join(destDir, filepath.Base(path)))
	}

	destDir := context.Args().Get(1)
	if destDir == "" {
		return fmt.Errorf("usage: extract --all IMAGE_FILE DEST_DIR")
	}

	var failures *multierror.Error
	err = vol.WalkFiles(vol.RootDir(), "", func(path string, entry vfat32.Entry) error {
		if extractErr := extractOne(entry, filepath.Join(destDir, path)); extractErr != nil {
			failures = multierror.Append(failures, fmt.Errorf("%s: %w", path, extractErr))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return failures.ErrorOrNil()
}

func extractOne(entry vfat32.Entry, destPath string) error {
	file, err := entry.AsFile()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, file)
	return err
}
