package backups

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
)

// ArchiveEntry maps a file on disk to its path inside the archive.
type ArchiveEntry struct {
	SourcePath  string
	ArchivePath string
}

// CreateArchive writes the entries into a zip file using a faster deflate
// than the standard library's.
func CreateArchive(archivePath string, entries []ArchiveEntry) (err error) {
	if len(entries) == 0 {
		return fmt.Errorf("nothing to archive")
	}

	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", archivePath, err)
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()

	writer := zip.NewWriter(file)
	writer.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	for _, entry := range entries {
		if err := addEntry(writer, entry); err != nil {
			writer.Close()
			return err
		}
	}

	return writer.Close()
}

func addEntry(writer *zip.Writer, entry ArchiveEntry) error {
	source, err := os.Open(entry.SourcePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", entry.SourcePath, err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(entry.ArchivePath)
	header.Method = zip.Deflate

	target, err := writer.CreateHeader(header)
	if err != nil {
		return err
	}

	if _, err := io.Copy(target, source); err != nil {
		return fmt.Errorf("failed to compress %s: %w", entry.SourcePath, err)
	}
	return nil
}
