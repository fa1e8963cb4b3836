package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

// TableSuffix is the entry suffix the reader looks for, compared case-insensitively.
const TableSuffix = ".csv"

// ArchiveSuffix is the expected upload file suffix.
const ArchiveSuffix = ".zip"

// Entry is the table file selected from an archive.
type Entry struct {
	Name string
	Text string
}

// CheckFilename rejects uploads whose name does not look like a zip archive.
func CheckFilename(name string) error {
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ArchiveSuffix) {
		return ErrUnsupportedFile
	}
	return nil
}

// ReadArchive opens blob as a zip archive and returns the text of the first
// entry, in archive order, whose name ends with TableSuffix.
func ReadArchive(blob []byte) (Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %w", ErrNotAnArchive, err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isTableEntry(f.Name) {
			continue
		}
		text, err := readEntry(f)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: entry %q: %w", ErrArchiveCorrupt, f.Name, err)
		}
		return Entry{Name: f.Name, Text: text}, nil
	}

	return Entry{}, ErrNoMatchingEntry
}

func isTableEntry(name string) bool {
	return strings.HasSuffix(strings.ToLower(path.Base(name)), TableSuffix)
}

func readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimPrefix(data, utf8BOM)), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteArchive writes a zip archive holding a single table entry.
func WriteArchive(w io.Writer, name, text string) error {
	zw := zip.NewWriter(w)
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	if _, err := io.WriteString(fw, text); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}
