package ingest

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zipFile struct {
	name string
	body string
}

func buildZip(t *testing.T, files ...zipFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadArchive_FirstMatchingEntry(t *testing.T) {
	blob := buildZip(t,
		zipFile{"readme.txt", "ignore me"},
		zipFile{"export/Statement.CSV", "date,amount\n2025-01-01,10"},
		zipFile{"second.csv", "date,amount\n2025-01-02,20"},
	)

	entry, err := ReadArchive(blob)
	require.NoError(t, err)
	assert.Equal(t, "export/Statement.CSV", entry.Name)
	assert.Equal(t, "date,amount\n2025-01-01,10", entry.Text)
}

func TestReadArchive_StripsBOM(t *testing.T) {
	blob := buildZip(t, zipFile{"a.csv", "\ufeffdate,amount\n"})

	entry, err := ReadArchive(blob)
	require.NoError(t, err)
	assert.Equal(t, "date,amount\n", entry.Text)
}

func TestReadArchive_NoMatchingEntry(t *testing.T) {
	blob := buildZip(t, zipFile{"notes.txt", "hello"}, zipFile{"data.csv.bak", "x"})

	_, err := ReadArchive(blob)
	require.ErrorIs(t, err, ErrNoMatchingEntry)
	assert.True(t, IsInputRejected(err))
}

func TestReadArchive_NotAnArchive(t *testing.T) {
	_, err := ReadArchive([]byte("date,merchant\n2025-01-01,Swiggy"))
	require.ErrorIs(t, err, ErrNotAnArchive)
	assert.True(t, IsInputRejected(err))
	assert.Equal(t, "That file is not a valid ZIP archive.", UserMessage(err))
}

func TestReadArchive_CorruptEntry(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "data.csv", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("date,merchant,amount\n2025-01-01,Swiggy,349\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	blob := buf.Bytes()
	idx := bytes.Index(blob, []byte("Swiggy"))
	require.GreaterOrEqual(t, idx, 0)
	blob[idx] ^= 0xFF

	_, err = ReadArchive(blob)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArchiveCorrupt)
	assert.False(t, IsInputRejected(err))
	assert.Equal(t, "Failed to read ZIP. The archive may be damaged.", UserMessage(err))
}

func TestCheckFilename(t *testing.T) {
	assert.NoError(t, CheckFilename("statement.zip"))
	assert.NoError(t, CheckFilename("STATEMENT.ZIP"))
	assert.ErrorIs(t, CheckFilename("statement.csv"), ErrUnsupportedFile)
	assert.ErrorIs(t, CheckFilename(""), ErrInputRejected)
}

func TestWriteArchiveRoundTrip(t *testing.T) {
	blob, err := SampleArchive()
	require.NoError(t, err)

	entry, err := ReadArchive(blob)
	require.NoError(t, err)
	assert.Equal(t, SampleEntryName, entry.Name)
	assert.Equal(t, SampleCSV, entry.Text)
}
