// Package archive packages serialized documents for delivery, either as
// a zip bundle or as files in a directory. It knows nothing about the
// content it writes.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/morozRed/xmlref/internal/fileutil"
)

// Serializable is anything that can render itself under a name.
type Serializable interface {
	Name() string
	Serialize() ([]byte, error)
}

// File is one named byte buffer. It serializes to its bytes unchanged.
type File struct {
	Path string
	Data []byte
}

func (f File) Name() string { return f.Path }

func (f File) Serialize() ([]byte, error) { return f.Data, nil }

// WriteZip writes one deflated entry per document, in the given order.
func WriteZip(w io.Writer, docs []Serializable) error {
	zipWriter := zip.NewWriter(w)
	for _, doc := range docs {
		name, err := entryName(doc.Name())
		if err != nil {
			_ = zipWriter.Close()
			return err
		}
		data, err := doc.Serialize()
		if err != nil {
			_ = zipWriter.Close()
			return fmt.Errorf("failed to serialize %s: %w", name, err)
		}
		if err := addFileToZip(zipWriter, name, data); err != nil {
			_ = zipWriter.Close()
			return err
		}
	}
	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish zip archive: %w", err)
	}
	return nil
}

// WriteZipFile writes the bundle to a temporary file next to outPath and
// renames it into place, so a failed write leaves an existing bundle
// untouched.
func WriteZipFile(outPath string, docs []Serializable) error {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	perm := os.FileMode(0644)
	if info, err := os.Stat(outPath); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(outPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := WriteZip(tmp, docs); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions on output file: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", outPath, err)
	}
	return nil
}

func addFileToZip(zipWriter *zip.Writer, filename string, content []byte) error {
	writer, err := zipWriter.CreateHeader(&zip.FileHeader{Name: filename, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}
	if _, err := writer.Write(content); err != nil {
		return fmt.Errorf("failed to write zip entry: %w", err)
	}
	return nil
}

// WriteDir writes every document below dir, creating parent directories.
// Files whose content is unchanged are left untouched. It returns the
// names that were written.
func WriteDir(dir string, docs []Serializable) ([]string, error) {
	written := make([]string, 0, len(docs))
	for _, doc := range docs {
		name, err := entryName(doc.Name())
		if err != nil {
			return written, err
		}
		data, err := doc.Serialize()
		if err != nil {
			return written, fmt.Errorf("failed to serialize %s: %w", name, err)
		}
		target := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return written, fmt.Errorf("failed to create directory for %s: %w", name, err)
		}
		changed, err := fileutil.WriteIfChangedTracked(target, data)
		if err != nil {
			return written, fmt.Errorf("failed to write %s: %w", name, err)
		}
		if changed {
			written = append(written, name)
		}
	}
	return written, nil
}

// ReadZip returns the regular files of a zip archive sorted by path.
func ReadZip(r io.ReaderAt, size int64) ([]File, error) {
	reader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	files := make([]File, 0, len(reader.File))
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		name, err := entryName(entry.Name)
		if err != nil {
			return nil, err
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open zip entry %s: %w", name, err)
		}
		var buf bytes.Buffer
		_, err = io.Copy(&buf, rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read zip entry %s: %w", name, err)
		}
		files = append(files, File{Path: name, Data: buf.Bytes()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// ReadZipFile opens path and reads it with ReadZip.
func ReadZipFile(zipPath string) ([]File, error) {
	f, err := os.Open(zipPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ReadZip(f, info.Size())
}

// entryName normalizes a document name to a relative slash path and
// rejects names that would escape the output root.
func entryName(name string) (string, error) {
	clean := path.Clean(filepath.ToSlash(name))
	if clean == "." || clean == "" || strings.HasPrefix(clean, "../") || clean == ".." || path.IsAbs(clean) {
		return "", fmt.Errorf("invalid entry name %q", name)
	}
	return clean, nil
}
