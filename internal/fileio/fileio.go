// Package fileio reads and writes CLI inputs and outputs, decompressing and
// compressing .xz and .gz files transparently. The path "-" means stdin or
// stdout.
package fileio

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Stdio is the path that selects stdin or stdout.
const Stdio = "-"

// Compression identifies a file's compression by suffix.
type Compression int

const (
	// None is an uncompressed file.
	None Compression = iota
	// XZ is an .xz file.
	XZ
	// Gzip is a .gz file.
	Gzip
)

// CompressionOf returns the compression implied by path's suffix.
func CompressionOf(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".xz"):
		return XZ
	case strings.HasSuffix(path, ".gz"):
		return Gzip
	}
	return None
}

// readCloser closes a decompressor and the file beneath it.
type readCloser struct {
	io.Reader
	file         io.Closer
	decompressor io.Closer
}

// Close closes the reader and any underlying decompressors.
func (r *readCloser) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Open opens path for reading, decompressing by suffix.
func Open(path string) (io.ReadCloser, error) {
	if path == Stdio {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	switch CompressionOf(path) {
	case XZ:
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		// xz reader doesn't need closing
		return &readCloser{Reader: xzr, file: f}, nil
	case Gzip:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return &readCloser{Reader: gzr, file: f, decompressor: gzr}, nil
	}
	return f, nil
}

// ReadFile reads the whole of path.
func ReadFile(path string) ([]byte, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// WriteFile writes data to path, compressing by suffix. Parent directories
// are created as needed.
func WriteFile(path string, data []byte) error {
	if path == Stdio {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	var w io.WriteCloser
	switch CompressionOf(path) {
	case XZ:
		xzw, err := xz.NewWriter(outFile)
		if err != nil {
			return fmt.Errorf("xz writer: %w", err)
		}
		w = xzw
	case Gzip:
		w = gzip.NewWriter(outFile)
	}

	if w == nil {
		if _, err := outFile.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return outFile.Close()
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return outFile.Close()
}
