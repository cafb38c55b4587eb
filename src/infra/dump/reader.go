package dump

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	gzip "github.com/klauspost/pgzip"
)

// Dump files carry one JSON payload per line. Payloads of a few hundred KB
// show up in real dumps, so the scanner buffer cap is generous.
const (
	initialBufferSize = 64 * 1024
	maxLineSize       = 16 * 1024 * 1024
)

// Reader streams a dump file line by line without loading it into memory.
// Files ending in .gz are decompressed on the fly. A Reader is not safe for
// concurrent use; reading the same file twice means opening a new Reader.
type Reader struct {
	path    string
	file    *os.File
	gz      *gzip.Reader
	scanner *bufio.Scanner

	line   string
	lineNo int64
	err    error
}

// Open opens the dump file at path for sequential reading. A missing or
// unreadable file surfaces here, not on the first Scan.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}

	reader := &Reader{path: path, file: file}

	var source io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("Open: gzip header: %w", err)
		}
		reader.gz = gz
		source = gz
	}

	scanner := bufio.NewScanner(source)
	scanner.Buffer(make([]byte, initialBufferSize), maxLineSize)
	reader.scanner = scanner

	return reader, nil
}

// Scan advances to the next line. It returns false when the file is
// exhausted or a read fails; Err tells the two apart.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}

	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			r.err = fmt.Errorf("Scan: line %d: %w", r.lineNo+1, err)
		}
		return false
	}

	r.line = r.scanner.Text()
	r.lineNo++
	return true
}

// Text returns the line produced by the last successful Scan, without the
// trailing newline.
func (r *Reader) Text() string {
	return r.line
}

// LineNo returns the 1-based number of the line produced by the last
// successful Scan.
func (r *Reader) LineNo() int64 {
	return r.lineNo
}

// Err returns the first read error hit by Scan. It is nil after a clean
// end of file.
func (r *Reader) Err() error {
	return r.err
}

// Path returns the path the Reader was opened with.
func (r *Reader) Path() string {
	return r.path
}

func (r *Reader) Close() error {
	if r.gz != nil {
		if err := r.gz.Close(); err != nil {
			r.file.Close()
			return fmt.Errorf("Close: gzip: %w", err)
		}
	}

	if err := r.file.Close(); err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}
