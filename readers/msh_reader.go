package readers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Gmsh 2 ASCII section markers
const (
	MeshFormat       = "$MeshFormat"
	EndMeshFormat    = "$EndMeshFormat"
	PhysicalNames    = "$PhysicalNames"
	EndPhysicalNames = "$EndPhysicalNames"
	Nodes            = "$Nodes"
	EndNodes         = "$EndNodes"
	Elements         = "$Elements"
	EndElements      = "$EndElements"
)

// Largest record the scanner accepts. A 125 node hexahedron with large tags is
// well under this.
const maxLineSize = 1 << 20

// Source is anything that can be read sequentially from the top, as many times
// as needed. Each call to Open starts a fresh pass.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type fileSource string

// FileSource returns a Source reading the named file
func FileSource(path string) Source { return fileSource(path) }

func (fs fileSource) Name() string { return string(fs) }

func (fs fileSource) Open() (io.ReadCloser, error) { return os.Open(string(fs)) }

type stringSource struct {
	name, text string
}

// StringSource serves text from memory, mostly useful in tests
func StringSource(name, text string) Source { return &stringSource{name: name, text: text} }

func (ss *stringSource) Name() string { return ss.name }

func (ss *stringSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(ss.text)), nil
}

// FormatError is returned when the input can not be read as a Gmsh 2 file: a
// marker is never found or a count line is not a non-negative integer.
type FormatError struct {
	Source string
	Line   int
	Err    error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Reader is a forward only cursor over a Source. It knows nothing about the
// meaning of records; it finds markers, reads counts and hands out lines.
type Reader struct {
	src Source
	rc  io.ReadCloser
	scn *bufio.Scanner
	lno int
}

// NewReader opens src and positions the cursor before its first line
func NewReader(src Source) (*Reader, error) {
	rd := &Reader{src: src}
	if err := rd.Rewind(); err != nil {
		return nil, err
	}
	return rd, nil
}

func (rd *Reader) Name() string { return rd.src.Name() }

// Line is the number of the last line handed out, 1 based
func (rd *Reader) Line() int { return rd.lno }

// Rewind closes the current pass, if any, and reopens the source at the top
func (rd *Reader) Rewind() error {
	rd.Release()
	rc, err := rd.src.Open()
	if err != nil {
		return err
	}
	rd.rc = rc
	rd.scn = bufio.NewScanner(rc)
	rd.scn.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	rd.lno = 0
	return nil
}

// Release closes the underlying handle. The reader can be reused after Rewind.
func (rd *Reader) Release() error {
	rd.scn = nil
	if rd.rc == nil {
		return nil
	}
	err := rd.rc.Close()
	rd.rc = nil
	return err
}

func (rd *Reader) Close() error { return rd.Release() }

// Next returns the next raw line. io.EOF is returned at the end of input.
func (rd *Reader) Next() (string, error) {
	if rd.scn == nil {
		return "", rd.errorf("read after release")
	}
	if !rd.scn.Scan() {
		if err := rd.scn.Err(); err != nil {
			return "", &FormatError{Source: rd.Name(), Line: rd.lno + 1, Err: err}
		}
		return "", io.EOF
	}
	rd.lno++
	return rd.scn.Text(), nil
}

// Skip advances over n lines without looking at them
func (rd *Reader) Skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := rd.Next(); err != nil {
			if err == io.EOF {
				return rd.errorf("unexpected end of input, %d of %d lines skipped", i, n)
			}
			return err
		}
	}
	return nil
}

// LocateSection advances until a line containing marker has been consumed
func (rd *Reader) LocateSection(marker string) error {
	_, err := rd.LocateAny(marker)
	return err
}

// LocateAny advances until a line contains one of the markers and returns the
// marker that matched. Earlier markers in the list win when a line holds more
// than one.
func (rd *Reader) LocateAny(markers ...string) (string, error) {
	for {
		line, err := rd.Next()
		if err == io.EOF {
			return "", &FormatError{
				Source: rd.Name(),
				Err:    fmt.Errorf("end of input before %s", strings.Join(markers, " or ")),
			}
		}
		if err != nil {
			return "", err
		}
		for _, m := range markers {
			if IsMarker(line, m) {
				return m, nil
			}
		}
	}
}

// ReadCount reads the next line as a non-negative decimal count
func (rd *Reader) ReadCount() (int, error) {
	line, err := rd.Next()
	if err == io.EOF {
		return 0, rd.errorf("end of input, count line expected")
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, rd.errorf("invalid count line %q", line)
	}
	if n < 0 {
		return 0, rd.errorf("negative count %d", n)
	}
	return n, nil
}

func (rd *Reader) errorf(format string, args ...interface{}) error {
	return &FormatError{Source: rd.Name(), Line: rd.lno, Err: fmt.Errorf(format, args...)}
}

// IsMarker reports whether line carries the section marker m. Matching is by
// containment so trailing whitespace or CR line endings do not matter.
func IsMarker(line, m string) bool {
	return strings.Contains(line, m)
}
