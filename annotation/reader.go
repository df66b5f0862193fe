package annotation

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"strconv"
	"unsafe"

	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
)

const defaultElement = "blacklist"

// FeatureReader reads features from a BED stream. Plain, gzip and bzip2 inputs are accepted.
type FeatureReader struct {
	r    *bufio.Reader
	line int
}

// NewFeatureReader returns a FeatureReader for r.
func NewFeatureReader(r io.Reader) (*FeatureReader, error) {
	br, err := buffReader(r)
	if err != nil {
		return nil, err
	}
	return &FeatureReader{r: br}, nil
}

// CheckBytes peeks at a buffered stream and checks if the first read bytes match.
func CheckBytes(b *bufio.Reader, buf []byte) (bool, error) {
	m, err := b.Peek(len(buf))
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	for i := range buf {
		if m[i] != buf[i] {
			return false, nil
		}
	}
	return true, nil
}

// isGzip returns true if the buffered Reader has the gzip magic
func isGzip(b *bufio.Reader) (bool, error) {
	return CheckBytes(b, []byte{0x1f, 0x8b})
}

// isBzip2 returns true if the buffered Reader has the bzip2 magic
func isBzip2(b *bufio.Reader) (bool, error) {
	return CheckBytes(b, []byte{0x42, 0x5a, 0x68})
}

func buffReader(r io.Reader) (*bufio.Reader, error) {
	br := bufio.NewReader(r)
	if isGz, err := isGzip(br); err != nil {
		return nil, err
	} else if isGz {
		rdr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return bufio.NewReader(rdr), nil
	}
	if isBz, err := isBzip2(br); err != nil {
		return nil, err
	} else if isBz {
		return bufio.NewReader(bzip2.NewReader(br)), nil
	}
	return br, nil
}

// This function cannot be used to create strings that are expected to persist.
func unsafeString(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

func skip(line []byte) bool {
	if len(line) == 0 {
		return true
	}
	for _, prefix := range [][]byte{{'#'}, []byte("track"), []byte("browser")} {
		if bytes.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func parseInterval(b, e []byte) (begin, end float64, err error) {
	begin, err = strconv.ParseFloat(unsafeString(b), 64)
	if err != nil {
		return
	}
	end, err = strconv.ParseFloat(unsafeString(e), 64)
	return
}

func parseFeature(chr, element []byte, begin, end float64) (*Feature, error) {
	loc := rtreego.Point{begin}
	size := end - begin
	rect, err := rtreego.NewRect(loc, []float64{size})
	if err != nil {
		return nil, err
	}
	return NewFeature(chr, element, rect), nil
}

// Read returns the next feature. Empty intervals are skipped. io.EOF is returned at the end of the stream.
func (r *FeatureReader) Read() (*Feature, error) {
	for {
		line, err := r.r.ReadBytes('\n')
		if err != nil && (err != io.EOF || len(line) == 0) {
			return nil, err
		}
		r.line++
		line = bytes.TrimSpace(line)
		if skip(line) {
			if err == io.EOF {
				return nil, err
			}
			continue
		}
		fields := bytes.Split(line, []byte{'\t'})
		if len(fields) < 3 {
			return nil, errors.Errorf("line %d: expected at least 3 BED fields, got %d", r.line, len(fields))
		}
		s, e, perr := parseInterval(fields[1], fields[2])
		if perr != nil {
			return nil, errors.Wrapf(perr, "line %d", r.line)
		}
		if e <= s {
			continue
		}
		element := []byte(defaultElement)
		if len(fields) > 3 && len(fields[3]) > 0 {
			element = append([]byte(nil), fields[3]...)
		}
		return parseFeature(append([]byte(nil), fields[0]...), element, s, e)
	}
}
