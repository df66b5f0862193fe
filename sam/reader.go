package sam

import (
	"os"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf/index"
	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Reader is an indexed BAM reader.
type Reader struct {
	*bam.Reader
	FileName string
	Index    *bam.Index
	Refs     []*sam.Reference
	refs     map[string]*sam.Reference
	f        *os.File
}

// NewReader opens bamFile and its index. rd is the number of decompression goroutines.
func NewReader(bamFile string, rd int) (*Reader, error) {
	f, err := os.Open(bamFile)
	if err != nil {
		return nil, err
	}
	br, err := bam.NewReader(f, rd)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "reading %s", bamFile)
	}
	bai, err := readIndex(bamFile)
	if err != nil {
		br.Close()
		f.Close()
		return nil, err
	}
	refs := br.Header().Refs()
	m := make(map[string]*sam.Reference, len(refs))
	for _, ref := range refs {
		m[ref.Name()] = ref
	}
	return &Reader{
		Reader:   br,
		FileName: bamFile,
		Index:    bai,
		Refs:     refs,
		refs:     m,
		f:        f,
	}, nil
}

// IndexFileName returns the path of the index of bamFile, trying <file>.bai
// and then the file name with the .bam extension replaced.
func IndexFileName(bamFile string) (string, error) {
	candidates := []string{bamFile + ".bai"}
	if strings.HasSuffix(bamFile, ".bam") {
		candidates = append(candidates, strings.TrimSuffix(bamFile, ".bam")+".bai")
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", errors.Errorf("no index found for %s, the bam file must be sorted and indexed", bamFile)
}

func readIndex(bamFile string) (*bam.Index, error) {
	fname, err := IndexFileName(bamFile)
	if err != nil {
		return nil, err
	}
	log.Debugf("Opening BAM index %s", fname)
	i, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer i.Close()
	bai, err := bam.ReadIndex(i)
	if err != nil {
		return nil, errors.Wrapf(err, "reading index %s", fname)
	}
	return bai, nil
}

// Ref returns the reference with the given name, or nil if the header has no such reference.
func (r *Reader) Ref(name string) *sam.Reference {
	return r.refs[name]
}

// Chunks returns the index chunks overlapping the interval [start, end) of the named reference.
// References or intervals without indexed records yield an empty RefChunk.
func (r *Reader) Chunks(name string, start, end int) (*RefChunk, error) {
	ref := r.Ref(name)
	if ref == nil {
		return nil, errors.Errorf("%s: reference %s not found", r.FileName, name)
	}
	chunks, err := r.Index.Chunks(ref, start, end)
	if err != nil {
		if err != index.ErrInvalid && err != index.ErrNoReference {
			return nil, errors.Wrapf(err, "%s: querying %s:%d-%d", r.FileName, name, start, end)
		}
		chunks = nil
	}
	return NewRefChunk(ref, start, end, chunks), nil
}

// Fetch returns an Iterator over the records in the index chunks of [start, end) of the named reference.
func (r *Reader) Fetch(name string, start, end int) (*Iterator, error) {
	data, err := r.Chunks(name, start, end)
	if err != nil {
		return nil, err
	}
	return NewIterator(r.Reader, data)
}

// Close closes the reader and the underlying file.
func (r *Reader) Close() error {
	err := r.Reader.Close()
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}
