package bamfingerprint

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/require"
)

type testRef struct {
	name   string
	length int
}

type testRead struct {
	ref, pos, length int
	mapQ             byte
	flags            sam.Flags
	matePos, tLen    int
}

var testRefs = []testRef{{"chr1", 1000}, {"chr2", 500}}

// writeBam writes a coordinate sorted BAM file with the given reads, and its index unless noIndex is set.
func writeBam(t *testing.T, dir, name string, refs []testRef, reads []testRead, noIndex bool) string {
	t.Helper()
	references := make([]*sam.Reference, len(refs))
	for i, r := range refs {
		ref, err := sam.NewReference(r.name, "", "", r.length, nil, nil)
		require.NoError(t, err)
		references[i] = ref
	}
	h, err := sam.NewHeader(nil, references)
	require.NoError(t, err)
	h.SortOrder = sam.Coordinate

	fname := filepath.Join(dir, name)
	f, err := os.Create(fname)
	require.NoError(t, err)
	w, err := bam.NewWriter(f, h, 1)
	require.NoError(t, err)
	for i, r := range reads {
		ref := references[r.ref]
		var mate *sam.Reference
		matePos := -1
		if r.flags&sam.Paired != 0 {
			mate, matePos = ref, r.matePos
		}
		rec, err := sam.NewRecord(
			fmt.Sprintf("read%d", i), ref, mate, r.pos, matePos, r.tLen, r.mapQ,
			[]sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, r.length)},
			bytes.Repeat([]byte{'A'}, r.length), bytes.Repeat([]byte{30}, r.length), nil,
		)
		require.NoError(t, err)
		rec.Flags = r.flags
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	if noIndex {
		return fname
	}

	f, err = os.Open(fname)
	require.NoError(t, err)
	br, err := bam.NewReader(f, 1)
	require.NoError(t, err)
	var idx bam.Index
	for {
		rec, err := br.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.NoError(t, idx.Add(rec, br.LastChunk()))
	}
	require.NoError(t, br.Close())
	require.NoError(t, f.Close())

	bf, err := os.Create(fname + ".bai")
	require.NoError(t, err)
	require.NoError(t, bam.WriteIndex(bf, &idx))
	require.NoError(t, bf.Close())
	return fname
}

// testBams writes the two BAM files used by the counter tests.
//
// treatment.bam: single-end forward reads on chr1 at 10, 20, 80, 150, 420 and on chr2 at 100.
// control.bam: reads on chr1 at 500 (mapq 0), 510, 510 (duplicate) and 700 (reverse).
func testBams(t *testing.T) (string, string) {
	dir := t.TempDir()
	treatment := writeBam(t, dir, "treatment.bam", testRefs, []testRead{
		{ref: 0, pos: 10, length: 50, mapQ: 30},
		{ref: 0, pos: 20, length: 50, mapQ: 30},
		{ref: 0, pos: 80, length: 50, mapQ: 30},
		{ref: 0, pos: 150, length: 50, mapQ: 30},
		{ref: 0, pos: 420, length: 50, mapQ: 30},
		{ref: 1, pos: 100, length: 50, mapQ: 30},
	}, false)
	control := writeBam(t, dir, "control.bam", testRefs, []testRead{
		{ref: 0, pos: 500, length: 50, mapQ: 0},
		{ref: 0, pos: 510, length: 50, mapQ: 30},
		{ref: 0, pos: 510, length: 50, mapQ: 30, flags: sam.Duplicate},
		{ref: 0, pos: 700, length: 50, mapQ: 30, flags: sam.Reverse},
	}, false)
	return treatment, control
}
