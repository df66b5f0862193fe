package sam

import (
	"github.com/biogo/hts/sam"
	"github.com/guigolab/bamfingerprint/config"
)

// Record wraps a sam.Record with the predicates used by the read counter.
type Record struct {
	*sam.Record
}

// NewRecord returns a new Record wrapping r.
func NewRecord(r *sam.Record) *Record {
	return &Record{r}
}

func (r *Record) IsPrimary() bool {
	return r.Flags&sam.Secondary == 0
}

func (r *Record) IsUnmapped() bool {
	return r.Flags&sam.Unmapped == sam.Unmapped
}

func (r *Record) IsPaired() bool {
	return r.Flags&sam.Paired == sam.Paired
}

func (r *Record) IsProperlyPaired() bool {
	return r.Flags&sam.ProperPair == sam.ProperPair
}

func (r *Record) IsRead1() bool {
	return r.Flags&sam.Read1 == sam.Read1
}

func (r *Record) IsRead2() bool {
	return r.Flags&sam.Read2 == sam.Read2
}

func (r *Record) IsReverse() bool {
	return r.Flags&sam.Reverse == sam.Reverse
}

func (r *Record) HasMateUnmapped() bool {
	return r.Flags&sam.MateUnmapped == sam.MateUnmapped
}

func (r *Record) IsDuplicate() bool {
	return r.Flags&sam.Duplicate == sam.Duplicate
}

func (r *Record) IsQCFail() bool {
	return r.Flags&sam.QCFail == sam.QCFail
}

// HasMateOnSameRef returns true if the mate is mapped to the reference of r.
func (r *Record) HasMateOnSameRef() bool {
	if r.HasMateUnmapped() || r.Ref == nil || r.MateRef == nil {
		return false
	}
	return r.Ref.ID() == r.MateRef.ID()
}

// Passes reports whether r is kept by the mapping quality and SAM flag filters.
func (r *Record) Passes(f config.Filters) bool {
	if r.IsUnmapped() || r.Ref == nil {
		return false
	}
	if int(r.MapQ) < f.MinMappingQuality {
		return false
	}
	flags := int(r.Flags)
	if f.SamFlagInclude > 0 && flags&f.SamFlagInclude != f.SamFlagInclude {
		return false
	}
	if f.SamFlagExclude > 0 && flags&f.SamFlagExclude != 0 {
		return false
	}
	return true
}

// Fragment returns the half-open reference interval covered by the sequenced fragment of r.
//
// Properly paired reads use the template when extendPairedEnds is set. Other
// reads shorter than fragmentLength are extended in their strand direction.
// With center set, the interval is shrunk to the aligned read length around
// the fragment middle.
func (r *Record) Fragment(fragmentLength int, extendPairedEnds, center bool) (start, end int) {
	start, end = r.Pos, r.End()
	readLen := end - start
	switch {
	case extendPairedEnds && r.IsPaired() && r.IsProperlyPaired() && r.HasMateOnSameRef() && r.TempLen != 0:
		if r.TempLen > 0 {
			start, end = r.Pos, r.Pos+r.TempLen
		} else {
			start, end = r.MatePos, r.MatePos-r.TempLen
		}
	case fragmentLength > readLen:
		if r.IsReverse() {
			start = end - fragmentLength
		} else {
			end = start + fragmentLength
		}
	}
	if center {
		middle := end - (end-start)/2
		start = middle - readLen/2
		end = start + readLen
	}
	if start < 0 {
		start = 0
	}
	return
}

// DuplicateKey identifies reads counted once when duplicates are ignored.
type DuplicateKey struct {
	Pos, MatePos int
	Reverse      bool
}

// DuplicateKey returns the key of r. Reads sharing start, strand and mate start have the same key.
func (r *Record) DuplicateKey() DuplicateKey {
	k := DuplicateKey{Pos: r.Pos, MatePos: -1, Reverse: r.IsReverse()}
	if r.IsPaired() {
		k.MatePos = r.MatePos
	}
	return k
}
