package sam

import "github.com/biogo/hts/bam"

// Iterator iterates over the records of a RefChunk.
type Iterator struct {
	*bam.Iterator
	Chr string
}

// NewIterator returns an Iterator over data. An empty RefChunk yields no records.
func NewIterator(br *bam.Reader, data *RefChunk) (*Iterator, error) {
	if data.Empty() {
		return &Iterator{nil, data.Ref.Name()}, nil
	}
	it, err := bam.NewIterator(br, data.Chunks)
	if err != nil {
		return nil, err
	}
	return &Iterator{it, data.Ref.Name()}, nil
}

// Next advances the iterator, skipping records mapped to another reference.
func (i *Iterator) Next() bool {
	if i.Iterator == nil {
		return false
	}
	for i.Iterator.Next() {
		if ref := i.Iterator.Record().Ref; ref != nil && ref.Name() == i.Chr {
			return true
		}
	}
	return false
}

// Record returns the current record.
func (i *Iterator) Record() *Record {
	return NewRecord(i.Iterator.Record())
}

// Close releases the iterator and returns the first iteration error.
func (i *Iterator) Close() error {
	if i.Iterator == nil {
		return nil
	}
	return i.Iterator.Close()
}
