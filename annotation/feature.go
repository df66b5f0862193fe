package annotation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dhconnelly/rtreego"
)

// FeatureSlice represents a slice of Feature, sortable by chromosome and start position
type FeatureSlice []*Feature

func (s FeatureSlice) Len() int {
	return len(s)
}
func (s FeatureSlice) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}
func (s FeatureSlice) Less(i, j int) bool {
	if ci, cj := s[i].Chr(), s[j].Chr(); ci != cj {
		return chrLess(ci, cj)
	}
	return s[i].Start() < s[j].Start()
}

// chrLess orders numbered chromosomes numerically, before the named ones.
func chrLess(a, b string) bool {
	na, erra := strconv.Atoi(strings.TrimPrefix(a, "chr"))
	nb, errb := strconv.Atoi(strings.TrimPrefix(b, "chr"))
	switch {
	case erra == nil && errb == nil:
		return na < nb
	case erra == nil:
		return true
	case errb == nil:
		return false
	}
	return a < b
}

// Feature represents a blacklisted interval.
type Feature struct {
	location     *rtreego.Rect
	chr, element []byte
}

// Chr returns the chromosome of the feature
func (f *Feature) Chr() string {
	return string(f.chr)
}

// Start returns the start position of the feature
func (f *Feature) Start() float64 {
	return f.location.PointCoord(0)
}

// End returns the end position of the feature
func (f *Feature) End() float64 {
	return f.location.LengthsCoord(0) + f.Start()
}

// Element returns the name of the feature
func (f *Feature) Element() string {
	return string(f.element)
}

// Bounds returns the location of the feature. It is used within the Rtree.
func (f *Feature) Bounds() *rtreego.Rect {
	return f.location
}

// SetBounds set a new location of the feature
func (f *Feature) SetBounds(newLocation *rtreego.Rect) {
	f.location = newLocation
}

// String returns the string representation of a Feature
func (f *Feature) String() string {
	return fmt.Sprintf("%s:%.0f-%.0f:%s", f.Chr(), f.Start(), f.End(), f.Element())
}

// NewFeature returns a new instance of a Feature
func NewFeature(chr []byte, element []byte, rect *rtreego.Rect) *Feature {
	return &Feature{
		rect,
		chr,
		element,
	}
}
