package annotation

// Location is a half-open genomic interval.
type Location struct {
	chrom      string
	start, end float64
}

func NewLocation(chrom string, start, end float64) *Location {
	return &Location{chrom, start, end}
}

func (s *Location) Start() float64 {
	return s.start
}
func (s *Location) End() float64 {
	return s.end
}

// Overlaps returns true if loc and f share at least one base.
func (loc *Location) Overlaps(f *Feature) bool {
	return loc.chrom == f.Chr() && loc.start < f.End() && f.Start() < loc.end
}
