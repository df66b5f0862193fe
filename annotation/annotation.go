// Package annotation indexes genomic intervals, such as blacklisted regions, for overlap queries.
package annotation

import (
	"math"
	"os"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type tree struct {
	chr  string
	tree *rtreego.Rtree
}

// RtreeMap is a map of pointers to Rtree with string keys.
type RtreeMap map[string]*rtreego.Rtree

// Get returns the pointer to the Rtree of the specified chromosome, or nil if not present.
func (t RtreeMap) Get(chr string) *rtreego.Rtree {
	v, ok := t[chr]
	if ok {
		return v
	}
	return nil
}

// Len returns the number of elements in the map.
func (t RtreeMap) Len() int {
	return len(t)
}

// Overlaps returns true if [start, end) on chr overlaps an indexed feature.
func (t RtreeMap) Overlaps(chr string, start, end int) bool {
	index := t.Get(chr)
	if index == nil || end <= start {
		return false
	}
	loc := NewLocation(chr, float64(start), float64(end))
	for _, s := range QueryIndex(index, loc.Start(), loc.End()) {
		if loc.Overlaps(s.(*Feature)) {
			return true
		}
	}
	return false
}

func mergeIntervals(intervals []*Feature) []*Feature {
	if len(intervals) == 0 {
		return nil
	}
	sort.Sort(FeatureSlice(intervals))
	var out []*Feature
	x := intervals[0]
	for _, f := range intervals[1:] {
		if f.Start() <= x.End() {
			end := math.Max(f.End(), x.End())
			rect, err := rtreego.NewRect(rtreego.Point{x.Start()}, []float64{end - x.Start()})
			if err != nil {
				log.Panic(err)
			}
			x.SetBounds(rect)
			continue
		}
		out = append(out, x)
		x = f
	}
	return append(out, x)
}

func createTree(trees chan<- *tree, chr string, feats []*Feature, wg *sync.WaitGroup) {
	defer wg.Done()
	merged := mergeIntervals(feats)
	items := make([]rtreego.Spatial, len(merged))
	for i, f := range merged {
		items[i] = f
	}
	log.WithFields(log.Fields{
		"Reference": chr,
		"Intervals": len(items),
	}).Debug("Indexing intervals")
	trees <- &tree{chr, rtreego.NewTree(1, 25, 50, items...)}
}

// CreateIndex creates the Rtree indices for the specified BED file. It builds a Rtree
// for each chromosome and returns a RtreeMap having the chromosome names as keys.
// Overlapping intervals are merged.
func CreateIndex(bedFile string) (*RtreeMap, error) {
	f, err := os.Open(bedFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner, err := NewScanner(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", bedFile)
	}
	index, err := createIndex(scanner)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", bedFile)
	}
	return index, nil
}

func createIndex(scanner *Scanner) (*RtreeMap, error) {
	regions := make(map[string][]*Feature)
	for scanner.Next() {
		feature := scanner.Feat()
		regions[feature.Chr()] = append(regions[feature.Chr()], feature)
	}
	if err := scanner.Error(); err != nil {
		return nil, err
	}

	treeChan := make(chan *tree, len(regions))
	var wg sync.WaitGroup
	for chr, feats := range regions {
		wg.Add(1)
		go createTree(treeChan, chr, feats, &wg)
	}
	wg.Wait()
	close(treeChan)

	trees := make(RtreeMap)
	for t := range treeChan {
		trees[t.chr] = t.tree
	}
	return &trees, nil
}

// QueryIndex perform a SearchIntersect on the specified index given a start and end position.
func QueryIndex(index *rtreego.Rtree, begin, end float64) []rtreego.Spatial {
	size := end - begin
	// Create the bounding box for the query:
	bb, err := rtreego.NewRect(rtreego.Point{begin}, []float64{size})
	if err != nil {
		return nil
	}

	// Get a slice of the objects in rt that intersect bb:
	return index.SearchIntersect(bb)
}
