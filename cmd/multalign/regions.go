package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/brentp/vcfgo"
)

// Region is a 0-based half-open stretch of one chromosome to call.
type Region struct {
	id         string
	Chromosome string
	Start      int
	End        int
}

func (r Region) String() string {
	return r.Chromosome + ":" + strconv.Itoa(r.Start+1) + "-" + strconv.Itoa(r.End)
}

type RegionStore struct {
	regionList []Region
	regionMap  map[string][]int
}

func NewRegionStore() RegionStore {
	var result RegionStore
	result.regionMap = make(map[string][]int)
	return result
}

func (store *RegionStore) add(region Region) {
	store.regionList = append(store.regionList, region)
	index := len(store.regionList) - 1
	store.regionMap[region.Chromosome] = append(store.regionMap[region.Chromosome], index)
}

func (store *RegionStore) get(index int) Region {
	return store.regionList[index]
}

func (store *RegionStore) len() int {
	return len(store.regionList)
}

// findIntersectingIntervals returns the regions of chrName sharing at least
// one base with [start, end).
func (store *RegionStore) findIntersectingIntervals(chrName string, start int, end int) []int {
	var result []int
	for _, i := range store.regionMap[chrName] {
		region := store.get(i)
		if start < region.End && region.Start < end {
			result = append(result, i)
		}
	}
	return result
}

// parseRegion reads chr:start-end, 1-based and inclusive. A bare chr means
// the whole chromosome and gets End -1.
func parseRegion(s string) (Region, error) {
	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		if s == "" {
			return Region{}, fmt.Errorf("empty region")
		}
		return Region{id: s, Chromosome: s, End: -1}, nil
	}
	chr, span := s[:colon], strings.ReplaceAll(s[colon+1:], ",", "")
	dash := strings.IndexByte(span, '-')
	if chr == "" || dash < 0 {
		return Region{}, fmt.Errorf("region %q: want chr:start-end", s)
	}
	start, err := strconv.Atoi(span[:dash])
	if err != nil {
		return Region{}, fmt.Errorf("region %q: %v", s, err)
	}
	end, err := strconv.Atoi(span[dash+1:])
	if err != nil {
		return Region{}, fmt.Errorf("region %q: %v", s, err)
	}
	if start < 1 || end < start {
		return Region{}, fmt.Errorf("region %q: bad span %d-%d", s, start, end)
	}
	return Region{id: s, Chromosome: chr, Start: start - 1, End: end}, nil
}

// regionList collects repeated -region flags.
type regionList []string

func (l *regionList) String() string { return strings.Join(*l, ",") }

func (l *regionList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

// readRegionsVcf turns each record of a VCF into a region spanning POS to
// END, widened by the CIPOS/CIEND confidence intervals and by pad.
func readRegionsVcf(fileName string, filter string, pad int, store *RegionStore) error {
	f, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer f.Close()

	rdr, err := vcfgo.NewReader(f, true)
	if err != nil {
		return fmt.Errorf("%s: %v", fileName, err)
	}

	for {
		variant := rdr.Read()
		if variant == nil {
			break
		}
		if !strings.Contains(variant.Id(), filter) {
			continue
		}
		var region Region
		region.id = variant.Id()
		region.Chromosome = variant.Chromosome
		region.Start = int(variant.Pos) - 1
		region.End = region.Start + len(variant.Reference)
		if end, err := variant.Info().Get("END"); err == nil {
			if v, ok := infoInt(end); ok && v > region.Start {
				region.End = v
			}
		}
		if ciPos, err := variant.Info().Get("CIPOS"); err == nil {
			if ci, ok := infoInts(ciPos); ok && len(ci) == 2 {
				region.Start += ci[0]
			}
		}
		if ciEnd, err := variant.Info().Get("CIEND"); err == nil {
			if ci, ok := infoInts(ciEnd); ok && len(ci) == 2 {
				region.End += ci[1]
			}
		}
		region.Start -= pad
		region.End += pad
		if region.Start < 0 {
			region.Start = 0
		}
		if region.id == "." || region.id == "" {
			region.id = region.String()
		}
		store.add(region)
	}
	return nil
}

func infoInt(v interface{}) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case []int:
		if len(v) == 1 {
			return v[0], true
		}
	}
	return 0, false
}

func infoInts(v interface{}) ([]int, bool) {
	switch v := v.(type) {
	case []int:
		return v, true
	case int:
		return []int{v}, true
	}
	return nil, false
}
