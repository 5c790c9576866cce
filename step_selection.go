package multalign

import "sort"

// isEdgeRead reports whether a read sticks out of region with too short a
// footprint inside it to be trusted. A region shorter than minEdgeLength
// only asks for full overlap.
func isEdgeRead(read *AlignedRead, region Range, minEdgeLength int) bool {
	if read.Range.Start >= region.Start && read.Range.End <= region.End {
		return false
	}
	return read.Overlap(region) < min(minEdgeLength, region.Len())
}

// selectReads picks the reads used for the consensus of region and returns
// their indices into reads, ordered by start. Reads are swept left to right,
// best identity then weight first at each start, and a read is dropped only
// when every position it covers already reached the coverage cap.
func selectReads(reads []*AlignedRead, region Range, params Params) []int {
	var candidates []int
	for i, read := range reads {
		if read.Overlap(region) == 0 {
			continue
		}
		if isEdgeRead(read, region, params.MinEdgeLength) {
			continue
		}
		candidates = append(candidates, i)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := reads[candidates[i]], reads[candidates[j]]
		if a.Range.Start != b.Range.Start {
			return a.Range.Start < b.Range.Start
		}
		if a.Identity != b.Identity {
			return a.Identity > b.Identity
		}
		return a.Weight > b.Weight
	})

	limit := params.selectionCap()
	if limit == 0 {
		return candidates
	}

	depth := make([]int32, region.Len())
	selected := candidates[:0]
	for _, i := range candidates {
		read := reads[i]
		start, end := read.Range.Start, read.Range.End
		if start < region.Start {
			start = region.Start
		}
		if end > region.End {
			end = region.End
		}
		needed := false
		for pos := start; pos < end; pos++ {
			if int(depth[pos-region.Start]) < limit {
				needed = true
				break
			}
		}
		if !needed {
			continue
		}
		for pos := start; pos < end; pos++ {
			depth[pos-region.Start]++
		}
		selected = append(selected, i)
	}
	return selected
}
