package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/sam"
	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/balanur/multalign"
)

// regionResult is everything reported for one region.
type regionResult struct {
	region     Region
	ref        []byte // whole chromosome
	offset     int    // chromosome position of the engine's first base
	records    []*sam.Record // in engine read order
	variations []multalign.Variation
	confirmed  []multalign.Range
	corrected  []multalign.CorrectedRead
	stats      multalign.Stats
	rejected   int
}

// clusterRecords reads the BAM once and hands every usable record to each
// region it intersects.
func clusterRecords(bamFilePath string, store *RegionStore) (map[int][]*sam.Record, *sam.Header, error) {
	f, err := os.Open(bamFilePath)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	if ok, err := bgzf.HasEOF(f); err != nil || !ok {
		return nil, nil, fmt.Errorf("could not open file %q: truncated or not bgzf (%v)", bamFilePath, err)
	}

	bamReader, err := bam.NewReader(f, *threads)
	if err != nil {
		return nil, nil, err
	}
	defer bamReader.Close()

	regionReadMap := make(map[int][]*sam.Record)
	readIndex, kept := 0, 0
	for {
		rec, err := bamReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error reading bam: %v", err)
		}
		readIndex++
		if readIndex%1000000 == 0 {
			log.Infof("read %s records, at %s %d", humanize.Comma(int64(readIndex)), rec.Ref.Name(), rec.Pos)
		}
		if !isUsable(rec, *keepDups) {
			continue
		}
		for _, regionIndex := range store.findIntersectingIntervals(rec.Ref.Name(), rec.Pos, rec.End()) {
			regionReadMap[regionIndex] = append(regionReadMap[regionIndex], rec)
			kept++
		}
	}
	log.Infof("%s of %s records fall in %d regions", humanize.Comma(int64(kept)), humanize.Comma(int64(readIndex)), len(regionReadMap))
	return regionReadMap, bamReader.Header(), nil
}

// callRegions runs one engine per region, at most *threads at a time.
func callRegions(ctx context.Context, store *RegionStore, clusters map[int][]*sam.Record, provider multalign.SequenceProvider, params multalign.Params, tag *sam.Tag) ([]*regionResult, error) {
	results := make([]*regionResult, store.len())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(*threads)
	for i := 0; i < store.len(); i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := callRegion(store.get(i), clusters[i], provider, params, tag)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// inRegion reports whether a variation belongs to target. Pure insertions
// sit before Range.Start, so one at target.Start is kept.
func inRegion(r, target multalign.Range) bool {
	if r.Empty() {
		return target.Start <= r.Start && r.Start < target.End
	}
	return r.Overlap(target) > 0
}

// callRegion runs the engine on the stretch of the chromosome covered by
// the region and its reads, then moves every result back to chromosome
// coordinates and drops what lies outside the region.
func callRegion(region Region, records []*sam.Record, provider multalign.SequenceProvider, params multalign.Params, tag *sam.Tag) (*regionResult, error) {
	chr, err := provider.Sequence(region.Chromosome)
	if errors.Is(err, multalign.ErrReferenceUnavailable) {
		log.Warnf("skipping region %s: %v", region.id, err)
		return &regionResult{region: region}, nil
	}
	if err != nil {
		return nil, err
	}
	offset, end := region.Start, region.End
	for _, rec := range records {
		if rec.Pos < offset {
			offset = rec.Pos
		}
		if rec.End() > end {
			end = rec.End()
		}
	}
	if offset < 0 {
		offset = 0
	}
	if end > len(chr) {
		end = len(chr)
	}
	if offset >= end {
		return nil, fmt.Errorf("%s: %w", region, multalign.ErrOutOfRange)
	}

	window := multalign.MapProvider{region.Chromosome: chr[offset:end]}
	engine, err := multalign.NewEngine(region.Chromosome, window, params)
	if err != nil {
		return nil, err
	}
	engine.Log = log.WithField("region", region.id)
	if err := engine.SetRegion(multalign.Range{Start: region.Start - offset, End: region.End - offset}); err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Pos < records[j].Pos })
	result := &regionResult{region: region, ref: chr, offset: offset}
	for _, rec := range records {
		shifted := *rec
		shifted.Pos -= offset
		if err := engine.AddRecord(&shifted, recordWeight(rec, tag)); err != nil {
			engine.Log.Warnf("skipping read: %v", err)
			result.rejected++
			continue
		}
		result.records = append(result.records, rec)
	}

	_, confirmed, err := engine.Variations()
	if err != nil {
		return nil, err
	}
	target := multalign.Range{Start: region.Start, End: region.End}
	for _, v := range engine.VariationList() {
		v.Range.Start += offset
		v.Range.End += offset
		if inRegion(v.Range, target) {
			result.variations = append(result.variations, v)
		}
	}
	for _, r := range confirmed {
		r.Start += offset
		r.End += offset
		if r.Start < target.Start {
			r.Start = target.Start
		}
		if r.End > target.End {
			r.End = target.End
		}
		if !r.Empty() {
			result.confirmed = append(result.confirmed, r)
		}
	}
	if *outBam != "" || *correctionsFile != "" {
		corrected, err := engine.GetVariationAlignList(*outBam == "")
		if err != nil {
			return nil, err
		}
		for _, c := range corrected {
			c.Pos += offset
			fixes := make([]multalign.Correction, len(c.Corrections))
			for k, fix := range c.Corrections {
				fix.Pos += offset
				fixes[k] = fix
			}
			c.Corrections = fixes
			result.corrected = append(result.corrected, c)
		}
	}

	result.stats = engine.Stats()
	engine.Log.WithFields(log.Fields{
		"reads":     result.stats.Reads,
		"selected":  result.stats.Selected,
		"variants":  len(result.variations),
		"confirmed": humanize.Comma(int64(result.stats.ConfirmedBases)),
	}).Info("called region")
	return result, nil
}
