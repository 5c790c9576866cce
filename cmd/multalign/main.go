package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/biogo/hts/sam"
	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/balanur/multalign"
)

var (
	refFile         = flag.String("ref", "", "reference fasta file")
	bamFile         = flag.String("bam", "", "bam input file")
	regionsVcf      = flag.String("regions", "", "vcf file of candidate regions (POS..END widened by CIPOS/CIEND)")
	regionsFilter   = flag.String("regions-filter", "", "only use -regions records whose ID contains this")
	pad             = flag.Int("pad", 0, "bases added on both sides of each -regions record")
	vcfFile         = flag.String("vcf", "", "vcf output file for the variations")
	outBam          = flag.String("out-bam", "", "bam output file for the corrected alignments")
	correctionsFile = flag.String("corrections", "", "tsv output file listing every corrected base")
	weightTag       = flag.String("weight-tag", "", "aux tag holding the multiplicity of a read")
	keepDups        = flag.Bool("keep-dups", false, "use reads flagged as duplicates")
	threads         = flag.Int("threads", 0, "number of threads to use (0 = auto)")
	verbose         = flag.Bool("v", false, "log every pipeline stage")
	help            = flag.Bool("help", false, "display help")

	minEdgeLength   = flag.Int("min-edge", multalign.DefaultMinEdgeLength, "minimum overlap of reads sticking out of a region")
	minCoverage     = flag.Int("min-coverage", multalign.DefaultMinCoverage, "minimum depth to call a column")
	maxCoverage     = flag.Int("max-coverage", multalign.DefaultMaxCoverage, "stop selecting reads past this depth (0 = keep all)")
	wordLength      = flag.Int("word", multalign.DefaultWordLength, "strong word length in columns")
	maxNs           = flag.Int("max-ns", multalign.DefaultMaxNs, "ambiguous columns allowed in a strong word")
	strongThreshold = flag.Float64("strong", multalign.DefaultStrongThreshold, "best symbol fraction of a solid column")
	minRelSupport   = flag.Float64("min-rel", multalign.DefaultMinRelativeSupport, "minimum fraction of crossing weight for an allele")
	minAbsSupport   = flag.Float64("min-abs", multalign.DefaultMinAbsoluteSupport, "minimum crossing weight of the dominant allele")
)

var regions regionList

func init() {
	flag.Var(&regions, "region", "region to call as chr:start-end, 1-based inclusive (repeatable)")
}

func paramsFromFlags() multalign.Params {
	return multalign.Params{
		MinEdgeLength:      *minEdgeLength,
		MinCoverage:        *minCoverage,
		MaxCoverage:        *maxCoverage,
		WordLength:         *wordLength,
		MaxNs:              *maxNs,
		StrongThreshold:    *strongThreshold,
		MinRelativeSupport: *minRelSupport,
		MinAbsoluteSupport: *minAbsSupport,
	}
}

// buildRegionStore gathers -region and -regions, resolving bare chromosome
// names to their full length.
func buildRegionStore(provider multalign.SequenceProvider) (RegionStore, error) {
	store := NewRegionStore()
	for _, s := range regions {
		region, err := parseRegion(s)
		if err != nil {
			return store, err
		}
		chr, err := provider.Sequence(region.Chromosome)
		if err != nil {
			return store, err
		}
		if region.End < 0 || region.End > len(chr) {
			region.End = len(chr)
		}
		if region.Start >= region.End {
			return store, fmt.Errorf("region %s: %w", s, multalign.ErrOutOfRange)
		}
		store.add(region)
	}
	if *regionsVcf != "" {
		if err := readRegionsVcf(*regionsVcf, *regionsFilter, *pad, &store); err != nil {
			return store, err
		}
	}
	return store, nil
}

func main() {
	flag.Parse()
	if *help || *refFile == "" || *bamFile == "" {
		flag.Usage()
		os.Exit(0)
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *threads <= 0 {
		*threads = runtime.NumCPU()
	}

	params := paramsFromFlags()
	if err := params.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	var tag *sam.Tag
	if *weightTag != "" {
		if len(*weightTag) != 2 {
			log.Fatalf("weight tag %q must be two characters", *weightTag)
		}
		t := sam.NewTag(*weightTag)
		tag = &t
	}

	provider, err := multalign.NewFastaProvider(*refFile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Infof("read %d sequences from %s", len(provider.Names()), *refFile)

	store, err := buildRegionStore(provider)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if store.len() == 0 {
		for _, name := range provider.Names() {
			chr, _ := provider.Sequence(name)
			store.add(Region{id: name, Chromosome: name, End: len(chr)})
		}
	}
	log.Infof("calling %d regions", store.len())

	clusters, header, err := clusterRecords(*bamFile, &store)
	if err != nil {
		log.Fatalf("%v", err)
	}

	results, err := callRegions(context.Background(), &store, clusters, provider, params, tag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var variants, confirmed, rejected int
	for _, result := range results {
		variants += len(result.variations)
		rejected += result.rejected
		for _, r := range result.confirmed {
			confirmed += r.Len()
		}
	}
	log.Infof("%s variations, %s confirmed bases, %s rejected reads",
		humanize.Comma(int64(variants)), humanize.Comma(int64(confirmed)), humanize.Comma(int64(rejected)))

	if *vcfFile != "" {
		if err := writeVcf(*vcfFile, results); err != nil {
			log.Fatalf("%v", err)
		}
	}
	if *outBam != "" {
		if err := writeCorrectedBam(*outBam, header, results); err != nil {
			log.Fatalf("%v", err)
		}
	}
	if *correctionsFile != "" {
		if err := writeCorrections(*correctionsFile, results); err != nil {
			log.Fatalf("%v", err)
		}
	}
}
