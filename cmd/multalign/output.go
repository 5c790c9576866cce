package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/brentp/vcfgo"
	log "github.com/sirupsen/logrus"

	"github.com/balanur/multalign"
)

// vcfRecord is a variation spelled the VCF way: 1-based position and
// alleles padded with an anchor base when one of them would be empty.
type vcfRecord struct {
	Pos     int
	Ref     string
	Alt     []string
	RefSup  float64
	AltSups []float64
}

// toVcf lays a variation over chr. Alternatives are ordered by support,
// heaviest first.
func toVcf(chr []byte, v multalign.Variation) vcfRecord {
	refAllele := strings.ToUpper(string(chr[v.Range.Start:v.Range.End]))
	var alts []string
	for allele := range v.Alleles {
		if allele != refAllele {
			alts = append(alts, allele)
		}
	}
	sort.Slice(alts, func(i, j int) bool {
		if v.Alleles[alts[i]] != v.Alleles[alts[j]] {
			return v.Alleles[alts[i]] > v.Alleles[alts[j]]
		}
		return alts[i] < alts[j]
	})

	rec := vcfRecord{Pos: v.Range.Start + 1, Ref: refAllele, RefSup: v.Alleles[refAllele]}
	for _, a := range alts {
		rec.Alt = append(rec.Alt, a)
		rec.AltSups = append(rec.AltSups, v.Alleles[a])
	}

	anchored := refAllele == ""
	for _, a := range alts {
		if a == "" {
			anchored = true
		}
	}
	if !anchored || (v.Range.Start == 0 && v.Range.End >= len(chr)) {
		return rec
	}
	if v.Range.Start > 0 {
		anchor := strings.ToUpper(string(chr[v.Range.Start-1]))
		rec.Pos--
		rec.Ref = anchor + rec.Ref
		for i := range rec.Alt {
			rec.Alt[i] = anchor + rec.Alt[i]
		}
		return rec
	}
	anchor := strings.ToUpper(string(chr[v.Range.End]))
	rec.Ref += anchor
	for i := range rec.Alt {
		rec.Alt[i] += anchor
	}
	return rec
}

func newVcfHeader() *vcfgo.Header {
	h := vcfgo.NewHeader()
	h.FileFormat = "4.2"
	h.Infos["DP"] = &vcfgo.Info{Id: "DP", Number: "1", Type: "Float", Description: "Weight of reads crossing the variation"}
	h.Infos["RS"] = &vcfgo.Info{Id: "RS", Number: "1", Type: "Float", Description: "Weight of reads supporting the reference allele"}
	h.Infos["AS"] = &vcfgo.Info{Id: "AS", Number: "A", Type: "Float", Description: "Weight of reads supporting each alternate allele"}
	h.Infos["SVLEN"] = &vcfgo.Info{Id: "SVLEN", Number: "1", Type: "Integer", Description: "Reference bases spanned by the variation"}
	return h
}

func writeVcf(fileName string, results []*regionResult) error {
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer f.Close()

	h := newVcfHeader()
	writer, err := vcfgo.NewWriter(f, h)
	if err != nil {
		return err
	}

	count := 0
	for _, result := range results {
		for _, v := range result.variations {
			rec := toVcf(result.ref, v)
			if len(rec.Alt) == 0 {
				continue
			}
			sups := make([]string, len(rec.AltSups))
			for i, s := range rec.AltSups {
				sups[i] = strconv.FormatFloat(s, 'g', 4, 64)
			}
			info := "DP=" + strconv.FormatFloat(v.TotalCross, 'g', 4, 64) +
				";RS=" + strconv.FormatFloat(rec.RefSup, 'g', 4, 64) +
				";AS=" + strings.Join(sups, ",") +
				";SVLEN=" + strconv.Itoa(v.Range.Len())
			variant := &vcfgo.Variant{
				Chromosome: result.region.Chromosome,
				Pos:        uint64(rec.Pos),
				Id_:        ".",
				Reference:  rec.Ref,
				Alternate:  rec.Alt,
				Quality:    float32(v.AcceptedCross),
				Filter:     "PASS",
				Header:     h,
			}
			variant.Info_ = vcfgo.NewInfoByte([]byte(info), h)
			writer.WriteVariant(variant)
			count++
		}
	}
	log.Infof("wrote %d variations to %s", count, fileName)
	return nil
}

// writeCorrectedBam writes the selected reads of every region realigned
// against the consensus, sorted by position within each region.
func writeCorrectedBam(fileName string, header *sam.Header, results []*regionResult) error {
	g, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer g.Close()

	bamWriter, err := bam.NewWriter(g, header, *threads)
	if err != nil {
		return err
	}

	for _, result := range results {
		corrected := append([]multalign.CorrectedRead(nil), result.corrected...)
		sort.SliceStable(corrected, func(i, j int) bool { return corrected[i].Pos < corrected[j].Pos })
		for _, c := range corrected {
			orig := result.records[c.Index]
			rec, err := sam.NewRecord(orig.Name, orig.Ref, orig.MateRef, c.Pos, orig.MatePos, orig.TempLen, orig.MapQ, c.Cigar, c.Seq, nil, orig.AuxFields)
			if err != nil {
				return fmt.Errorf("%s: %v", orig.Name, err)
			}
			rec.Flags = orig.Flags
			if err := bamWriter.Write(rec); err != nil {
				return err
			}
		}
	}
	return bamWriter.Close()
}

// writeCorrections reports every base the consensus overrode, one per line:
// region, read, strand, 1-based position, read symbol, consensus symbol.
func writeCorrections(filePath string, results []*regionResult) error {
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	for _, result := range results {
		for _, c := range result.corrected {
			rec := result.records[c.Index]
			for _, fix := range c.Corrections {
				writer.WriteString(result.region.id + "\t" + rec.Name + "\t" + getMappingOri(rec) + "\t" +
					strconv.Itoa(fix.Pos+1) + "\t" + string(fix.From) + "\t" + string(fix.To) + "\n")
			}
		}
	}
	return writer.Flush()
}
