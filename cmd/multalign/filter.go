package main

import (
	"github.com/biogo/hts/sam"
)

// isUsable reports whether a record can take part in a pileup: it has to
// be a mapped primary alignment that passed QC.
func isUsable(record *sam.Record, keepDups bool) bool {
	flags := record.Flags

	if flags&sam.Unmapped != 0 {
		return false
	}
	if flags&(sam.Secondary|sam.Supplementary) != 0 {
		return false
	}
	if flags&sam.QCFail != 0 {
		return false
	}
	if flags&sam.Duplicate != 0 && !keepDups {
		return false
	}
	if record.Ref == nil || len(record.Cigar) == 0 {
		return false
	}
	return true
}

// auxValue returns a numeric aux field as float64, ok false for missing or
// non numeric fields.
func auxValue(aux sam.Aux) (float64, bool) {
	if aux == nil {
		return 0, false
	}
	switch v := aux.Value().(type) {
	case int8:
		return float64(v), true
	case uint8:
		return float64(v), true
	case int16:
		return float64(v), true
	case uint16:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint32:
		return float64(v), true
	case int:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// recordWeight reads the multiplicity of a record from tag, 1 when the tag
// is unset or the field is missing or not positive.
func recordWeight(record *sam.Record, tag *sam.Tag) float64 {
	if tag == nil {
		return 1
	}
	w, ok := auxValue(record.AuxFields.Get(*tag))
	if !ok || w <= 0 {
		return 1
	}
	return w
}

func getMappingOri(rec *sam.Record) string {
	if rec.Flags&sam.Reverse == 0 {
		return "+"
	}
	return "-"
}
