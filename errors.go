package multalign

import "errors"

var (
	// ErrParse is returned for a malformed CIGAR token or an unsupported operation.
	ErrParse = errors.New("multalign: cigar parse error")
	// ErrLengthMismatch is returned when the query is shorter than the CIGAR consumes.
	ErrLengthMismatch = errors.New("multalign: query length mismatch")
	// ErrOutOfRange is returned for reads reaching outside the reference.
	ErrOutOfRange = errors.New("multalign: read outside reference")
	// ErrInvalidRead is returned for internal read descriptions that break the read invariants.
	ErrInvalidRead = errors.New("multalign: invalid read")
	// ErrReferenceUnavailable is returned when the sequence provider cannot resolve an accession.
	ErrReferenceUnavailable = errors.New("multalign: reference unavailable")
	ErrInvalidParams        = errors.New("multalign: invalid parameters")
)
