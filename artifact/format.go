// Package artifact implements the single-file container for fitted models.
//
// An artifact bundles the posterior draws, the fit_data snapshot and the
// identity metadata attributes into one file. The format is self-describing:
// the header records the codec and compression that wrote the file, each
// section carries a CRC32 checksum, and unknown sections are skipped so the
// format can grow without breaking old readers.
package artifact

import "errors"

const (
	// MagicNumber identifies artifact files (ASCII: "BAY1").
	MagicNumber = 0x42415931
	// FormatVersion is the current file format version (v1.0.0).
	FormatVersion = 0x00010000
)

// Section names. attrs and posterior are required, fit_data is optional.
const (
	SectionAttrs     = "attrs"
	SectionPosterior = "posterior"
	SectionFitData   = "fit_data"
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported format version")
	ErrMissingSection = errors.New("missing artifact section")
)

// ErrUnknownCodec indicates an artifact written with a codec this build does
// not know.
type ErrUnknownCodec struct {
	Name string
}

func (e *ErrUnknownCodec) Error() string {
	return "unknown artifact codec: " + e.Name
}

// sectionHeader precedes each section's payload.
//
// Layout on the wire (little endian):
//
//	nameLen     uint8
//	name        [nameLen]byte
//	rawSize     uint32  uncompressed payload size
//	storedSize  uint32  compressed size; 0 means stored uncompressed
//	checksum    uint32  CRC32 of the stored bytes
type sectionHeader struct {
	name       string
	rawSize    uint32
	storedSize uint32
	checksum   uint32
}
