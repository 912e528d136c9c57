package artifact

import (
	"fmt"
	"hash/crc32"
)

// Section payloads are protected with CRC32 (IEEE polynomial): fast,
// hardware-accelerated and good at catching storage corruption. It is not
// cryptographically secure; the identity fingerprint in the attrs section is
// what ties an artifact to a model type and configuration.

var crc32Table = crc32.MakeTable(crc32.IEEE)

func checksum(data []byte) uint32 {
	return crc32.Checksum(data, crc32Table)
}

// ChecksumMismatchError is returned when a section fails verification.
type ChecksumMismatchError struct {
	Section  string
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("artifact: section %q checksum mismatch: expected 0x%08x, got 0x%08x",
		e.Section, e.Expected, e.Actual)
}

// IsChecksumMismatch reports whether err is a checksum mismatch.
func IsChecksumMismatch(err error) bool {
	_, ok := err.(*ChecksumMismatchError)
	return ok
}
