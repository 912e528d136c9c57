package artifact

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/bayesgo/codec"
	"github.com/hupe1980/bayesgo/frame"
	"github.com/hupe1980/bayesgo/trace"
)

// Options configure how an artifact is written.
type Options struct {
	// Codec encodes section payloads. Defaults to codec.Default.
	Codec codec.Codec

	// Compression is applied per section. Defaults to CompressionZSTD.
	Compression Compression
}

func applyOptions(optFns []func(o *Options)) (Options, error) {
	opts := Options{
		Codec:       codec.Default,
		Compression: CompressionZSTD,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if !opts.Compression.valid() {
		return opts, fmt.Errorf("artifact: unknown compression type %d", opts.Compression)
	}
	if len(opts.Codec.Name()) > 255 {
		return opts, fmt.Errorf("artifact: codec name too long: %q", opts.Codec.Name())
	}
	return opts, nil
}

// Encode writes idata as an artifact to w.
func Encode(w io.Writer, idata *trace.InferenceData, optFns ...func(o *Options)) error {
	if idata == nil || idata.Posterior == nil {
		return fmt.Errorf("artifact: nothing to encode: no posterior")
	}
	opts, err := applyOptions(optFns)
	if err != nil {
		return err
	}

	sections := []struct {
		name    string
		payload any
	}{
		{SectionAttrs, idata.Attrs},
		{SectionPosterior, idata.Posterior},
	}
	if idata.FitData != nil {
		sections = append(sections, struct {
			name    string
			payload any
		}{SectionFitData, idata.FitData.Snapshot()})
	}

	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, opts, byte(len(sections))); err != nil {
		return err
	}

	for _, s := range sections {
		raw, err := opts.Codec.Marshal(s.payload)
		if err != nil {
			return fmt.Errorf("artifact: encode section %q: %w", s.name, err)
		}
		if err := writeSection(bw, s.name, raw, opts.Compression); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode reads an artifact from r.
func Decode(r io.Reader) (*trace.InferenceData, error) {
	br := bufio.NewReader(r)

	c, compression, sectionCount, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	idata := &trace.InferenceData{}
	seen := make(map[string]bool, sectionCount)
	for i := 0; i < int(sectionCount); i++ {
		hdr, stored, err := readSection(br)
		if err != nil {
			return nil, err
		}
		if actual := checksum(stored); actual != hdr.checksum {
			return nil, &ChecksumMismatchError{Section: hdr.name, Expected: hdr.checksum, Actual: actual}
		}

		raw := stored
		if hdr.storedSize != 0 {
			raw, err = decompressBlock(stored, hdr.rawSize, compression)
			if err != nil {
				return nil, fmt.Errorf("artifact: section %q: %w", hdr.name, err)
			}
		}

		seen[hdr.name] = true
		switch hdr.name {
		case SectionAttrs:
			attrs := make(map[string]string)
			if err := c.Unmarshal(raw, &attrs); err != nil {
				return nil, fmt.Errorf("artifact: decode section %q: %w", hdr.name, err)
			}
			idata.Attrs = attrs
		case SectionPosterior:
			posterior := trace.NewPosterior()
			if err := c.Unmarshal(raw, posterior); err != nil {
				return nil, fmt.Errorf("artifact: decode section %q: %w", hdr.name, err)
			}
			idata.Posterior = posterior
		case SectionFitData:
			var snap frame.Snapshot
			if err := c.Unmarshal(raw, &snap); err != nil {
				return nil, fmt.Errorf("artifact: decode section %q: %w", hdr.name, err)
			}
			fitData, err := frame.FromSnapshot(snap)
			if err != nil {
				return nil, fmt.Errorf("artifact: decode section %q: %w", hdr.name, err)
			}
			idata.FitData = fitData
		default:
			// Unknown section from a newer writer: already consumed, skip.
		}
	}

	for _, required := range []string{SectionAttrs, SectionPosterior} {
		if !seen[required] {
			return nil, fmt.Errorf("%w: %s", ErrMissingSection, required)
		}
	}
	return idata, nil
}

// Save writes the artifact to path atomically: the bytes go to a temp file
// in the same directory which is fsynced and renamed over the target, so a
// crash never leaves a truncated artifact behind.
func Save(path string, idata *trace.InferenceData, optFns ...func(o *Options)) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if err := Encode(f, idata, optFns...); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Load reads an artifact from path. The file handle is closed on all paths,
// including decode failures.
func Load(path string) (*trace.InferenceData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}

func writeHeader(w io.Writer, opts Options, sectionCount byte) error {
	name := opts.Codec.Name()
	fixed := make([]byte, 0, 11+len(name))
	fixed = binary.LittleEndian.AppendUint32(fixed, MagicNumber)
	fixed = binary.LittleEndian.AppendUint32(fixed, FormatVersion)
	fixed = append(fixed, byte(opts.Compression), byte(len(name)))
	fixed = append(fixed, name...)
	fixed = append(fixed, sectionCount)

	_, err := w.Write(fixed)
	return err
}

func readHeader(r io.Reader) (codec.Codec, Compression, byte, error) {
	var fixed [10]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, 0, 0, fmt.Errorf("artifact: read header: %w", err)
	}
	if magic := binary.LittleEndian.Uint32(fixed[0:4]); magic != MagicNumber {
		return nil, 0, 0, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, magic)
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, 0, 0, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, version)
	}
	compression := Compression(fixed[8])
	if !compression.valid() {
		return nil, 0, 0, fmt.Errorf("artifact: unknown compression type %d", compression)
	}

	nameBytes := make([]byte, fixed[9])
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return nil, 0, 0, fmt.Errorf("artifact: read codec name: %w", err)
	}
	c, ok := codec.ByName(string(nameBytes))
	if !ok {
		return nil, 0, 0, &ErrUnknownCodec{Name: string(nameBytes)}
	}

	var count [1]byte
	if _, err := io.ReadFull(r, count[:]); err != nil {
		return nil, 0, 0, fmt.Errorf("artifact: read section count: %w", err)
	}
	return c, compression, count[0], nil
}

func writeSection(w io.Writer, name string, raw []byte, compression Compression) error {
	stored := raw
	var storedSize uint32
	compressed, err := compressBlock(raw, compression)
	if err != nil {
		return fmt.Errorf("artifact: compress section %q: %w", name, err)
	}
	if compressed != nil {
		stored = compressed
		storedSize = uint32(len(compressed))
	}

	hdr := make([]byte, 0, 13+len(name))
	hdr = append(hdr, byte(len(name)))
	hdr = append(hdr, name...)
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(len(raw)))
	hdr = binary.LittleEndian.AppendUint32(hdr, storedSize)
	hdr = binary.LittleEndian.AppendUint32(hdr, checksum(stored))

	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err = w.Write(stored)
	return err
}

func readSection(r io.Reader) (sectionHeader, []byte, error) {
	var nameLen [1]byte
	if _, err := io.ReadFull(r, nameLen[:]); err != nil {
		return sectionHeader{}, nil, fmt.Errorf("artifact: read section header: %w", err)
	}
	nameBytes := make([]byte, nameLen[0])
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return sectionHeader{}, nil, fmt.Errorf("artifact: read section name: %w", err)
	}
	var sizes [12]byte
	if _, err := io.ReadFull(r, sizes[:]); err != nil {
		return sectionHeader{}, nil, fmt.Errorf("artifact: read section sizes: %w", err)
	}

	hdr := sectionHeader{
		name:       string(nameBytes),
		rawSize:    binary.LittleEndian.Uint32(sizes[0:4]),
		storedSize: binary.LittleEndian.Uint32(sizes[4:8]),
		checksum:   binary.LittleEndian.Uint32(sizes[8:12]),
	}
	size := hdr.storedSize
	if size == 0 {
		size = hdr.rawSize
	}
	stored := make([]byte, size)
	if _, err := io.ReadFull(r, stored); err != nil {
		return sectionHeader{}, nil, fmt.Errorf("artifact: read section %q: %w", hdr.name, err)
	}
	return hdr, stored, nil
}
