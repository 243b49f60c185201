package ratings

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

const (
	// VersionLegacy is the 0x00-separated format.
	VersionLegacy byte = 1

	// VersionCurrent is the length-prefixed, checksummed format.
	VersionCurrent byte = 2

	legacySeparator = 0
	headerSize      = 5
	checksumSize    = 4
)

var (
	// ErrUnknownVersion is returned for files with an unsupported version byte.
	ErrUnknownVersion = errors.New("ratings: unknown file version")

	// ErrTruncated is returned when the file ends inside a header or record.
	ErrTruncated = errors.New("ratings: file truncated")

	// ErrBadChecksum is returned when the stored checksum does not match.
	ErrBadChecksum = errors.New("ratings: checksum mismatch")
)

// Snapshot is the content of a ratings file.
type Snapshot struct {
	// LastID is the highest track id handed out so far, -1 if none.
	LastID int32

	// Lines holds the encoded rating line of each track id. A nil entry is
	// written as an empty line.
	Lines [][]byte
}

// Empty returns the snapshot of a library that was never rated.
func Empty() Snapshot {
	return Snapshot{LastID: -1}
}

// Encode writes snap in the current format.
func Encode(w io.Writer, snap Snapshot) error {
	crc := crc32.NewIEEE()
	bw := bufio.NewWriter(io.MultiWriter(w, crc))

	var header [headerSize]byte
	header[0] = VersionCurrent
	binary.BigEndian.PutUint32(header[1:], uint32(snap.LastID))
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}

	var prefix [binary.MaxVarintLen64]byte
	for _, line := range snap.Lines {
		n := binary.PutUvarint(prefix[:], uint64(len(line)))
		if _, err := bw.Write(prefix[:n]); err != nil {
			return err
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	var sum [checksumSize]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	_, err := w.Write(sum[:])
	return err
}

// Decode reads a ratings file in either format.
func Decode(r io.Reader) (Snapshot, error) {
	br := bufio.NewReader(r)
	version, err := br.ReadByte()
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading version: %w", ErrTruncated)
	}
	switch version {
	case VersionLegacy:
		return decodeLegacy(br)
	case VersionCurrent:
		data, err := io.ReadAll(br)
		if err != nil {
			return Snapshot{}, err
		}
		return decodeCurrent(data)
	}
	return Snapshot{}, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
}

// decodeCurrent parses everything after the version byte.
func decodeCurrent(data []byte) (Snapshot, error) {
	if len(data) < headerSize-1+checksumSize {
		return Snapshot{}, ErrTruncated
	}
	body, trailer := data[:len(data)-checksumSize], data[len(data)-checksumSize:]

	crc := crc32.NewIEEE()
	crc.Write([]byte{VersionCurrent})
	crc.Write(body)
	if crc.Sum32() != binary.BigEndian.Uint32(trailer) {
		return Snapshot{}, ErrBadChecksum
	}

	snap := Snapshot{LastID: int32(binary.BigEndian.Uint32(body))}
	body = body[headerSize-1:]
	for len(body) > 0 {
		n, size := binary.Uvarint(body)
		if size <= 0 {
			return Snapshot{}, fmt.Errorf("line %d: bad length: %w", len(snap.Lines), ErrTruncated)
		}
		body = body[size:]
		if uint64(len(body)) < n {
			return Snapshot{}, fmt.Errorf("line %d: %w", len(snap.Lines), ErrTruncated)
		}
		snap.Lines = append(snap.Lines, body[:n:n])
		body = body[n:]
	}
	return snap, nil
}

func decodeLegacy(br *bufio.Reader) (Snapshot, error) {
	var id [headerSize - 1]byte
	if _, err := io.ReadFull(br, id[:]); err != nil {
		return Snapshot{}, fmt.Errorf("reading id counter: %w", ErrTruncated)
	}
	snap := Snapshot{LastID: int32(binary.BigEndian.Uint32(id[:]))}

	for {
		line, err := br.ReadBytes(legacySeparator)
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				return Snapshot{}, fmt.Errorf("line %d: %w", len(snap.Lines), ErrTruncated)
			}
			return snap, nil
		}
		if err != nil {
			return Snapshot{}, err
		}
		snap.Lines = append(snap.Lines, line[:len(line)-1])
	}
}
