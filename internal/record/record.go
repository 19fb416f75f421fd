// Package record implements the CORE's record codec (spec.md §4.A): a
// closed set of game-event variants with a deterministic, self-delimiting
// binary encoding. Records are modeled as a single tagged struct rather
// than an interface with per-variant implementations, so the codec is a
// plain switch over a fixed set of kinds instead of dynamic dispatch.
package record

import (
	"encoding/binary"
	"fmt"

	"github.com/gustav87/flo/internal/errs"
)

// MaxRecordSize is MAX_CHUNK_SIZE (spec.md §3): the ceiling on a single
// record's encoded size, and therefore on a chunk's total size.
const MaxRecordSize = 4096

// Kind tags which variant a Record holds.
type Kind uint8

const (
	// KindStopLag marks the end of a lag screen, carrying the ticks stalled.
	KindStopLag Kind = iota
	// KindStartLag marks the start of a lag screen, carrying the stalling player slots.
	KindStartLag
	// KindTickChecksum carries a periodic simulation checksum.
	KindTickChecksum
	// KindPlayerLeft marks a player disconnecting, with a leave reason code.
	KindPlayerLeft
	// KindGameEnd marks the end of the match. It carries no payload.
	KindGameEnd
)

func (k Kind) String() string {
	switch k {
	case KindStopLag:
		return "StopLag"
	case KindStartLag:
		return "StartLag"
	case KindTickChecksum:
		return "TickChecksum"
	case KindPlayerLeft:
		return "PlayerLeft"
	case KindGameEnd:
		return "GameEnd"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

const (
	tagStopLag       = 0
	tagStartLag      = 1
	tagTickChecksum  = 2
	tagPlayerLeft    = 3
	tagGameEnd       = 4
	maxStartLagSlots = 255
)

// Record is a tagged union over the closed set of game-event variants.
// Exactly the field(s) matching Kind are meaningful; the rest are zero.
type Record struct {
	Kind Kind

	// StopLag: number of ticks the lag screen lasted.
	StopLagTicks int32

	// StartLag: slot numbers of the players causing the lag screen.
	StartLagSlots []uint8

	// TickChecksum: simulation checksum for this tick.
	TickChecksum uint32

	// PlayerLeft: the departing player's slot and the leave reason code.
	PlayerLeftSlot   uint8
	PlayerLeftReason uint8
}

// StopLag constructs a StopLag record.
func StopLag(ticks int32) Record { return Record{Kind: KindStopLag, StopLagTicks: ticks} }

// StartLag constructs a StartLag record.
func StartLag(slots []uint8) Record { return Record{Kind: KindStartLag, StartLagSlots: slots} }

// TickChecksumRecord constructs a TickChecksum record.
func TickChecksumRecord(checksum uint32) Record {
	return Record{Kind: KindTickChecksum, TickChecksum: checksum}
}

// PlayerLeft constructs a PlayerLeft record.
func PlayerLeft(slot, reason uint8) Record {
	return Record{Kind: KindPlayerLeft, PlayerLeftSlot: slot, PlayerLeftReason: reason}
}

// GameEnd constructs the (payload-free) GameEnd record.
func GameEnd() Record { return Record{Kind: KindGameEnd} }

// EncodedSize returns the number of bytes Encode will emit for r. It is
// exact: decode consumes precisely this many bytes from a well-formed cursor.
func EncodedSize(r Record) int {
	switch r.Kind {
	case KindStopLag:
		return 1 + 4
	case KindStartLag:
		return 1 + 1 + len(r.StartLagSlots)
	case KindTickChecksum:
		return 1 + 4
	case KindPlayerLeft:
		return 1 + 1 + 1
	case KindGameEnd:
		return 1
	default:
		return 0
	}
}

// Encode appends r's binary encoding to out, returning the extended slice.
func Encode(r Record, out []byte) []byte {
	out = append(out, tagFor(r.Kind))
	switch r.Kind {
	case KindStopLag:
		out = binary.LittleEndian.AppendUint32(out, uint32(r.StopLagTicks)) //nolint:gosec // G115: round-trips through Decode
	case KindStartLag:
		out = append(out, uint8(len(r.StartLagSlots))) //nolint:gosec // G115: bounded by maxStartLagSlots in Validate
		out = append(out, r.StartLagSlots...)
	case KindTickChecksum:
		out = binary.LittleEndian.AppendUint32(out, r.TickChecksum)
	case KindPlayerLeft:
		out = append(out, r.PlayerLeftSlot, r.PlayerLeftReason)
	case KindGameEnd:
		// no payload
	}
	return out
}

func tagFor(k Kind) byte {
	switch k {
	case KindStopLag:
		return tagStopLag
	case KindStartLag:
		return tagStartLag
	case KindTickChecksum:
		return tagTickChecksum
	case KindPlayerLeft:
		return tagPlayerLeft
	case KindGameEnd:
		return tagGameEnd
	default:
		return 0xff
	}
}

// Cursor is the minimal self-advancing byte reader Decode needs. *bytes.Reader
// satisfies it directly.
type Cursor interface {
	ReadByte() (byte, error)
	Read(p []byte) (int, error)
}

// Decode reads one Record from cur, advancing it by exactly EncodedSize(result)
// bytes. It fails with a RecordDecode error if the prefix is malformed or
// the cursor is truncated mid-record.
func Decode(cur Cursor) (Record, error) {
	tag, err := cur.ReadByte()
	if err != nil {
		return Record{}, errs.Wrap(errs.RecordDecode, err)
	}

	switch tag {
	case tagStopLag:
		var buf [4]byte
		if _, err := readFull(cur, buf[:]); err != nil {
			return Record{}, errs.Wrap(errs.RecordDecode, err)
		}
		return StopLag(int32(binary.LittleEndian.Uint32(buf[:]))), nil //nolint:gosec // G115: encoded by Encode from an int32

	case tagStartLag:
		n, err := cur.ReadByte()
		if err != nil {
			return Record{}, errs.Wrap(errs.RecordDecode, err)
		}
		slots := make([]byte, n)
		if n > 0 {
			if _, err := readFull(cur, slots); err != nil {
				return Record{}, errs.Wrap(errs.RecordDecode, err)
			}
		}
		return StartLag(slots), nil

	case tagTickChecksum:
		var buf [4]byte
		if _, err := readFull(cur, buf[:]); err != nil {
			return Record{}, errs.Wrap(errs.RecordDecode, err)
		}
		return TickChecksumRecord(binary.LittleEndian.Uint32(buf[:])), nil

	case tagPlayerLeft:
		var buf [2]byte
		if _, err := readFull(cur, buf[:]); err != nil {
			return Record{}, errs.Wrap(errs.RecordDecode, err)
		}
		return PlayerLeft(buf[0], buf[1]), nil

	case tagGameEnd:
		return GameEnd(), nil

	default:
		return Record{}, errs.New(errs.RecordDecode, fmt.Sprintf("unknown record tag %d", tag), nil)
	}
}

func readFull(cur Cursor, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := cur.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Validate returns a RecordTooLarge error if r's encoded size exceeds
// MaxRecordSize, or if a StartLag record carries more slots than its
// single-byte length prefix can represent.
func Validate(r Record) error {
	if r.Kind == KindStartLag && len(r.StartLagSlots) > maxStartLagSlots {
		return errs.New(errs.RecordTooLarge,
			fmt.Sprintf("StartLag carries %d slots, max is %d", len(r.StartLagSlots), maxStartLagSlots), nil)
	}
	if EncodedSize(r) > MaxRecordSize {
		return errs.New(errs.RecordTooLarge, fmt.Sprintf("record encodes to %d bytes, max is %d", EncodedSize(r), MaxRecordSize), nil)
	}
	return nil
}
