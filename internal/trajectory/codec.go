package trajectory

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// #region format
// Blob layout before compression:
//
//	[magic "ATRJ"][version u8][trajectory id 16B][n_frames u32][n_atoms u32]
//	per frame: [snapshot id 16B][has_vel u8][coords n_atoms*3 f64][vels n_atoms*3 f64 if has_vel]
//
// The whole blob is zstd-compressed.
var magic = [4]byte{'A', 'T', 'R', 'J'}

const formatVersion uint8 = 1

// ErrCorruptBlob is returned when a stored trajectory cannot be decoded.
var ErrCorruptBlob = errors.New("corrupt trajectory blob")

// #endregion format

// #region zstd-pool
var (
	encoderPool sync.Pool
	decoderPool sync.Pool
)

func getEncoder() *zstd.Encoder {
	if v := encoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getDecoder() *zstd.Decoder {
	if v := decoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// #endregion zstd-pool

// #region encode
// Encode serializes the trajectory into a compressed blob.
// All frames must have the same number of atoms.
func Encode(t *Trajectory) ([]byte, error) {
	nAtoms := 0
	if t.Len() > 0 {
		nAtoms = t.frames[0].NAtoms()
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.WriteByte(formatVersion)
	buf.Write(t.id[:])
	writeU32(&buf, uint32(t.Len()))
	writeU32(&buf, uint32(nAtoms))

	for i, s := range t.frames {
		if s.NAtoms() != nAtoms {
			return nil, fmt.Errorf("frame %d has %d atoms, expected %d", i, s.NAtoms(), nAtoms)
		}
		hasVel := len(s.Velocities) > 0
		if hasVel && len(s.Velocities) != nAtoms {
			return nil, fmt.Errorf("frame %d has %d velocities, expected %d", i, len(s.Velocities), nAtoms)
		}
		buf.Write(s.ID[:])
		if hasVel {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		writeVecs(&buf, s.Coordinates)
		if hasVel {
			writeVecs(&buf, s.Velocities)
		}
	}

	enc := getEncoder()
	defer encoderPool.Put(enc)
	return enc.EncodeAll(buf.Bytes(), nil), nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeVecs(buf *bytes.Buffer, vecs [][3]float64) {
	var b [8]byte
	for _, v := range vecs {
		for _, f := range v {
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
			buf.Write(b[:])
		}
	}
}

// #endregion encode

// #region decode
// Decode restores a trajectory from a blob produced by Encode, keeping its ID.
func Decode(blob []byte) (*Trajectory, error) {
	dec := getDecoder()
	defer decoderPool.Put(dec)

	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}

	r := reader{b: raw}
	if m := r.next(4); m == nil || !bytes.Equal(m, magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptBlob)
	}
	if v := r.next(1); v == nil || v[0] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version", ErrCorruptBlob)
	}
	id, ok := r.uuid()
	if !ok {
		return nil, fmt.Errorf("%w: truncated header", ErrCorruptBlob)
	}
	nFrames, ok1 := r.u32()
	nAtoms, ok2 := r.u32()
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: truncated header", ErrCorruptBlob)
	}

	// every frame holds an id, a flag and n_atoms coordinates
	if nFrames > 0 && uint64(nAtoms)*24 > uint64(len(raw)-r.off) {
		return nil, fmt.Errorf("%w: %d atoms do not fit in %d bytes", ErrCorruptBlob, nAtoms, len(raw)-r.off)
	}
	frames := make([]Snapshot, 0, min(int(nFrames), len(raw)/17))
	for i := 0; i < int(nFrames); i++ {
		sid, ok := r.uuid()
		if !ok {
			return nil, fmt.Errorf("%w: truncated frame %d", ErrCorruptBlob, i)
		}
		flag := r.next(1)
		if flag == nil {
			return nil, fmt.Errorf("%w: truncated frame %d", ErrCorruptBlob, i)
		}
		coords, ok := r.vecs(int(nAtoms))
		if !ok {
			return nil, fmt.Errorf("%w: truncated frame %d", ErrCorruptBlob, i)
		}
		var vels [][3]float64
		if flag[0] == 1 {
			if vels, ok = r.vecs(int(nAtoms)); !ok {
				return nil, fmt.Errorf("%w: truncated frame %d", ErrCorruptBlob, i)
			}
		}
		frames = append(frames, Snapshot{ID: sid, Coordinates: coords, Velocities: vels})
	}
	if r.off != len(r.b) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptBlob, len(r.b)-r.off)
	}
	return &Trajectory{id: id, frames: frames}, nil
}

type reader struct {
	b   []byte
	off int
}

func (r *reader) next(n int) []byte {
	if r.off+n > len(r.b) {
		return nil
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) u32() (uint32, bool) {
	b := r.next(4)
	if b == nil {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (r *reader) uuid() (uuid.UUID, bool) {
	b := r.next(16)
	if b == nil {
		return uuid.Nil, false
	}
	id, err := uuid.FromBytes(b)
	return id, err == nil
}

func (r *reader) vecs(n int) ([][3]float64, bool) {
	if uint64(n)*24 > uint64(len(r.b)-r.off) {
		return nil, false
	}
	out := make([][3]float64, n)
	for i := range out {
		for j := 0; j < 3; j++ {
			b := r.next(8)
			if b == nil {
				return nil, false
			}
			out[i][j] = math.Float64frombits(binary.LittleEndian.Uint64(b))
		}
	}
	return out, true
}

// #endregion decode
