package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// encoder/decoder are small little-endian binary cursors shared by
// every account codec in this package (spec.md §6: "Persisted state
// layout ... little-endian canonical encoding").
type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) u8(v uint8)   { e.buf.WriteByte(v) }
func (e *encoder) u32(v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); e.buf.Write(b[:]) }
func (e *encoder) u64(v uint64) { var b [8]byte; binary.LittleEndian.PutUint64(b[:], v); e.buf.Write(b[:]) }
func (e *encoder) i64(v int64)  { e.u64(uint64(v)) }

func (e *encoder) bytesField(b []byte) {
	e.u32(uint32(len(b)))
	e.buf.Write(b)
}

func (e *encoder) str(s string) { e.bytesField([]byte(s)) }

func (e *encoder) bytes() []byte { return e.buf.Bytes() }

type decoder struct {
	r   *bytes.Reader
	err error
}

func newDecoder(data []byte) *decoder { return &decoder{r: bytes.NewReader(data)} }

func (d *decoder) u8() uint8 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadByte()
	if err != nil {
		d.err = err
	}
	return v
}

func (d *decoder) u32() uint32 {
	if d.err != nil {
		return 0
	}
	var b [4]byte
	if _, err := d.r.Read(b[:]); err != nil {
		d.err = err
		return 0
	}
	return binary.LittleEndian.Uint32(b[:])
}

func (d *decoder) u64() uint64 {
	if d.err != nil {
		return 0
	}
	var b [8]byte
	if _, err := d.r.Read(b[:]); err != nil {
		d.err = err
		return 0
	}
	return binary.LittleEndian.Uint64(b[:])
}

func (d *decoder) i64() int64 { return int64(d.u64()) }

func (d *decoder) bytesField() []byte {
	n := d.u32()
	if d.err != nil || n == 0 {
		return nil
	}
	out := make([]byte, n)
	if _, err := d.r.Read(out); err != nil {
		d.err = err
		return nil
	}
	return out
}

func (d *decoder) str() string { return string(d.bytesField()) }

func (d *decoder) done() error {
	if d.err != nil {
		return fmt.Errorf("storage: decode error: %w", d.err)
	}
	return nil
}
