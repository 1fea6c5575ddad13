// Package wire is the record serialization format consumed by every model
// type: an opaque, protobuf-wire-compatible byte encoding with named
// scalar and repeated fields, hand-coded against protowire primitives
// rather than full protoc codegen. Field numbers below are the only part
// of this format with any external meaning; this package never interprets
// record semantics, only tags and wire types.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Writer accumulates a record's fields in field-number order (not required
// by the wire format but kept for readability and stable round-trips).
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) String(num protowire.Number, v string) {
	if v == "" {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendString(w.buf, v)
}

func (w *Writer) Bytes_(num protowire.Number, v []byte) {
	if len(v) == 0 {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, v)
}

func (w *Writer) Uint64(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.VarintType)
	w.buf = protowire.AppendVarint(w.buf, v)
}

func (w *Writer) Uint32(num protowire.Number, v uint32) {
	w.Uint64(num, uint64(v))
}

func (w *Writer) Int64(num protowire.Number, v int64) {
	if v == 0 {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.VarintType)
	w.buf = protowire.AppendVarint(w.buf, uint64(v))
}

func (w *Writer) Bool(num protowire.Number, v bool) {
	if !v {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.VarintType)
	w.buf = protowire.AppendVarint(w.buf, 1)
}

// Message appends a nested, length-delimited sub-message.
func (w *Writer) Message(num protowire.Number, sub *Writer) {
	if sub == nil || len(sub.buf) == 0 {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, sub.buf)
}

// Field is one decoded (number, wiretype, raw-value) triple handed to the
// caller's switch in Unmarshal. Repeated fields show up as repeated Field
// values across Range calls, in wire order.
type Field struct {
	Number protowire.Number
	Type   protowire.Type
	raw    []byte
}

func (f Field) String() (string, error) {
	v, ok := protowire.ConsumeBytes(f.raw)
	if ok < 0 {
		return "", fmt.Errorf("wire: field %d: malformed string", f.Number)
	}
	return string(v), nil
}

func (f Field) Bytes() ([]byte, error) {
	v, ok := protowire.ConsumeBytes(f.raw)
	if ok < 0 {
		return nil, fmt.Errorf("wire: field %d: malformed bytes", f.Number)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (f Field) Uint64() (uint64, error) {
	v, n := protowire.ConsumeVarint(f.raw)
	if n < 0 {
		return 0, fmt.Errorf("wire: field %d: malformed varint", f.Number)
	}
	return v, nil
}

func (f Field) Uint32() (uint32, error) {
	v, err := f.Uint64()
	return uint32(v), err
}

func (f Field) Int64() (int64, error) {
	v, err := f.Uint64()
	return int64(v), err
}

func (f Field) Bool() (bool, error) {
	v, err := f.Uint64()
	return v != 0, err
}

// Message returns the raw bytes of a nested sub-message for recursive
// Range over it.
func (f Field) Message() ([]byte, error) {
	return f.Bytes()
}

// Range decodes buf and calls fn once per field, in wire order. A non-nil
// error from fn stops the decode and is returned by Range unchanged; Range
// also returns its own error for a malformed tag or value.
func Range(buf []byte, fn func(Field) error) error {
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return fmt.Errorf("wire: malformed tag")
		}
		buf = buf[n:]

		var size int
		switch typ {
		case protowire.VarintType:
			_, size = protowire.ConsumeVarint(buf)
		case protowire.Fixed32Type:
			_, size = protowire.ConsumeFixed32(buf)
		case protowire.Fixed64Type:
			_, size = protowire.ConsumeFixed64(buf)
		case protowire.BytesType:
			_, size = protowire.ConsumeBytes(buf)
		default:
			return fmt.Errorf("wire: field %d: unsupported wire type %d", num, typ)
		}
		if size < 0 {
			return fmt.Errorf("wire: field %d: malformed value", num)
		}

		if err := fn(Field{Number: num, Type: typ, raw: buf[:size]}); err != nil {
			return err
		}
		buf = buf[size:]
	}
	return nil
}
