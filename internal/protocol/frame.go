package protocol

import (
	"bytes"
	"strings"
)

// Field is a single key=value pair of a frame
type Field struct {
	Key   string
	Value string
}

// Frame is a parsed `key=value&key=value` datagram. Field order is preserved
// because the device firmware emits and expects a fixed order.
type Frame struct {
	Fields []Field
	Raw    []byte // Original datagram bytes
}

// NewFrame creates a frame from alternating key, value arguments
func NewFrame(kv ...string) *Frame {
	f := &Frame{}
	for i := 0; i+1 < len(kv); i += 2 {
		f.Set(kv[i], kv[i+1])
	}
	return f
}

// ParseFrame splits a datagram into its fields. Trailing CR, LF and NUL bytes
// are ignored. Each `&`-separated segment is split on its first `=`; values may
// therefore contain `=`. A segment without `=` or with an empty key fails with
// a MalformedFrame error.
func ParseFrame(data []byte) (*Frame, error) {
	text := strings.TrimRight(string(data), "\r\n\x00")
	if text == "" {
		return nil, NewMalformedFrameError("empty frame")
	}

	segments := strings.Split(text, "&")
	f := &Frame{
		Fields: make([]Field, 0, len(segments)),
		Raw:    data,
	}
	for i, seg := range segments {
		key, value, ok := strings.Cut(seg, "=")
		if !ok {
			return nil, NewMalformedFrameError("segment %d %q has no '='", i, seg)
		}
		if key == "" {
			return nil, NewMalformedFrameError("segment %d has an empty key", i)
		}
		f.Fields = append(f.Fields, Field{Key: key, Value: value})
	}
	return f, nil
}

// Get returns the value of the first field named key
func (f *Frame) Get(key string) (string, bool) {
	for _, field := range f.Fields {
		if field.Key == key {
			return field.Value, true
		}
	}
	return "", false
}

// Set replaces the value of key, or appends the field if it is not present
func (f *Frame) Set(key, value string) {
	for i := range f.Fields {
		if f.Fields[i].Key == key {
			f.Fields[i].Value = value
			return
		}
	}
	f.Fields = append(f.Fields, Field{Key: key, Value: value})
}

// Cmd returns the frame's cmd field, or "" if absent
func (f *Frame) Cmd() string {
	cmd, _ := f.Get(FieldCmd)
	return cmd
}

// Bytes encodes the frame in wire format
func (f *Frame) Bytes() []byte {
	var buf bytes.Buffer
	for i, field := range f.Fields {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(field.Key)
		buf.WriteByte('=')
		buf.WriteString(field.Value)
	}
	return buf.Bytes()
}

// String returns the frame in wire format
func (f *Frame) String() string {
	return string(f.Bytes())
}
