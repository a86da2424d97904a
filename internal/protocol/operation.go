package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Param is an integer-valued member of an op object
type Param struct {
	Key   string
	Value int
}

// Operation is the decoded JSON object carried in a frame's `op` field.
// Cmd is always present. Integer members are kept in Params in encounter
// order; any other member is preserved verbatim in Extra.
type Operation struct {
	Cmd    int
	Params []Param
	Extra  map[string]json.RawMessage
}

// NewOperation creates an operation for the given command code
func NewOperation(cmd int) Operation {
	return Operation{Cmd: cmd}
}

// With returns a copy of op with key set to value
func (op Operation) With(key string, value int) Operation {
	params := make([]Param, 0, len(op.Params)+1)
	replaced := false
	for _, p := range op.Params {
		if p.Key == key {
			p.Value = value
			replaced = true
		}
		params = append(params, p)
	}
	if !replaced {
		params = append(params, Param{Key: key, Value: value})
	}
	op.Params = params
	return op
}

// Int returns the integer member key
func (op Operation) Int(key string) (int, bool) {
	for _, p := range op.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return 0, false
}

// MarshalJSON encodes cmd first, then params in order, then extra members sorted by key
func (op Operation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"%s":%d`, FieldCmd, op.Cmd)
	for _, p := range op.Params {
		if p.Key == FieldCmd {
			continue
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, ",%s:%d", key, p.Value)
	}

	keys := make([]string, 0, len(op.Extra))
	for k := range op.Extra {
		if k == FieldCmd {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(op.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an op object. Failures are reported as InvalidOperation errors.
func (op *Operation) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeOperation(data)
	if err != nil {
		return err
	}
	*op = decoded
	return nil
}

// DecodeOperation parses an op payload. The payload must be a JSON object with
// an integer "cmd" member. Integer members land in Params in wire order; a
// repeated key keeps its first position and its last value.
func DecodeOperation(data []byte) (Operation, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return Operation{}, NewInvalidOperationError("op is not a JSON object", err)
	}
	if tok == nil {
		return Operation{}, NewInvalidOperationError("op is null", nil)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Operation{}, NewInvalidOperationError(fmt.Sprintf("op is not a JSON object: %v", tok), nil)
	}

	var op Operation
	hasCmd := false
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Operation{}, NewInvalidOperationError("op is not a JSON object", err)
		}
		key, ok := tok.(string)
		if !ok {
			return Operation{}, NewInvalidOperationError(fmt.Sprintf("op member key %v is not a string", tok), nil)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Operation{}, NewInvalidOperationError(fmt.Sprintf("op member %q is not valid JSON", key), err)
		}

		if key == FieldCmd {
			if err := json.Unmarshal(raw, &op.Cmd); err != nil {
				return Operation{}, NewInvalidOperationError(fmt.Sprintf("op cmd %s is not an integer", raw), err)
			}
			hasCmd = true
			continue
		}

		var v int
		if err := json.Unmarshal(raw, &v); err == nil {
			delete(op.Extra, key)
			op = op.With(key, v)
			continue
		}
		op.Params = withoutParam(op.Params, key)
		if op.Extra == nil {
			op.Extra = make(map[string]json.RawMessage)
		}
		op.Extra[key] = raw
	}

	if _, err := dec.Token(); err != nil {
		return Operation{}, NewInvalidOperationError("op is not a JSON object", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Operation{}, NewInvalidOperationError("op has trailing data", err)
	}
	if !hasCmd {
		return Operation{}, NewInvalidOperationError("op has no cmd member", nil)
	}
	if len(op.Extra) == 0 {
		op.Extra = nil
	}
	return op, nil
}

func withoutParam(params []Param, key string) []Param {
	out := params[:0:0]
	for _, p := range params {
		if p.Key != key {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// String returns the JSON encoding of op
func (op Operation) String() string {
	data, err := op.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Operation{cmd=%d}", op.Cmd)
	}
	return string(data)
}
