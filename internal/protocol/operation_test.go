package protocol

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestOperationMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{
			name: "status query",
			op:   NewOperation(OpQueryStatus),
			want: `{"cmd":25}`,
		},
		{
			name: "binary set",
			op:   NewOperation(OpSetBinary).With(KeyRelay2, 1),
			want: `{"cmd":5,"relay2":1}`,
		},
		{
			name: "color keeps channel order",
			op: NewOperation(OpSetColor).
				With(KeyRed, 5000).With(KeyGreen, 0).With(KeyBlue, 0).
				With(KeyWarm, 0).With(KeyCold, 0),
			want: `{"cmd":6,"r":5000,"g":0,"b":0,"w":0,"m":0}`,
		},
		{
			name: "extra members sorted after params",
			op: Operation{
				Cmd:    25,
				Params: []Param{{"relay", 1}},
				Extra: map[string]json.RawMessage{
					"z": json.RawMessage(`"on"`),
					"a": json.RawMessage(`[1,2]`),
				},
			},
			want: `{"cmd":25,"relay":1,"a":[1,2],"z":"on"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.op)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestDecodeOperation(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantCmd    int
		wantParams map[string]int
		wantExtra  []string
		wantErr    bool
	}{
		{
			name:       "status reply",
			data:       `{"cmd":25,"relay":1,"soft_poweroff":0}`,
			wantCmd:    25,
			wantParams: map[string]int{"relay": 1, "soft_poweroff": 0},
		},
		{
			name:      "non-integer members go to extra",
			data:      `{"cmd":25,"name":"plug","temp":21.5}`,
			wantCmd:   25,
			wantExtra: []string{"name", "temp"},
		},
		{
			name:    "missing cmd",
			data:    `{"relay":1}`,
			wantErr: true,
		},
		{
			name:    "string cmd",
			data:    `{"cmd":"25"}`,
			wantErr: true,
		},
		{
			name:    "not JSON",
			data:    `cmd:25`,
			wantErr: true,
		},
		{
			name:    "array",
			data:    `[25]`,
			wantErr: true,
		},
		{
			name:    "null",
			data:    `null`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := DecodeOperation([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeOperation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !IsType(err, ErrTypeInvalidOperation) {
					t.Errorf("DecodeOperation() error = %v, want InvalidOperation", err)
				}
				return
			}
			if op.Cmd != tt.wantCmd {
				t.Errorf("Cmd = %d, want %d", op.Cmd, tt.wantCmd)
			}
			for k, want := range tt.wantParams {
				if got, ok := op.Int(k); !ok || got != want {
					t.Errorf("Int(%q) = %d, %v, want %d, true", k, got, ok, want)
				}
			}
			for _, k := range tt.wantExtra {
				if _, ok := op.Extra[k]; !ok {
					t.Errorf("Extra[%q] missing", k)
				}
			}
		})
	}
}

func TestOperationWithDoesNotMutate(t *testing.T) {
	base := NewOperation(OpSetBinary).With(KeyRelay, 0)
	on := base.With(KeyRelay, 1)

	if v, _ := base.Int(KeyRelay); v != 0 {
		t.Errorf("base relay = %d, want 0", v)
	}
	if v, _ := on.Int(KeyRelay); v != 1 {
		t.Errorf("on relay = %d, want 1", v)
	}
	if len(on.Params) != 1 {
		t.Errorf("len(Params) = %d, want 1", len(on.Params))
	}
}

func TestOperationEncodeDecode(t *testing.T) {
	op := NewOperation(OpSetColor).With(KeyRed, 12).With(KeyCold, 7)
	data, err := op.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	var decoded Operation
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Cmd != OpSetColor {
		t.Errorf("Cmd = %d, want %d", decoded.Cmd, OpSetColor)
	}
	for _, key := range []string{KeyRed, KeyCold} {
		want, _ := op.Int(key)
		if got, _ := decoded.Int(key); got != want {
			t.Errorf("Int(%q) = %d, want %d", key, got, want)
		}
	}
}

func TestOperationRoundTripKeepsMemberOrder(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
	}{
		{
			name: "status query",
			op:   NewOperation(OpQueryStatus),
		},
		{
			name: "relay1",
			op:   NewOperation(OpSetBinary).With(KeyRelay1, 1),
		},
		{
			name: "five channel color",
			op: NewOperation(OpSetColor).
				With(KeyRed, 5000).With(KeyGreen, 2510).With(KeyBlue, 1255).
				With(KeyWarm, 627).With(KeyCold, 314),
		},
		{
			name: "params and extra",
			op: Operation{
				Cmd:    25,
				Params: []Param{{"soft_poweroff", 0}, {"relay", 1}},
				Extra:  map[string]json.RawMessage{"name": json.RawMessage(`"plug"`)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := BuildControl("5F6D", tt.op)
			if err != nil {
				t.Fatalf("BuildControl() error = %v", err)
			}
			req, err := ParseRequest(data)
			if err != nil {
				t.Fatalf("ParseRequest() error = %v", err)
			}
			if !reflect.DeepEqual(*req.Op, tt.op) {
				t.Errorf("decoded op = %+v, want %+v", *req.Op, tt.op)
			}
			if req.Op.String() != tt.op.String() {
				t.Errorf("re-encoded op = %s, want %s", req.Op.String(), tt.op.String())
			}
		})
	}
}

func TestDecodeOperationWireOrder(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []Param
	}{
		{
			name: "unsorted keys",
			data: `{"r":1,"cmd":6,"g":2,"b":3,"w":4,"m":5}`,
			want: []Param{{"r", 1}, {"g", 2}, {"b", 3}, {"w", 4}, {"m", 5}},
		},
		{
			name: "repeated key keeps first position",
			data: `{"cmd":5,"relay2":0,"relay1":1,"relay2":1}`,
			want: []Param{{"relay2", 1}, {"relay1", 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := DecodeOperation([]byte(tt.data))
			if err != nil {
				t.Fatalf("DecodeOperation() error = %v", err)
			}
			if !reflect.DeepEqual(op.Params, tt.want) {
				t.Errorf("Params = %v, want %v", op.Params, tt.want)
			}
		})
	}
}

func TestDecodeOperationRejectsTrailingData(t *testing.T) {
	for _, data := range []string{`{"cmd":25} x`, `{"cmd":25}{"cmd":5}`, `{"cmd":25`} {
		if _, err := DecodeOperation([]byte(data)); !IsType(err, ErrTypeInvalidOperation) {
			t.Errorf("DecodeOperation(%s) error = %v, want InvalidOperation", data, err)
		}
	}
}
