package protocol

import (
	"testing"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []Field
		wantErr bool
	}{
		{
			name: "ping with CRLF",
			data: "cmd=ping\r\n",
			want: []Field{{"cmd", "ping"}},
		},
		{
			name: "value containing equals",
			data: `cmd=ctrl&op={"a":"x=y"}`,
			want: []Field{{"cmd", "ctrl"}, {"op", `{"a":"x=y"}`}},
		},
		{
			name: "empty value",
			data: "cmd=pong&mac=",
			want: []Field{{"cmd", "pong"}, {"mac", ""}},
		},
		{
			name: "trailing NUL padding",
			data: "cmd=pong\x00\x00",
			want: []Field{{"cmd", "pong"}},
		},
		{
			name:    "segment without equals",
			data:    "cmd=pong&garbage",
			wantErr: true,
		},
		{
			name:    "empty segment",
			data:    "cmd=pong&&sta_ip=1.2.3.4",
			wantErr: true,
		},
		{
			name:    "empty key",
			data:    "=value",
			wantErr: true,
		},
		{
			name:    "empty datagram",
			data:    "\r\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFrame([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFrame() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !IsType(err, ErrTypeMalformedFrame) {
					t.Errorf("ParseFrame() error type = %v, want MalformedFrame", err)
				}
				return
			}
			if len(f.Fields) != len(tt.want) {
				t.Fatalf("len(Fields) = %d, want %d", len(f.Fields), len(tt.want))
			}
			for i, field := range f.Fields {
				if field != tt.want[i] {
					t.Errorf("Fields[%d] = %+v, want %+v", i, field, tt.want[i])
				}
			}
		})
	}
}

func TestFrameGetSet(t *testing.T) {
	f := NewFrame("cmd", "ctrl", "dev", "abc")

	if got, ok := f.Get("dev"); !ok || got != "abc" {
		t.Errorf("Get(dev) = %q, %v, want abc, true", got, ok)
	}
	if _, ok := f.Get("op"); ok {
		t.Error("Get(op) should report a missing field")
	}

	f.Set("dev", "xyz")
	f.Set("op", "{}")
	if got := f.String(); got != "cmd=ctrl&dev=xyz&op={}" {
		t.Errorf("String() = %q, want %q", got, "cmd=ctrl&dev=xyz&op={}")
	}
	if f.Cmd() != "ctrl" {
		t.Errorf("Cmd() = %q, want ctrl", f.Cmd())
	}
}

func TestFrameRoundTrip(t *testing.T) {
	wire := `cmd=ctrl&devices=[5F6D]&op={"cmd":25}`
	f, err := ParseFrame([]byte(wire))
	if err != nil {
		t.Fatalf("ParseFrame() error = %v", err)
	}
	if got := f.String(); got != wire {
		t.Errorf("String() = %q, want %q", got, wire)
	}
}
