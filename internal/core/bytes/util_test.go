package bytes

import (
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type inner struct {
	A uint8
	B uint16
}

type fixedStruct struct {
	Header  inner
	Value   uint32
	Address [4]byte
	Padding [2]byte
}

type trailingStruct struct {
	ID      uint16
	Payload []byte
}

func TestBytesFromStruct(t *testing.T) {
	tests := []struct {
		name    string
		data    interface{}
		want    []byte
		wantLen int
	}{
		{
			name: "nested struct is flattened little endian",
			data: fixedStruct{
				Header:  inner{A: 0x01, B: 0x0302},
				Value:   171022,
				Address: [4]byte{127, 0, 0, 1},
			},
			want:    []byte{0x01, 0x02, 0x03, 0x0e, 0x9c, 0x02, 0x00, 127, 0, 0, 1, 0, 0},
			wantLen: 13,
		},
		{
			name:    "pointer to struct",
			data:    &inner{A: 0xff, B: 0x0001},
			want:    []byte{0xff, 0x01, 0x00},
			wantLen: 3,
		},
		{
			name:    "trailing slice written without a length",
			data:    trailingStruct{ID: 7, Payload: []byte("3.25 ND1")},
			want:    append([]byte{0x07, 0x00}, "3.25 ND1"...),
			wantLen: 10,
		},
		{
			name:    "empty struct",
			data:    struct{}{},
			want:    nil,
			wantLen: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gotLen := BytesFromStruct(tt.data)
			if gotLen != tt.wantLen {
				t.Errorf("BytesFromStruct() length = %d, want %d", gotLen, tt.wantLen)
			}
			if diff := cmp.Diff(tt.want, got, cmpEmptyBytes); diff != "" {
				t.Errorf("BytesFromStruct() returned the wrong bytes; diff:\n%s", diff)
			}
		})
	}
}

// nil and empty byte slices are equivalent for serialized output.
var cmpEmptyBytes = cmp.FilterValues(func(x, y []byte) bool {
	return len(x) == 0 && len(y) == 0
}, cmp.Ignore())

func TestBytesFromStruct_PanicsOnNonStruct(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected BytesFromStruct() to panic on a non-struct")
		}
	}()
	BytesFromStruct(42)
}

func TestStructFromBytes(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x0e, 0x9c, 0x02, 0x00, 127, 0, 0, 1, 0, 0}

	var got fixedStruct
	if err := StructFromBytes(data, &got); err != nil {
		t.Fatalf("StructFromBytes() returned an unexpected error: %v", err)
	}

	want := fixedStruct{
		Header:  inner{A: 0x01, B: 0x0302},
		Value:   171022,
		Address: [4]byte{127, 0, 0, 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("StructFromBytes() parsed the wrong values; diff:\n%s", diff)
	}
}

func TestStructFromBytes_TrailingSlice(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want trailingStruct
	}{
		{
			name: "rest of data",
			data: append([]byte{0x07, 0x00}, "3.25 ND1"...),
			want: trailingStruct{ID: 7, Payload: []byte("3.25 ND1")},
		},
		{
			name: "nothing left",
			data: []byte{0x07, 0x00},
			want: trailingStruct{ID: 7, Payload: []byte{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got trailingStruct
			if err := StructFromBytes(tt.data, &got); err != nil {
				t.Fatalf("StructFromBytes() returned an unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("StructFromBytes() parsed the wrong values; diff:\n%s", diff)
			}
		})
	}
}

func TestStructFromBytes_ShortData(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "empty", data: nil, wantErr: io.EOF},
		{name: "cut inside a field", data: []byte{0x01, 0x02}, wantErr: io.ErrUnexpectedEOF},
		{name: "missing trailing fields", data: []byte{0x01, 0x02, 0x03, 0x0e, 0x9c, 0x02, 0x00}, wantErr: io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got fixedStruct
			if err := StructFromBytes(tt.data, &got); !errors.Is(err, tt.wantErr) {
				t.Errorf("StructFromBytes() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
