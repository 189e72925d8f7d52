package storage

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestReadInitial(t *testing.T) {
	in := "5e24 0 0 0 30000\n5e24 1e5 0\n0 -3e4\n"

	ps, err := ReadInitial(strings.NewReader(in), 2)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	want := []dynamo.Particle{
		{Mass: 5e24, Pos: r2.Vec{}, Vel: r2.Vec{Y: 3e4}},
		{Mass: 5e24, Pos: r2.Vec{X: 1e5}, Vel: r2.Vec{Y: -3e4}},
	}
	for i := range want {
		if ps[i] != want[i] {
			t.Errorf("particle %d: got %+v, want %+v", i, ps[i], want[i])
		}
	}
}

func TestReadInitial_IgnoresTrailingInput(t *testing.T) {
	ps, err := ReadInitial(strings.NewReader("1 2 3 4 5 6 7"), 1)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(ps) != 1 || ps[0].Vel.Y != 5 {
		t.Errorf("unexpected particles: %+v", ps)
	}
}

func TestReadInitial_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		particle int
		field    string
		want     error
	}{
		{"empty", "", 1, 0, "mass", dynamo.ErrIngest},
		{"short record", "1 2 3 4", 1, 0, "velocity-y", dynamo.ErrIngest},
		{"missing second particle", "1 0 0 0 0", 2, 1, "mass", dynamo.ErrIngest},
		{"not a number", "1 0 abc 0 0", 1, 0, "position-y", dynamo.ErrIngest},
		{"zero mass", "0 0 0 0 0", 1, 0, "mass", dynamo.ErrNonPositiveMass},
		{"negative mass", "1 0 0 0 0\n-2 0 0 0 0", 2, 1, "mass", dynamo.ErrNonPositiveMass},
		{"nan mass", "NaN 0 0 0 0", 1, 0, "mass", dynamo.ErrNonPositiveMass},
		{"nan position", "1 NaN 0 0 0\n1 1 Inf 0 0\n", 2, 0, "position-x", dynamo.ErrIngest},
		{"inf position", "1 0 0 0 0\n1 1 Inf 0 0\n", 2, 1, "position-y", dynamo.ErrIngest},
		{"inf velocity", "1 0 0 -Inf 0", 1, 0, "velocity-x", dynamo.ErrIngest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, err := ReadInitial(strings.NewReader(tt.input), tt.n)
			if ps != nil {
				t.Errorf("expected no particles, got %d", len(ps))
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("error %v does not wrap %v", err, tt.want)
			}

			var ie *dynamo.IngestError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *dynamo.IngestError, got %T", err)
			}
			if ie.Particle != tt.particle || ie.Field != tt.field {
				t.Errorf("got particle %d field %s, want particle %d field %s", ie.Particle, ie.Field, tt.particle, tt.field)
			}
		})
	}
}

func TestReadInitial_BadCount(t *testing.T) {
	_, err := ReadInitial(strings.NewReader("1 0 0 0 0"), 0)
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestWriteInitial_RoundTrip(t *testing.T) {
	ps := []dynamo.Particle{
		{Mass: 5e24, Pos: r2.Vec{X: 1.0 / 3.0, Y: -2e5}, Vel: r2.Vec{X: 0.1, Y: 3e4}},
		{Mass: 7.25e22, Pos: r2.Vec{X: 3.844e8}, Vel: r2.Vec{Y: 1022}},
	}

	var buf bytes.Buffer
	if err := WriteInitial(&buf, ps); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := ReadInitial(&buf, len(ps))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	for i := range ps {
		if got[i] != ps[i] {
			t.Errorf("particle %d: got %+v, want %+v", i, got[i], ps[i])
		}
	}
}
