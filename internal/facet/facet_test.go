package facet

import (
	"errors"
	"testing"
)

func TestDefaultActivities(t *testing.T) {
	want := map[int]string{
		5:  "Break",
		7:  "Plan",
		9:  "Chore",
		10: "Mindless",
		11: "Build",
		12: "Think",
		13: "Profile",
	}

	m := Default()
	for id := 0; id < Size; id++ {
		got, err := m.Activity(id)
		if err != nil {
			t.Fatalf("Activity(%d) error = %v", id, err)
		}
		if got != want[id] {
			t.Errorf("Activity(%d) = %q, want %q", id, got, want[id])
		}
	}
}

func TestActivityOutOfRange(t *testing.T) {
	m := Default()
	for _, id := range []int{-1, Size, 255} {
		_, err := m.Activity(id)
		var perr *ProtocolError
		if !errors.As(err, &perr) {
			t.Errorf("Activity(%d) error = %v, want *ProtocolError", id, err)
		}
	}
}

func TestDecode(t *testing.T) {
	m := Default()

	tests := []struct {
		name         string
		payload      []byte
		wantID       int
		wantActivity string
		wantErr      bool
	}{
		{name: "zero facet", payload: []byte{0}, wantID: 0, wantActivity: ""},
		{name: "break", payload: []byte{5}, wantID: 5, wantActivity: "Break"},
		{name: "build", payload: []byte{11}, wantID: 11, wantActivity: "Build"},
		{name: "wraparound slot", payload: []byte{18}, wantID: 18, wantActivity: ""},
		{name: "big-endian multi byte", payload: []byte{0x00, 0x0c}, wantID: 12, wantActivity: "Think"},
		{name: "first out of range", payload: []byte{19}, wantErr: true},
		{name: "255", payload: []byte{255}, wantErr: true},
		{name: "big-endian out of range", payload: []byte{0x01, 0x05}, wantErr: true},
		{name: "empty", payload: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, activity, err := m.Decode(tt.payload)
			if tt.wantErr {
				var perr *ProtocolError
				if !errors.As(err, &perr) {
					t.Fatalf("Decode(%v) error = %v, want *ProtocolError", tt.payload, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%v) error = %v", tt.payload, err)
			}
			if id != tt.wantID || activity != tt.wantActivity {
				t.Errorf("Decode(%v) = (%d, %q), want (%d, %q)", tt.payload, id, activity, tt.wantID, tt.wantActivity)
			}
		})
	}
}

func TestNew(t *testing.T) {
	names := make([]string, Size)
	names[1] = "Email"
	names[18] = "Wrap"

	m, err := New(names)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got, _ := m.Activity(1); got != "Email" {
		t.Errorf("Activity(1) = %q, want %q", got, "Email")
	}
	if got, _ := m.Activity(18); got != "Wrap" {
		t.Errorf("Activity(18) = %q, want %q", got, "Wrap")
	}

	// The map must not alias the caller's slice.
	names[1] = "changed"
	if got, _ := m.Activity(1); got != "Email" {
		t.Errorf("Activity(1) after caller mutation = %q, want %q", got, "Email")
	}
}

func TestNewWrongLength(t *testing.T) {
	if _, err := New(make([]string, Size-1)); err == nil {
		t.Error("New() should reject a short table")
	}
	if _, err := New(make([]string, Size+1)); err == nil {
		t.Error("New() should reject a long table")
	}
}

func TestProtocolErrorMessage(t *testing.T) {
	_, _, err := Default().Decode([]byte{0xff})
	if err == nil {
		t.Fatal("Decode(0xff) should fail")
	}
	if got, want := err.Error(), "facet: facet out of range (payload ff)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
