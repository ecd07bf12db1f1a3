package cmdenv

import (
	"testing"

	"github.com/gogpu/raymarch"
)

func TestGet(t *testing.T) {
	t.Setenv("RAYMARCH_TEST_OUT", "frame.gif")
	if got := Get("RAYMARCH_TEST_OUT", "x.png"); got != "frame.gif" {
		t.Errorf("Get = %q, want frame.gif", got)
	}
	if got := Get("RAYMARCH_TEST_UNSET", "x.png"); got != "x.png" {
		t.Errorf("Get unset = %q, want fallback", got)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("RAYMARCH_TEST_N", "96")
	t.Setenv("RAYMARCH_TEST_BAD", "ninety")
	if got := Int("RAYMARCH_TEST_N", 1); got != 96 {
		t.Errorf("Int = %d, want 96", got)
	}
	if got := Int("RAYMARCH_TEST_BAD", 7); got != 7 {
		t.Errorf("Int malformed = %d, want fallback 7", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("RAYMARCH_TEST_GPU", "true")
	if !Bool("RAYMARCH_TEST_GPU", false) {
		t.Error("Bool = false, want true")
	}
	if Bool("RAYMARCH_TEST_UNSET", false) {
		t.Error("Bool unset = true, want fallback false")
	}
}

func TestFloatStepDefault(t *testing.T) {
	want := float64(raymarch.DefaultStepSize)
	if got := Float("RAYMARCH_TEST_UNSET", float64(raymarch.DefaultStepSize)); got != want {
		t.Errorf("Float unset = %v, want %v", got, want)
	}

	t.Setenv("RAYMARCH_TEST_STEP", "0.25")
	if got := Float("RAYMARCH_TEST_STEP", float64(raymarch.DefaultStepSize)); got != 0.25 {
		t.Errorf("Float = %v, want 0.25", got)
	}
}

func TestPositive(t *testing.T) {
	tests := []struct {
		v       int
		wantErr bool
	}{
		{-600, true},
		{0, true},
		{1, false},
		{600, false},
	}
	for _, tt := range tests {
		err := Positive("size", tt.v)
		if (err != nil) != tt.wantErr {
			t.Errorf("Positive(size, %d) err = %v, wantErr %v", tt.v, err, tt.wantErr)
		}
	}
}
