package main

import (
	"testing"
)

func TestTripleFlag(t *testing.T) {
	var f tripleFlag
	if err := f.Set("1, 2.5,3"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if len(f) != 3 || f[0] != 1 || f[1] != 2.5 || f[2] != 3 {
		t.Errorf("Expected [1 2.5 3], got %v", f)
	}
	if f.String() != "1,2.5,3" {
		t.Errorf("Expected 1,2.5,3, got %q", f.String())
	}

	for _, bad := range []string{"1,2", "1,2,x", ""} {
		if err := f.Set(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}
