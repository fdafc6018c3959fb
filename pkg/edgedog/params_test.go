package edgedog

import (
	"testing"
)

func TestDerivePrefix(t *testing.T) {
	cases := []struct {
		prefix string
		want   string
	}{
		{"foo.nii", "foo_DOG.nii"},
		{"foo.nii.gz", "foo_DOG.nii.gz"},
		{"out/edges.yaml", "out/edges_DOG.yaml"},
		{"foo.edv", "foo_DOG.edv"},
		{"foo", "foo_DOG"},
		{"foo.txt", "foo.txt_DOG"},
		{".nii", ".nii_DOG"},
	}

	for _, c := range cases {
		if got := DerivePrefix(c.prefix, DoGSuffix); got != c.want {
			t.Errorf("DerivePrefix(%q): expected %q, got %q", c.prefix, c.want, got)
		}
	}
}

// TestWithDerivedNames checks naming is a pure function of Prefix
func TestWithDerivedNames(t *testing.T) {
	p := DefaultParams()
	if p.DoGPrefix != DefaultDoGPrefix {
		t.Errorf("Expected default DoG prefix %q, got %q", DefaultDoGPrefix, p.DoGPrefix)
	}

	p.Prefix = "brain.nii.gz"
	named := p.WithDerivedNames()

	if named.DoGPrefix != "brain_DOG.nii.gz" {
		t.Errorf("Expected brain_DOG.nii.gz, got %q", named.DoGPrefix)
	}
	if named.MaskPrefix != "brain_MASK.nii.gz" {
		t.Errorf("Expected brain_MASK.nii.gz, got %q", named.MaskPrefix)
	}

	// the receiver is a value: the original is untouched
	if p.DoGPrefix != DefaultDoGPrefix {
		t.Errorf("Original params were modified: %q", p.DoGPrefix)
	}

	p.Prefix = ""
	if got := p.WithDerivedNames().DoGPrefix; got != DefaultDoGPrefix {
		t.Errorf("Expected default DoG prefix without prefix, got %q", got)
	}
}
