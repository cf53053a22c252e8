package providers

import (
	"context"
	"testing"

	"encodeforge/internal/fingerprint"
)

type fakeProvider struct {
	name      string
	languages []string
}

func (f fakeProvider) Name() string        { return f.name }
func (f fakeProvider) Languages() []string { return f.languages }

func (f fakeProvider) Search(context.Context, fingerprint.MediaFingerprint, []string) ([]Candidate, error) {
	return nil, nil
}

func (f fakeProvider) Retrieve(context.Context, Candidate) (Payload, error) {
	return Payload{}, nil
}

func TestRegistryOrderedFollowsRegistration(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"alpha", "beta", "gamma"} {
		reg.Register(fakeProvider{name: name})
	}

	ordered := reg.Ordered()
	if len(ordered) != 3 {
		t.Fatalf("Ordered() returned %d providers, want 3", len(ordered))
	}
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if got := ordered[i].Name(); got != want {
			t.Errorf("ordered[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	reg.Register(fakeProvider{name: "alpha", languages: []string{"eng"}})
	reg.Register(fakeProvider{name: "Alpha ", languages: []string{"spa"}})

	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}
	p, ok := reg.Get("ALPHA")
	if !ok {
		t.Fatal("Get(ALPHA) did not find provider")
	}
	if langs := p.Languages(); len(langs) != 1 || langs[0] != "eng" {
		t.Errorf("first registration was replaced, Languages() = %v", langs)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Get("nope"); ok {
		t.Error("Get on empty registry reported a provider")
	}
}
