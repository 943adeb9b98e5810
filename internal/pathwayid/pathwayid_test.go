package pathwayid

import "testing"

func TestBuildIsOrderIndependent(t *testing.T) {
	a := []Choice{{Parameter: "E", Method: "hooke"}, {Parameter: "density", Method: "power_law"}}
	b := []Choice{{Parameter: "density", Method: "power_law"}, {Parameter: "E", Method: "hooke"}}

	idA, _ := Build(a)
	idB, _ := Build(b)
	if idA != idB {
		t.Fatalf("Build should be order-independent: %q != %q", idA, idB)
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	choices := []Choice{{Parameter: "z", Method: "m1"}, {Parameter: "a", Method: "m2"}}
	original := append([]Choice(nil), choices...)
	Build(choices)
	for i := range choices {
		if choices[i] != original[i] {
			t.Fatalf("Build mutated its input slice")
		}
	}
}

func TestFingerprintMatchesBuildID(t *testing.T) {
	choices := []Choice{{Parameter: "density", Method: "power_law"}}
	id, _ := Build(choices)
	if got := Fingerprint(choices); got != id {
		t.Fatalf("Fingerprint() = %q, want %q", got, id)
	}
}

func TestBuildEmptyChoices(t *testing.T) {
	id, desc := Build(nil)
	if id != "" || desc != "" {
		t.Fatalf("empty choices should build empty id/description, got %q %q", id, desc)
	}
}
