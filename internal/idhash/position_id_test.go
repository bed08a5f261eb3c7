package idhash

import "testing"

func TestComputePositionID(t *testing.T) {
	tests := []struct {
		name         string
		address      string
		buySignature string
		openedAtMs   int64
	}{
		{"paper fill", "So11111111111111111111111111111111111111112", "paper-1", 1_700_000_000_000},
		{"empty signature", "mint", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePositionID(tt.address, tt.buySignature, tt.openedAtMs)

			if len(got) != 64 {
				t.Errorf("ComputePositionID() length = %d, want 64", len(got))
			}

			// Verify determinism: same inputs should produce same output
			if again := ComputePositionID(tt.address, tt.buySignature, tt.openedAtMs); again != got {
				t.Errorf("ComputePositionID() not deterministic: %s != %s", got, again)
			}
		})
	}
}

func TestComputePositionID_DifferentInputs(t *testing.T) {
	base := ComputePositionID("mint", "sig", 1000)

	if ComputePositionID("mint2", "sig", 1000) == base {
		t.Error("different address should produce different ID")
	}
	if ComputePositionID("mint", "sig2", 1000) == base {
		t.Error("different signature should produce different ID")
	}
	if ComputePositionID("mint", "sig", 1001) == base {
		t.Error("different open time should produce different ID")
	}
}
