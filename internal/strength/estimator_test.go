package strength

import "testing"

func TestEstimateScoreRange(t *testing.T) {
	est := NewZxcvbn()

	for _, password := range []string{"a", "password", "tr0ub4dor&3", "dG4#kP9!xW2@qLz7"} {
		score, err := est.Estimate(password, nil)
		if err != nil {
			t.Fatalf("Estimate(%q) failed: %v", password, err)
		}
		if score < 0 || score > 4 {
			t.Fatalf("Estimate(%q) = %d, outside 0..4", password, score)
		}
	}
}

func TestEstimateDeterminism(t *testing.T) {
	est := NewZxcvbn()

	first, err := est.Estimate("tr0ub4dor&3", []string{"alice"})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	second, err := est.Estimate("tr0ub4dor&3", []string{"alice"})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if first != second {
		t.Fatalf("score not stable across calls: %d vs %d", first, second)
	}
}

func TestEstimateOrdersObviousCases(t *testing.T) {
	est := NewZxcvbn()

	weak, err := est.Estimate("password", nil)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	strong, err := est.Estimate("dG4#kP9!xW2@qLz7", nil)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	if weak >= strong {
		t.Fatalf("expected %d (weak) < %d (strong)", weak, strong)
	}
	if strong < 3 {
		t.Fatalf("expected a random 16-char password to score at least 3, got %d", strong)
	}
}

func TestEstimateUserInputsPenalize(t *testing.T) {
	est := NewZxcvbn()

	without, err := est.Estimate("alicesmith", nil)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	with, err := est.Estimate("alicesmith", []string{"alicesmith"})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	if with > without {
		t.Fatalf("hinted password must not score higher: with=%d without=%d", with, without)
	}
}
