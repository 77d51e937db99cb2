package catalog

import "testing"

func floatPtr(f float64) *float64 { return &f }

func TestFamilyFromID(t *testing.T) {
	tests := []struct {
		id   string
		want Family
	}{
		{"claude-sonnet-4-5", FamilyClaude},
		{"CLAUDE-OPUS-4-5", FamilyClaude},
		{"gemini-3-pro", FamilyGemini},
		{"gemini-2.5-flash-lite", FamilyGemini},
		{"chat-bison", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FamilyFromID(tt.id); got != tt.want {
			t.Errorf("FamilyFromID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestTierFromID(t *testing.T) {
	tests := []struct {
		id   string
		want Tier
	}{
		{"claude-opus-4-5", TierOpus},
		{"gemini-3-pro", TierOpus},
		{"claude-haiku-4-5", TierHaiku},
		{"gemini-2.5-flash-lite", TierHaiku},
		{"gemini-2.5-flash-mini", TierHaiku},
		{"claude-sonnet-4-5", TierSonnet},
		{"gemini-2.5-flash", TierSonnet},
		{"some-unknown-model", TierSonnet},
	}
	for _, tt := range tests {
		if got := TierFromID(tt.id); got != tt.want {
			t.Errorf("TierFromID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	raw := RawCatalog{
		"gemini-3-pro":      {DisplayName: "Gemini 3 Pro", RemainingFraction: floatPtr(0.8)},
		"claude-sonnet-4-5": {DisplayName: "Claude Sonnet 4.5"},
		"claude-opus-4-5":   {DisplayName: "Claude Opus 4.5", RemainingFraction: floatPtr(0)},
		"chat-bison":        {DisplayName: "Legacy"},
	}

	models := Normalize(raw)
	if len(models) != 3 {
		t.Fatalf("expected 3 models after dropping noise, got %d", len(models))
	}

	// Output is ordered by id for determinism.
	wantIDs := []string{"claude-opus-4-5", "claude-sonnet-4-5", "gemini-3-pro"}
	for i, id := range wantIDs {
		if models[i].ID != id {
			t.Fatalf("models[%d].ID = %q, want %q", i, models[i].ID, id)
		}
	}

	byID := map[string]Model{}
	for _, m := range models {
		byID[m.ID] = m
	}
	if m := byID["claude-opus-4-5"]; m.HasQuota || m.Tier != TierOpus || m.Family != FamilyClaude {
		t.Fatalf("exhausted opus normalized wrong: %+v", m)
	}
	if m := byID["claude-sonnet-4-5"]; !m.HasQuota {
		t.Fatalf("missing quota figure must count as available: %+v", m)
	}
	if m := byID["gemini-3-pro"]; !m.HasQuota || m.RemainingFraction == nil || *m.RemainingFraction != 0.8 {
		t.Fatalf("quota fraction not carried through: %+v", m)
	}
}

func TestNormalize_FallsBackWhenEmpty(t *testing.T) {
	for name, raw := range map[string]RawCatalog{
		"nil catalog":   nil,
		"empty catalog": {},
		"only noise":    {"chat-bison": {}, "text-embedding-004": {}},
	} {
		t.Run(name, func(t *testing.T) {
			models := Normalize(raw)
			if len(models) == 0 {
				t.Fatal("normalization must never yield an empty catalog")
			}
			tiers := map[Tier]bool{}
			for _, m := range models {
				if !m.HasQuota {
					t.Fatalf("fallback entries must all have quota: %+v", m)
				}
				tiers[m.Tier] = true
			}
			for _, tier := range AllTiers() {
				if !tiers[tier] {
					t.Fatalf("fallback catalog missing tier %s", tier)
				}
			}
		})
	}
}
