package catalog

import "testing"

func TestSelectForTier_PrefersQuota(t *testing.T) {
	models := []Model{
		{ID: "claude-opus-exhausted", Family: FamilyClaude, Tier: TierOpus, HasQuota: false},
		{ID: "claude-opus-available", Family: FamilyClaude, Tier: TierOpus, HasQuota: true},
	}
	if got := SelectForTier(models, TierOpus); got != "claude-opus-available" {
		t.Fatalf("SelectForTier = %q, want the entry with remaining quota", got)
	}
	// Input order must not matter.
	models[0], models[1] = models[1], models[0]
	if got := SelectForTier(models, TierOpus); got != "claude-opus-available" {
		t.Fatalf("SelectForTier after reorder = %q, selection must be deterministic", got)
	}
}

func TestSelectForTier_FamilyPreference(t *testing.T) {
	models := []Model{
		{ID: "gemini-3-pro", Family: FamilyGemini, Tier: TierOpus, HasQuota: true},
		{ID: "claude-opus-4-5", Family: FamilyClaude, Tier: TierOpus, HasQuota: true},
		{ID: "gemini-2.5-flash-lite", Family: FamilyGemini, Tier: TierHaiku, HasQuota: true},
		{ID: "claude-haiku-4-5", Family: FamilyClaude, Tier: TierHaiku, HasQuota: true},
	}

	if got := SelectForTier(models, TierOpus); got != "claude-opus-4-5" {
		t.Fatalf("opus tier = %q, want the claude lineage", got)
	}
	if got := SelectForTier(models, TierHaiku); got != "gemini-2.5-flash-lite" {
		t.Fatalf("haiku tier = %q, want the cost-saving gemini lineage", got)
	}
}

func TestSelectForTier_SubstitutesOneTierBelow(t *testing.T) {
	onlySonnet := []Model{
		{ID: "claude-sonnet-4-5", Family: FamilyClaude, Tier: TierSonnet, HasQuota: true},
	}

	// A sonnet model is a close substitute for opus.
	if got := SelectForTier(onlySonnet, TierOpus); got != "claude-sonnet-4-5" {
		t.Fatalf("opus with sonnet-only catalog = %q, want the substitute", got)
	}
	// But never serves haiku from above: that falls through to the built-in.
	if got := SelectForTier(onlySonnet, TierHaiku); got != "gemini-2.5-flash-lite" {
		t.Fatalf("haiku with sonnet-only catalog = %q, want the built-in default", got)
	}
}

func TestSelectForTier_ExactTierBeatsSubstitute(t *testing.T) {
	models := []Model{
		{ID: "claude-sonnet-4-5", Family: FamilyClaude, Tier: TierSonnet, HasQuota: true},
		{ID: "claude-opus-4-5", Family: FamilyClaude, Tier: TierOpus, HasQuota: true},
	}
	if got := SelectForTier(models, TierOpus); got != "claude-opus-4-5" {
		t.Fatalf("SelectForTier = %q, exact tier must beat the substitute", got)
	}
}

func TestSelectForTier_AllExhausted(t *testing.T) {
	models := []Model{
		{ID: "claude-opus-4-5", Family: FamilyClaude, Tier: TierOpus, HasQuota: false},
		{ID: "gemini-3-pro", Family: FamilyGemini, Tier: TierOpus, HasQuota: false},
	}
	// With every candidate exhausted the ranking order still decides.
	if got := SelectForTier(models, TierOpus); got != "claude-opus-4-5" {
		t.Fatalf("SelectForTier = %q, want the best-ranked exhausted entry", got)
	}
}

func TestResolveAllTiers_Fallback(t *testing.T) {
	sel := ResolveAllTiers(FallbackCatalog())
	if sel.Opus != "claude-opus-4-5" {
		t.Errorf("opus = %q", sel.Opus)
	}
	if sel.Sonnet != "claude-sonnet-4-5" {
		t.Errorf("sonnet = %q", sel.Sonnet)
	}
	if sel.Haiku != "gemini-2.5-flash-lite" {
		t.Errorf("haiku = %q", sel.Haiku)
	}
}

func TestApplyRoutes(t *testing.T) {
	sel := TierSelection{Opus: "claude-opus-4-5", Sonnet: "claude-sonnet-4-5", Haiku: "claude-haiku-4-5"}

	pinned := ApplyRoutes(sel, map[string]string{
		"sonnet": "gemini-2.5-flash",
		"haiku":  "",
	})
	if pinned.Sonnet != "gemini-2.5-flash" {
		t.Fatalf("sonnet pin not applied: %q", pinned.Sonnet)
	}
	if pinned.Opus != "claude-opus-4-5" {
		t.Fatalf("unpinned tier changed: %q", pinned.Opus)
	}
	if pinned.Haiku != "claude-haiku-4-5" {
		t.Fatalf("empty pin must be ignored: %q", pinned.Haiku)
	}

	unchanged := ApplyRoutes(sel, nil)
	if unchanged != sel {
		t.Fatalf("nil pins must leave the selection alone: %+v", unchanged)
	}
}
