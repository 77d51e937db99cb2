package catalog

import "sort"

// TierSelection holds the resolved default model id per tier.
type TierSelection struct {
	Opus   string `json:"opus"`
	Sonnet string `json:"sonnet"`
	Haiku  string `json:"haiku"`
}

// familyPreference orders families per tier: cheap work prefers the
// cost-saving gemini lineage, serious work prefers the claude lineage.
func familyPreference(tier Tier) []Family {
	if tier == TierHaiku {
		return []Family{FamilyGemini, FamilyClaude}
	}
	return []Family{FamilyClaude, FamilyGemini}
}

func familyRank(tier Tier, family Family) int {
	for i, f := range familyPreference(tier) {
		if f == family {
			return i
		}
	}
	return len(familyPreference(tier))
}

// SelectForTier picks the default model id serving a tier. It is a pure
// function of its inputs: no I/O, deterministic for a given catalog.
//
// Candidates are models at the requested tier or exactly one tier below
// (a close substitute); anything further never serves the request. Ranking
// prefers models with remaining quota, then the tier's preferred family,
// then the exact tier over the substitute. If no candidate survives, the
// static fallback entry for the exact tier is used, so the result is
// non-empty whenever any catalog exists.
func SelectForTier(models []Model, tier Tier) string {
	want := tierRank(tier)

	candidates := make([]Model, 0, len(models))
	for _, m := range models {
		r := tierRank(m.Tier)
		if r >= want-1 && r <= want {
			candidates = append(candidates, m)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.HasQuota != b.HasQuota {
			return a.HasQuota
		}
		if fa, fb := familyRank(tier, a.Family), familyRank(tier, b.Family); fa != fb {
			return fa < fb
		}
		return tierRank(a.Tier) > tierRank(b.Tier)
	})

	for _, m := range candidates {
		if m.HasQuota {
			return m.ID
		}
	}
	if len(candidates) > 0 {
		return candidates[0].ID
	}

	// Nothing usable at or near this tier: hand back the built-in default.
	for _, m := range FallbackCatalog() {
		if m.Tier == tier {
			return m.ID
		}
	}
	return ""
}

// ResolveAllTiers resolves a default model for each of the three tiers.
func ResolveAllTiers(models []Model) TierSelection {
	return TierSelection{
		Opus:   SelectForTier(models, TierOpus),
		Sonnet: SelectForTier(models, TierSonnet),
		Haiku:  SelectForTier(models, TierHaiku),
	}
}

// ApplyRoutes overlays persisted tier pins onto a resolved selection.
func ApplyRoutes(sel TierSelection, pins map[string]string) TierSelection {
	if v, ok := pins[string(TierOpus)]; ok && v != "" {
		sel.Opus = v
	}
	if v, ok := pins[string(TierSonnet)]; ok && v != "" {
		sel.Sonnet = v
	}
	if v, ok := pins[string(TierHaiku)]; ok && v != "" {
		sel.Haiku = v
	}
	return sel
}
