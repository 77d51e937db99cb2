// Package catalog normalizes the raw CloudCode model list into tiered,
// quota-annotated descriptors and picks a default model per tier.
package catalog

import (
	"sort"
	"strings"
)

// Tier is a capability class that buckets models by intended task
// complexity and cost.
type Tier string

const (
	TierOpus   Tier = "opus"
	TierSonnet Tier = "sonnet"
	TierHaiku  Tier = "haiku"
)

// Family is the upstream model lineage a model id belongs to.
type Family string

const (
	FamilyClaude Family = "claude"
	FamilyGemini Family = "gemini"
)

// familyTokens is matched against model ids in order; first match wins.
// Ids matching no family are catalog noise and get dropped.
var familyTokens = []Family{FamilyClaude, FamilyGemini}

// RawModel is one entry of the provider catalog after wire-format parsing.
// RemainingFraction is nil when the provider reported no quota figure.
type RawModel struct {
	DisplayName       string
	RemainingFraction *float64
}

// RawCatalog maps model id to provider metadata.
type RawCatalog map[string]RawModel

// Model is a normalized catalog entry. Models are ephemeral: rebuilt on
// every resolution pass, never persisted.
type Model struct {
	ID                string   `json:"id"`
	Family            Family   `json:"family"`
	Tier              Tier     `json:"tier"`
	HasQuota          bool     `json:"has_quota"`
	RemainingFraction *float64 `json:"remaining_fraction,omitempty"`
}

// AllTiers lists the three tiers from most to least capable.
func AllTiers() []Tier {
	return []Tier{TierOpus, TierSonnet, TierHaiku}
}

func tierRank(t Tier) int {
	switch t {
	case TierOpus:
		return 3
	case TierSonnet:
		return 2
	case TierHaiku:
		return 1
	}
	return 0
}

// FamilyFromID derives the family from a model id, or "" for noise entries.
func FamilyFromID(id string) Family {
	lower := strings.ToLower(id)
	for _, f := range familyTokens {
		if strings.Contains(lower, string(f)) {
			return f
		}
	}
	return ""
}

// TierFromID derives the tier from the id's naming convention. High-capability
// markers win over low-capability markers; everything else lands in the
// sonnet catch-all bucket.
func TierFromID(id string) Tier {
	lower := strings.ToLower(id)
	switch {
	case strings.Contains(lower, "opus") || strings.Contains(lower, "pro"):
		return TierOpus
	case strings.Contains(lower, "haiku") || strings.Contains(lower, "lite") || strings.Contains(lower, "mini"):
		return TierHaiku
	default:
		return TierSonnet
	}
}

// Normalize converts a raw provider catalog into ordered model descriptors.
// Entries with no recognizable family are dropped silently. An empty or
// absent raw catalog yields the static fallback list, so the resolver never
// operates on an empty catalog.
func Normalize(raw RawCatalog) []Model {
	if len(raw) == 0 {
		return FallbackCatalog()
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]Model, 0, len(ids))
	for _, id := range ids {
		family := FamilyFromID(id)
		if family == "" {
			continue
		}
		entry := raw[id]
		result = append(result, Model{
			ID:                id,
			Family:            family,
			Tier:              TierFromID(id),
			HasQuota:          entry.RemainingFraction == nil || *entry.RemainingFraction > 0,
			RemainingFraction: entry.RemainingFraction,
		})
	}

	if len(result) == 0 {
		return FallbackCatalog()
	}
	return result
}

// FallbackCatalog returns the static built-in descriptors used when the live
// catalog cannot be fetched. It covers every tier for both families, so tier
// resolution always has somewhere to land.
func FallbackCatalog() []Model {
	return []Model{
		{ID: "claude-opus-4-5", Family: FamilyClaude, Tier: TierOpus, HasQuota: true},
		{ID: "gemini-3-pro", Family: FamilyGemini, Tier: TierOpus, HasQuota: true},
		{ID: "claude-sonnet-4-5", Family: FamilyClaude, Tier: TierSonnet, HasQuota: true},
		{ID: "gemini-2.5-flash", Family: FamilyGemini, Tier: TierSonnet, HasQuota: true},
		{ID: "gemini-2.5-flash-lite", Family: FamilyGemini, Tier: TierHaiku, HasQuota: true},
		{ID: "claude-haiku-4-5", Family: FamilyClaude, Tier: TierHaiku, HasQuota: true},
	}
}
