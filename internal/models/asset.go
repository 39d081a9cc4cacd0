// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package models

import "time"

// AssetState is the ingest/enrichment lifecycle state of an Asset.
type AssetState string

const (
	AssetNew       AssetState = "new"
	AssetEnriching AssetState = "enriching"
	AssetReady     AssetState = "ready"
	AssetRetired   AssetState = "retired"
)

// LegalAssetTransition reports whether moving from s to t is permitted by
// the asset state machine: new<->enriching, enriching->ready, any->retired,
// and the identity transition.
func LegalAssetTransition(s, t AssetState) bool {
	if s == t {
		return true
	}
	if t == AssetRetired {
		return true
	}
	switch {
	case s == AssetNew && t == AssetEnriching:
		return true
	case s == AssetEnriching && t == AssetNew:
		return true
	case s == AssetEnriching && t == AssetReady:
		return true
	}
	return false
}

// Marker is a probe- or operator-derived time range on an Asset (chapter,
// cue point, etc). 0 <= StartMS <= EndMS <= Asset.DurationMS must hold.
type Marker struct {
	Kind    string `json:"kind"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
}

// Asset is a content-addressed entity identified by its canonical key and
// SHA-256 hash.
type Asset struct {
	ID                  string     `json:"id"`
	CanonicalKey        string     `json:"canonical_key"`
	SHA256Hex           string     `json:"sha256_hex"`
	State               AssetState `json:"state"`
	ApprovedForBroadcast bool      `json:"approved_for_broadcast"`
	IsDeleted           bool       `json:"is_deleted"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
	DurationMS          int64      `json:"duration_ms"`
	Markers             []Marker   `json:"markers,omitempty"`
	CollectionID        string     `json:"collection_id"`
}

// Schedulable implements the "schedulable triple-gate" invariant: exactly
// one combination of (state, approved, deleted) may be scheduled.
func (a Asset) Schedulable() bool {
	return a.State == AssetReady && a.ApprovedForBroadcast && !a.IsDeleted
}

// Valid checks the structural invariants that must hold regardless of
// lifecycle transition: soft-delete/deleted_at agreement, marker bounds,
// and the approved-implies-ready / duration-required-for-ready rules.
func (a Asset) Valid() []string {
	var violations []string
	if a.IsDeleted != (a.DeletedAt != nil) {
		violations = append(violations, "is_deleted and deleted_at disagree")
	}
	if a.ApprovedForBroadcast && a.State != AssetReady {
		violations = append(violations, "approved_for_broadcast requires state=ready")
	}
	if a.State == AssetReady && a.DurationMS <= 0 {
		violations = append(violations, "state=ready requires duration_ms > 0")
	}
	for _, m := range a.Markers {
		if m.StartMS < 0 || m.EndMS > a.DurationMS || m.StartMS > m.EndMS {
			violations = append(violations, "marker out of bounds: "+m.Kind)
		}
	}
	return violations
}

// Source is an external-content provider (Plex, filesystem, ...).
type Source struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Config      map[string]any `json:"config"`
	EnricherIDs []string       `json:"enricher_ids,omitempty"`
}

// Collection belongs to a Source and gates ingest eligibility.
type Collection struct {
	ID           string `json:"id"`
	SourceID     string `json:"source_id"`
	Name         string `json:"name"`
	SyncEnabled  bool   `json:"sync_enabled"`
	Ingestible   bool   `json:"ingestible"`
}

// EnricherScope is where in the pipeline an Enricher runs.
type EnricherScope string

const (
	EnricherScopeIngest  EnricherScope = "ingest"
	EnricherScopePlayout EnricherScope = "playout"
)

// Enricher is a validated, type-specific content-enrichment configuration.
type Enricher struct {
	ID     string         `json:"id"` // enricher-{type}-{hash}
	Type   string         `json:"type"`
	Scope  EnricherScope  `json:"scope"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
}
