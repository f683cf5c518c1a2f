package crosswalk

import (
	"fmt"
	"strings"
)

// Provider is a namespace of native player identifiers.
type Provider string

const (
	ProviderStatcast  Provider = "statcast"
	ProviderFanGraphs Provider = "fangraphs"
	ProviderBRef      Provider = "bref"
	ProviderRetro     Provider = "retro"
)

// Providers lists every identifier namespace in display order.
var Providers = []Provider{ProviderStatcast, ProviderFanGraphs, ProviderBRef, ProviderRetro}

func (p Provider) Valid() bool {
	switch p {
	case ProviderStatcast, ProviderFanGraphs, ProviderBRef, ProviderRetro:
		return true
	default:
		return false
	}
}

// ParseProvider accepts provider keys and the common aliases used by the
// upstream sites (mlbam, savant, fg, bbref, retrosheet).
func ParseProvider(raw string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "statcast", "savant", "mlbam", "mlb":
		return ProviderStatcast, nil
	case "fangraphs", "fg":
		return ProviderFanGraphs, nil
	case "bref", "bbref", "baseball-reference":
		return ProviderBRef, nil
	case "retro", "retrosheet":
		return ProviderRetro, nil
	default:
		return "", fmt.Errorf("unknown provider %q", raw)
	}
}

// Scheme is one persisted identifier column. A provider may own several
// schemes, e.g. Baseball-Reference major and minor league ids.
type Scheme string

const (
	SchemeMLBAM      Scheme = "key_mlbam"
	SchemeRetro      Scheme = "key_retro"
	SchemeBRef       Scheme = "key_bbref"
	SchemeBRefMinors Scheme = "key_bbref_minors"
	SchemeFanGraphs  Scheme = "key_fangraphs"
)

const (
	ColumnKey         = "key_person"
	ColumnNameFirst   = "name_first"
	ColumnNameLast    = "name_last"
	ColumnPlayedFirst = "mlb_played_first"
	ColumnPlayedLast  = "mlb_played_last"
)

// Schemes is ordered by priority within a provider: the first scheme with a
// value is a player's primary id for that provider.
var Schemes = []Scheme{SchemeMLBAM, SchemeRetro, SchemeBRef, SchemeBRefMinors, SchemeFanGraphs}

func (s Scheme) Provider() Provider {
	switch s {
	case SchemeMLBAM:
		return ProviderStatcast
	case SchemeRetro:
		return ProviderRetro
	case SchemeBRef, SchemeBRefMinors:
		return ProviderBRef
	case SchemeFanGraphs:
		return ProviderFanGraphs
	default:
		return ""
	}
}

// SchemesFor returns the schemes owned by p in priority order.
func SchemesFor(p Provider) []Scheme {
	out := make([]Scheme, 0, 2)
	for _, s := range Schemes {
		if s.Provider() == p {
			out = append(out, s)
		}
	}
	return out
}

// CanonicalKey identifies one real-world player across every provider. Keys
// are opaque and never reused.
type CanonicalKey string

// Record is one crosswalk row.
type Record struct {
	Key       CanonicalKey
	NameFirst string
	NameLast  string
	// MLBFirst and MLBLast are the first and last MLB seasons, 0 if the
	// player never appeared in a major league game.
	MLBFirst int
	MLBLast  int
	IDs      map[Scheme]string
}

func (r Record) FullName() string {
	return strings.TrimSpace(r.NameFirst + " " + r.NameLast)
}

// PlayedMLB reports whether both MLB seasons are known.
func (r Record) PlayedMLB() bool {
	return r.MLBFirst > 0 && r.MLBLast > 0
}

// NativeIDs returns every id r holds in provider p, primary first.
func (r Record) NativeIDs(p Provider) []string {
	var out []string
	for _, s := range SchemesFor(p) {
		if v := r.IDs[s]; v != "" {
			out = append(out, v)
		}
	}
	return out
}

// PrimaryID returns the first id r holds in provider p.
func (r Record) PrimaryID(p Provider) (string, bool) {
	for _, s := range SchemesFor(p) {
		if v := r.IDs[s]; v != "" {
			return v, true
		}
	}
	return "", false
}
