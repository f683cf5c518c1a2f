// Package view holds the JSON shapes shared by the HTTP API and the CLI.
package view

import (
	"time"

	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
	"github.com/riskibarqy/statlink/internal/usecase"
)

const dateLayout = "2006-01-02"

type Player struct {
	Key            string            `json:"key"`
	Name           string            `json:"name"`
	NameFirst      string            `json:"nameFirst,omitempty"`
	NameLast       string            `json:"nameLast,omitempty"`
	MLBPlayedFirst int               `json:"mlbPlayedFirst,omitempty"`
	MLBPlayedLast  int               `json:"mlbPlayedLast,omitempty"`
	IDs            map[string]string `json:"ids"`
}

func NewPlayer(r crosswalk.Record) Player {
	ids := make(map[string]string, len(r.IDs))
	for scheme, v := range r.IDs {
		if v != "" {
			ids[string(scheme)] = v
		}
	}
	return Player{
		Key:            string(r.Key),
		Name:           r.FullName(),
		NameFirst:      r.NameFirst,
		NameLast:       r.NameLast,
		MLBPlayedFirst: r.MLBFirst,
		MLBPlayedLast:  r.MLBLast,
		IDs:            ids,
	}
}

func NewPlayers(records []crosswalk.Record) []Player {
	out := make([]Player, 0, len(records))
	for _, r := range records {
		out = append(out, NewPlayer(r))
	}
	return out
}

type Lookup struct {
	Provider string `json:"provider"`
	NativeID string `json:"nativeId"`
	Key      string `json:"key"`
}

type Snapshot struct {
	Source     string     `json:"source"`
	FetchedAt  time.Time  `json:"fetchedAt"`
	Rows       int        `json:"rows"`
	MirroredAt *time.Time `json:"mirroredAt,omitempty"`
	Stale      bool       `json:"stale,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
}

func NewSnapshot(info crosswalk.SnapshotInfo) Snapshot {
	out := Snapshot{Source: info.Source, FetchedAt: info.FetchedAt, Rows: info.Rows}
	if !info.MirroredAt.IsZero() {
		at := info.MirroredAt
		out.MirroredAt = &at
	}
	return out
}

func NewTableSnapshot(t *crosswalk.Table) Snapshot {
	return Snapshot{Source: t.Source(), FetchedAt: t.FetchedAt(), Rows: t.Len()}
}

// NewStateSnapshot carries the staleness of an ensured crosswalk.
func NewStateSnapshot(st usecase.CrosswalkState) Snapshot {
	out := NewSnapshot(st.Info())
	out.Stale = st.Stale
	if st.RefreshErr != nil {
		out.LastError = st.RefreshErr.Error()
	}
	return out
}

type Resource struct {
	Resource      string     `json:"resource"`
	RefreshedAt   *time.Time `json:"refreshedAt,omitempty"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
	Refreshing    bool       `json:"refreshing"`
	Stale         bool       `json:"stale"`
}

func NewResource(s usecase.ResourceStatus, maxAge time.Duration, now time.Time) Resource {
	out := Resource{
		Resource:      s.Resource,
		RefreshedAt:   timePtr(s.RefreshedAt),
		LastAttemptAt: timePtr(s.LastAttemptAt),
		Refreshing:    s.Refreshing,
		Stale:         s.Stale(maxAge, now),
	}
	if s.LastError != nil {
		out.LastError = s.LastError.Error()
	}
	return out
}

type Status struct {
	Crosswalk *Snapshot  `json:"crosswalk,omitempty"`
	Mirror    *Snapshot  `json:"mirror,omitempty"`
	Resources []Resource `json:"resources"`
}

type Record struct {
	Provider   string             `json:"provider"`
	NativeID   string             `json:"nativeId"`
	PlayerName string             `json:"playerName,omitempty"`
	Season     int                `json:"season,omitempty"`
	Date       string             `json:"date,omitempty"`
	Category   string             `json:"category"`
	Stats      map[string]float64 `json:"stats,omitempty"`
	Labels     map[string]string  `json:"labels,omitempty"`
}

func NewRecord(r statrecord.Record) Record {
	out := Record{
		Provider:   string(r.Provider),
		NativeID:   r.NativeID,
		PlayerName: r.PlayerName,
		Season:     r.Season,
		Category:   string(r.Category),
	}
	if !r.Date.IsZero() {
		out.Date = r.Date.Format(dateLayout)
	}
	if len(r.Stats) > 0 {
		out.Stats = make(map[string]float64, len(r.Stats))
		for f, v := range r.Stats {
			out.Stats[string(f)] = v
		}
	}
	if len(r.Labels) > 0 {
		out.Labels = make(map[string]string, len(r.Labels))
		for f, v := range r.Labels {
			out.Labels[string(f)] = v
		}
	}
	return out
}

type JoinedPlayer struct {
	Key     string              `json:"key"`
	Name    string              `json:"name,omitempty"`
	Records map[string][]Record `json:"records"`
}

type Dataset struct {
	Provider  string    `json:"provider"`
	Records   int       `json:"records"`
	FetchedAt time.Time `json:"fetchedAt"`
	Stale     bool      `json:"stale"`
	LastError string    `json:"lastError,omitempty"`
}

type Acquisition struct {
	RunID                string         `json:"runId"`
	Crosswalk            Snapshot       `json:"crosswalk"`
	Datasets             []Dataset      `json:"datasets"`
	Players              []JoinedPlayer `json:"players"`
	Unresolved           []Record       `json:"unresolved"`
	UnresolvedByProvider map[string]int `json:"unresolvedByProvider"`
}

func NewAcquisition(res usecase.AcquisitionResult) Acquisition {
	out := Acquisition{
		RunID:                res.RunID,
		Crosswalk:            NewSnapshot(res.Crosswalk),
		Datasets:             make([]Dataset, 0, len(res.Datasets)),
		Players:              make([]JoinedPlayer, 0, len(res.Join.Players)),
		Unresolved:           make([]Record, 0, len(res.Join.Unresolved)),
		UnresolvedByProvider: make(map[string]int, len(res.Join.UnresolvedByProvider)),
	}
	out.Crosswalk.Stale = res.CrosswalkStale
	if res.CrosswalkError != nil {
		out.Crosswalk.LastError = res.CrosswalkError.Error()
	}
	for _, d := range res.Datasets {
		ds := Dataset{Provider: string(d.Provider), Records: d.Records, FetchedAt: d.FetchedAt, Stale: d.Stale}
		if d.LastError != nil {
			ds.LastError = d.LastError.Error()
		}
		out.Datasets = append(out.Datasets, ds)
	}
	for _, p := range res.Join.Players {
		jp := JoinedPlayer{Key: string(p.Key), Name: p.Name, Records: make(map[string][]Record, len(p.ByProvider))}
		for provider, records := range p.ByProvider {
			converted := make([]Record, 0, len(records))
			for _, r := range records {
				converted = append(converted, NewRecord(r))
			}
			jp.Records[string(provider)] = converted
		}
		out.Players = append(out.Players, jp)
	}
	for _, r := range res.Join.Unresolved {
		out.Unresolved = append(out.Unresolved, NewRecord(r.Record))
	}
	for p, n := range res.Join.UnresolvedByProvider {
		out.UnresolvedByProvider[string(p)] = n
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
