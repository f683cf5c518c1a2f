package usecase

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/platform/metrics"
)

// PlayerRecords groups one player's records by provider.
type PlayerRecords struct {
	Key        crosswalk.CanonicalKey
	Name       string
	ByProvider map[crosswalk.Provider][]statrecord.Record
}

type JoinResult struct {
	// Players is ordered by canonical key.
	Players []PlayerRecords
	// Unresolved holds records whose native id is not in the crosswalk.
	Unresolved           []statrecord.Resolved
	UnresolvedByProvider map[crosswalk.Provider]int
}

type ResolutionService struct {
	metrics *metrics.Manager
	logger  *logging.Logger
}

func NewResolutionService(m *metrics.Manager, logger *logging.Logger) *ResolutionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResolutionService{metrics: m, logger: logger}
}

// Resolve tags every record with its canonical key. A record whose id is not
// in table is kept and marked unresolved. Only a sequence error or
// cancellation fails the call.
func (s *ResolutionService) Resolve(ctx context.Context, records iter.Seq2[statrecord.Record, error], table *crosswalk.Table) ([]statrecord.Resolved, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: crosswalk table is required", ErrInvalidInput)
	}

	var out []statrecord.Resolved
	resolved := make(map[crosswalk.Provider]int, len(crosswalk.Providers))
	unresolved := make(map[crosswalk.Provider]int, len(crosswalk.Providers))
	for rec, err := range records {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := statrecord.Resolved{Record: rec}
		if key, ok := table.Lookup(rec.Provider, rec.NativeID); ok {
			item.Key = key
			resolved[rec.Provider]++
		} else {
			item.Unresolved = true
			unresolved[rec.Provider]++
		}
		out = append(out, item)
	}

	for _, p := range crosswalk.Providers {
		if resolved[p] == 0 && unresolved[p] == 0 {
			continue
		}
		s.metrics.AddResolution(string(p), resolved[p], unresolved[p])
		if unresolved[p] > 0 {
			s.logger.DebugContext(ctx, "records without crosswalk entry", "provider", p, "unresolved", unresolved[p], "resolved", resolved[p])
		}
	}
	return out, nil
}

// Join groups resolved records by canonical key. Within a player, each
// provider's records keep their input order. table is optional and only
// supplies display names.
func (s *ResolutionService) Join(sources map[crosswalk.Provider][]statrecord.Resolved, table *crosswalk.Table) JoinResult {
	result := JoinResult{UnresolvedByProvider: make(map[crosswalk.Provider]int)}
	players := make(map[crosswalk.CanonicalKey]*PlayerRecords)

	for _, p := range sortedProviders(sources) {
		for _, item := range sources[p] {
			if item.Unresolved || item.Key == "" {
				result.Unresolved = append(result.Unresolved, item)
				result.UnresolvedByProvider[p]++
				continue
			}
			player, ok := players[item.Key]
			if !ok {
				player = &PlayerRecords{
					Key:        item.Key,
					Name:       item.PlayerName,
					ByProvider: make(map[crosswalk.Provider][]statrecord.Record, len(sources)),
				}
				if table != nil {
					if rec, found := table.Record(item.Key); found && rec.FullName() != "" {
						player.Name = rec.FullName()
					}
				}
				players[item.Key] = player
			}
			player.ByProvider[p] = append(player.ByProvider[p], item.Record)
		}
	}

	result.Players = make([]PlayerRecords, 0, len(players))
	for _, player := range players {
		result.Players = append(result.Players, *player)
	}
	slices.SortFunc(result.Players, func(a, b PlayerRecords) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return result
}

// sortedProviders returns the keys of sources in crosswalk.Providers order.
func sortedProviders[V any](sources map[crosswalk.Provider]V) []crosswalk.Provider {
	out := make([]crosswalk.Provider, 0, len(sources))
	for _, p := range crosswalk.Providers {
		if _, ok := sources[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
