package cache

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	crosswalkmock "github.com/riskibarqy/statlink/internal/mocks/domain/crosswalk"
	basecache "github.com/riskibarqy/statlink/internal/platform/cache"
	"github.com/stretchr/testify/mock"
)

func TestCrosswalkRepository_LookupIsCachedUntilReplace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := crosswalkmock.NewMirror(t)
	repo := NewCrosswalkRepository(next, basecache.NewStore(time.Minute))

	next.On("Lookup", mock.Anything, crosswalk.ProviderFanGraphs, "10155").
		Return(crosswalk.CanonicalKey("K1"), true, nil).
		Twice()

	for i := 0; i < 3; i++ {
		key, ok, err := repo.Lookup(ctx, crosswalk.ProviderFanGraphs, "10155")
		if err != nil || !ok || key != "K1" {
			t.Fatalf("lookup %d: got=%q ok=%v err=%v", i, key, ok, err)
		}
	}

	table, err := crosswalk.NewTable([]crosswalk.Record{
		{Key: "K1", IDs: map[crosswalk.Scheme]string{crosswalk.SchemeFanGraphs: "10155"}},
	}, crosswalk.Meta{Source: "test"})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	next.On("Replace", mock.Anything, table).Return(nil).Once()
	if err := repo.Replace(ctx, table); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if _, _, err := repo.Lookup(ctx, crosswalk.ProviderFanGraphs, "10155"); err != nil {
		t.Fatalf("lookup after replace: %v", err)
	}
}

func TestCrosswalkRepository_CachesMisses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := crosswalkmock.NewMirror(t)
	repo := NewCrosswalkRepository(next, basecache.NewStore(time.Minute))

	next.On("Lookup", mock.Anything, crosswalk.ProviderBRef, "nobody01").
		Return(crosswalk.CanonicalKey(""), false, nil).
		Once()

	for i := 0; i < 2; i++ {
		if _, ok, err := repo.Lookup(ctx, crosswalk.ProviderBRef, "nobody01"); err != nil || ok {
			t.Fatalf("expected cached miss, ok=%v err=%v", ok, err)
		}
	}
}
