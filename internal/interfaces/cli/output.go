package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/interfaces/view"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type printer struct {
	format string
	w      io.Writer
}

func (o *RootOptions) printer() printer {
	return printer{format: o.Format, w: o.Stdout}
}

func (p printer) json(v any) error {
	out, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(out))
	return err
}

func (p printer) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

var playerIDColumns = []crosswalk.Scheme{
	crosswalk.SchemeMLBAM,
	crosswalk.SchemeFanGraphs,
	crosswalk.SchemeBRef,
	crosswalk.SchemeRetro,
}

func (p printer) players(players []view.Player) error {
	if p.format == formatJSON {
		return p.json(players)
	}
	header := []string{"KEY", "NAME", "MLB"}
	for _, s := range playerIDColumns {
		header = append(header, strings.ToUpper(strings.TrimPrefix(string(s), "key_")))
	}
	rows := make([][]string, 0, len(players))
	for _, pl := range players {
		row := []string{pl.Key, pl.Name, mlbSpan(pl)}
		for _, s := range playerIDColumns {
			row = append(row, orDash(pl.IDs[string(s)]))
		}
		rows = append(rows, row)
	}
	return p.table(header, rows)
}

func (p printer) value(label, v string) error {
	if p.format == formatJSON {
		return p.json(map[string]string{label: v})
	}
	_, err := fmt.Fprintln(p.w, v)
	return err
}

func (p printer) snapshot(s view.Snapshot) error {
	if p.format == formatJSON {
		return p.json(s)
	}
	_, err := fmt.Fprintf(p.w, "crosswalk: %d rows from %s, fetched %s\n", s.Rows, s.Source, s.FetchedAt.Format(time.RFC3339))
	return err
}

func (p printer) status(s view.Status) error {
	if p.format == formatJSON {
		return p.json(s)
	}
	if s.Crosswalk != nil {
		fmt.Fprintf(p.w, "crosswalk: %d rows from %s, fetched %s\n", s.Crosswalk.Rows, s.Crosswalk.Source, s.Crosswalk.FetchedAt.Format(time.RFC3339))
	} else {
		fmt.Fprintln(p.w, "crosswalk: not loaded")
	}
	if s.Mirror != nil {
		fmt.Fprintf(p.w, "mirror: %d rows, fetched %s\n", s.Mirror.Rows, s.Mirror.FetchedAt.Format(time.RFC3339))
	}
	if len(s.Resources) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(s.Resources))
	for _, r := range s.Resources {
		rows = append(rows, []string{r.Resource, formatTime(r.RefreshedAt), fmt.Sprint(r.Stale), orDash(r.LastError)})
	}
	return p.table([]string{"RESOURCE", "REFRESHED", "STALE", "LAST ERROR"}, rows)
}

func (p printer) acquisition(a view.Acquisition) error {
	if p.format == formatJSON {
		return p.json(a)
	}
	fmt.Fprintf(p.w, "run %s: %d players joined, %d unresolved records\n", a.RunID, len(a.Players), len(a.Unresolved))

	rows := make([][]string, 0, len(a.Datasets))
	for _, d := range a.Datasets {
		rows = append(rows, []string{
			d.Provider,
			fmt.Sprint(d.Records),
			fmt.Sprint(a.UnresolvedByProvider[d.Provider]),
			d.FetchedAt.Format(time.RFC3339),
			fmt.Sprint(d.Stale),
		})
	}
	if err := p.table([]string{"PROVIDER", "RECORDS", "UNRESOLVED", "FETCHED", "STALE"}, rows); err != nil {
		return err
	}

	fmt.Fprintln(p.w)
	rows = rows[:0]
	for _, pl := range a.Players {
		providers := make([]string, 0, len(pl.Records))
		for provider, records := range pl.Records {
			providers = append(providers, fmt.Sprintf("%s=%d", provider, len(records)))
		}
		slices.Sort(providers)
		rows = append(rows, []string{pl.Key, orDash(pl.Name), strings.Join(providers, " ")})
	}
	return p.table([]string{"KEY", "NAME", "RECORDS"}, rows)
}

func mlbSpan(p view.Player) string {
	if p.MLBPlayedFirst == 0 {
		return "-"
	}
	return fmt.Sprintf("%d-%d", p.MLBPlayedFirst, p.MLBPlayedLast)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
