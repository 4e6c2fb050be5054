package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/wingops/debrief/pkg/core"
)

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printUnits(w io.Writer, units []core.UnitType) error {
	tw := newTable(w, "ID", "TYPE", "NAME", "CATEGORY", "KILL", "SOURCE", "ACTIVE")
	for _, u := range units {
		row(tw, u.ID, u.TypeName, u.DisplayName, u.Category, u.KillCategory, u.Source, u.Active)
	}
	return tw.Flush()
}

func printSummary(w io.Writer, s core.MissionSummary) error {
	tw := newTable(w, "BUCKET", "VALUE", "OF")
	for _, p := range core.PilotStatusValues {
		row(tw, "pilot:"+string(p), s.Pilots.Get(p), s.TotalSlots)
	}
	for _, a := range core.AircraftStatusValues {
		row(tw, "aircraft:"+string(a), s.Aircraft.Get(a), s.TotalSlots)
	}
	for _, c := range core.KillCategories {
		row(tw, "kills:"+strings.ToLower(string(c)), s.Kills.Get(c), "")
	}
	row(tw, "performance:SAT", s.Performance.SAT, s.Performance.TotalPossible)
	row(tw, "performance:UNSAT", s.Performance.UNSAT, s.Performance.TotalPossible)
	row(tw, "performance:unassessed", s.Performance.Unassessed, s.Performance.TotalPossible)
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d flights, %d slots, %d rating categories\n",
		s.TotalFlights, s.TotalSlots, s.RatingCategories)
	return err
}

func printGroups(w io.Writer, bucket core.Bucket, groups []core.DetailGroup) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "nothing in", bucket.String())
		return err
	}
	for _, g := range groups {
		fmt.Fprintf(w, "%s (%d)\n", g.Label, len(g.Entries))
		var tw *tabwriter.Writer
		switch bucket.Kind {
		case core.BucketKills:
			tw = newTable(w, "  CALLSIGN", "BOARD", "UNIT", "COUNT")
			for _, e := range g.Entries {
				row(tw, "  "+e.Callsign, e.BoardNumber, e.UnitDisplayName, e.KillCount)
			}
		case core.BucketPerformance:
			tw = newTable(w, "  CATEGORY", "RATING", "COMMENTS")
			for _, e := range g.Entries {
				row(tw, "  "+e.RatingCategory, e.Rating, e.Comments)
			}
		default:
			tw = newTable(w, "  CALLSIGN", "BOARD", "PILOT", "AIRCRAFT")
			for _, e := range g.Entries {
				row(tw, "  "+cmp.Or(e.Callsign, "(open slot)"), e.BoardNumber, e.PilotStatus, e.AircraftStatus)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
