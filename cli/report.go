package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"

	"go.viam.com/collisionsimplify/simplify"
	"go.viam.com/collisionsimplify/utils"
)

type reportRow struct {
	mesh    string
	entries int
	policy  simplify.Policy
	result  *simplify.Result
	err     error
}

// report collects what happened to each mesh group of a run.
type report struct {
	rows []reportRow
}

func (rep *report) addResult(g *meshGroup, res *simplify.Result) {
	rep.rows = append(rep.rows, reportRow{mesh: g.name, entries: len(g.entries), policy: g.job.Policy, result: res})
}

func (rep *report) addFailure(g *meshGroup, err error) {
	rep.rows = append(rep.rows, reportRow{mesh: g.name, entries: len(g.entries), policy: g.job.Policy, err: err})
}

func (rep *report) failed() int {
	var n int
	for _, row := range rep.rows {
		if row.err != nil {
			n++
		}
	}
	return n
}

// meanVolumeRatio averages the known volume ratios.
func (rep *report) meanVolumeRatio() (float64, bool) {
	var ratios stats.Float64Data
	for _, row := range rep.rows {
		if row.result != nil && row.result.Diagnostics.VolumeRatioKnown {
			ratios = append(ratios, row.result.Diagnostics.VolumeRatio)
		}
	}
	mean, err := ratios.Mean()
	if err != nil {
		return 0, false
	}
	return mean, true
}

func (rep *report) render(w io.Writer) {
	if len(rep.rows) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Mesh", "Entries", "Policy", "Result", "Dimensions", "Origin", "Volume ratio"})
	for _, row := range rep.rows {
		if row.err != nil {
			result := "failed"
			if kind, ok := simplify.KindOf(row.err); ok {
				result = kind.String()
			}
			t.AppendRow(table.Row{row.mesh, row.entries, row.policy.String(), result, "-", "-", "-"})
			continue
		}
		geom := row.result.Geometry
		dims, origin := "-", "-"
		if geom.Kind != simplify.KindConvexHull {
			dims = formatNumbers(geom.Dimensions()...)
			origin = formatOrigin(geom.Origin)
		}
		t.AppendRow(table.Row{row.mesh, row.entries, row.policy.String(), geom.Kind.String(), dims, origin, volumeRatio(row.result)})
	}
	if mean, ok := rep.meanVolumeRatio(); ok {
		t.AppendFooter(table.Row{"", "", "", "", "", "mean", fmt.Sprintf("%.3f", mean)})
	}
	fmt.Fprintln(w, t.Render())
}

func volumeRatio(res *simplify.Result) string {
	if !res.Diagnostics.VolumeRatioKnown {
		return "unknown"
	}
	return fmt.Sprintf("%.3f", res.Diagnostics.VolumeRatio)
}

func formatOrigin(o simplify.Origin) string {
	return fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f, Roll:%.1f, Pitch:%.1f, Yaw:%.1f",
		o.XYZ.X, o.XYZ.Y, o.XYZ.Z,
		utils.RadToDeg(o.RPY.Roll),
		utils.RadToDeg(o.RPY.Pitch),
		utils.RadToDeg(o.RPY.Yaw),
	)
}

func formatNumbers(values ...float64) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.FormatFloat(v, 'g', 4, 64))
	}
	return strings.Join(parts, " ")
}
