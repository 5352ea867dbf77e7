package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/collisionsimplify/config"
	"go.viam.com/collisionsimplify/simplify"
	"go.viam.com/collisionsimplify/spatialmath"
)

// InspectAction is the corresponding action for 'inspect'. Every primitive and the convex hull of each mesh
// are computed and their volumes printed; no file is written.
func InspectAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("expected at least one mesh file")
	}
	logger, closeLogs := newCommandLogger(c.App.ErrWriter, "urdf-simplify", c.Bool(flagDebug), c.Path(flagLogFile))
	defer closeLogs()
	p := printer{out: c.App.Writer}

	var jobs []simplify.Job
	for _, path := range c.Args().Slice() {
		mesh, err := spatialmath.NewMeshFromFile(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		jobs = append(jobs,
			simplify.Job{Name: name, Mesh: mesh, Policy: simplify.PolicySmallest},
			simplify.Job{Name: name, Mesh: mesh, Policy: simplify.PolicyConvexHull},
		)
	}
	batch := simplify.Batch{Workers: c.Int(flagWorkers), Logger: logger.Sublogger("batch")}
	outcomes := batch.Run(c.Context, jobs)
	if err := c.Context.Err(); err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Mesh", "Vertices", "Faces", "Watertight", "Volume", "Box", "Cylinder", "Sphere", "Convex hull", "Smallest"})
	for i := 0; i < len(outcomes); i += 2 {
		smallest, hull := outcomes[i], outcomes[i+1]
		mesh := smallest.Job.Mesh
		row := table.Row{smallest.Job.Name, len(mesh.Vertices()), len(mesh.Faces()), mesh.IsWatertight(), formatNumbers(mesh.Volume())}

		if smallest.Err != nil {
			p.warningf("%s: %v", smallest.Job.Name, smallest.Err)
			row = append(row, "-", "-", "-")
		} else {
			for _, cand := range smallest.Result.Diagnostics.Candidates {
				row = append(row, formatNumbers(cand.Volume))
			}
		}
		if hull.Err != nil {
			p.warningf("%s: %v", hull.Job.Name, hull.Err)
			row = append(row, "-")
		} else {
			row = append(row, formatNumbers(hull.Result.Geometry.Volume()))
		}
		if smallest.Err != nil {
			row = append(row, "-")
		} else {
			row = append(row, smallest.Result.Diagnostics.Chosen.String())
		}
		t.AppendRow(row)
	}
	p.infof("%s", t.Render())
	return nil
}

// SchemaAction is the corresponding action for 'schema'.
func SchemaAction(c *cli.Context) error {
	raw, err := json.MarshalIndent(config.Schema(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(raw))
	return nil
}
