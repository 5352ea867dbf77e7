package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	units "github.com/docker/go-units"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/collisionsimplify/config"
	"go.viam.com/collisionsimplify/logging"
	"go.viam.com/collisionsimplify/simplify"
	"go.viam.com/collisionsimplify/spatialmath"
	"go.viam.com/collisionsimplify/urdf"
)

// simplifiedMarker appears in the names of meshes this tool wrote.
const simplifiedMarker = "_simple"

var (
	meshExtensions = []string{".stl", ".ply"}
	unitScale      = r3.Vector{X: 1, Y: 1, Z: 1}
)

// SimplifyAction is the corresponding action for 'simplify'.
func SimplifyAction(c *cli.Context) error {
	cfg, err := configFromContext(c)
	if err != nil {
		return err
	}
	logger, closeLogs := newCommandLogger(c.App.ErrWriter, "urdf-simplify", cfg.Debug, cfg.LogFile)
	defer closeLogs()

	run := &simplifyRun{cfg: cfg, logger: logger, printer: printer{out: c.App.Writer}}
	return run.run(c.Context)
}

// configFromContext loads --config if given, then applies the arguments and every flag set explicitly.
func configFromContext(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.Path(flagConfig); path != "" {
		read, err := config.Read(path)
		if err != nil {
			return nil, err
		}
		cfg = read
	}

	args := c.Args()
	if args.Len() > 2 {
		return nil, errors.Errorf("expected at most 2 arguments, got %d; usage: %s %s",
			args.Len(), c.Command.FullName(), c.Command.ArgsUsage)
	}
	if args.Len() > 0 {
		cfg.PackageName = args.Get(0)
	}
	if args.Len() > 1 {
		cfg.PackagePath = args.Get(1)
	}

	strs := map[string]*string{
		flagSimplification: &cfg.Policy,
		flagURDFFolder:     &cfg.URDFFolder,
		flagURDFName:       &cfg.URDFName,
		flagMeshFolder:     &cfg.MeshFolder,
	}
	for name, field := range strs {
		if c.IsSet(name) {
			*field = c.String(name)
		}
	}
	paths := map[string]*string{
		flagOutput:  &cfg.OutputPath,
		flagLogFile: &cfg.LogFile,
	}
	for name, field := range paths {
		if c.IsSet(name) {
			*field = c.Path(name)
		}
	}
	bools := map[string]*bool{
		flagComposeOrigin: &cfg.ComposeOrigin,
		flagDryRun:        &cfg.DryRun,
		flagKeepGoing:     &cfg.KeepGoing,
		flagDebug:         &cfg.Debug,
	}
	for name, field := range bools {
		if c.IsSet(name) {
			*field = c.Bool(name)
		}
	}
	if c.IsSet(flagWorkers) {
		cfg.Workers = c.Int(flagWorkers)
	}

	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	return cfg, nil
}

type simplifyRun struct {
	cfg    *config.Config
	logger logging.Logger
	printer
}

// meshGroup is the collision entries that reference one mesh file with the same scale. They share one
// simplification.
type meshGroup struct {
	file     string
	name     string
	scale    r3.Vector
	hullFile string
	entries  []*urdf.CollisionEntry
	job      simplify.Job
}

func (r *simplifyRun) run(ctx context.Context) error {
	urdfPath := r.cfg.URDFPath()
	//nolint:gosec
	original, err := os.ReadFile(urdfPath)
	if err != nil {
		return errors.Wrap(err, "failed to read URDF")
	}
	doc, err := urdf.ParseDocument(bytes.NewReader(original))
	if err != nil {
		return errors.Wrapf(err, "failed to parse URDF %s", urdfPath)
	}
	r.noticef("Loaded URDF at %s", urdfPath)

	files, err := r.meshFiles()
	if err != nil {
		return err
	}
	groups, err := r.collect(doc, files)
	if err != nil {
		return err
	}

	batch := simplify.Batch{Workers: r.cfg.Workers, Logger: r.logger.Sublogger("batch")}
	outcomes := batch.Run(ctx, lo.Map(groups, func(g *meshGroup, _ int) simplify.Job { return g.job }))
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := outcomes.Err(); err != nil && !r.cfg.KeepGoing {
		return errors.Wrap(err, "failed to simplify collision meshes")
	}

	rep := &report{}
	for i, out := range outcomes {
		if err := r.apply(groups[i], out, rep); err != nil {
			return err
		}
	}

	var rewritten bytes.Buffer
	if _, err := doc.WriteTo(&rewritten); err != nil {
		return errors.Wrap(err, "failed to serialize URDF")
	}
	outPath := r.cfg.OutputURDFPath()
	if r.cfg.DryRun {
		r.noticef("Dry run: %s is left untouched. Changes:", outPath)
		r.diff(string(original), rewritten.String())
	} else {
		if err := doc.WriteFile(outPath); err != nil {
			return errors.Wrapf(err, "failed to write URDF %s", outPath)
		}
		r.noticef("Wrote URDF to %s", outPath)
	}

	rep.render(r.out)
	if failed := rep.failed(); failed > 0 {
		r.warningf("%d of %d meshes could not be simplified and were left unchanged", failed, len(rep.rows))
	}
	r.successf("Simplification completed!")
	return nil
}

// meshFiles lists the mesh files of the mesh folder in name order, skipping the ones this tool wrote.
func (r *simplifyRun) meshFiles() ([]string, error) {
	dir := r.cfg.MeshDir()
	r.infof("Will search for collision meshes in %s", dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list collision meshes")
	}
	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir()
	})

	var files []string
	for _, name := range names {
		switch {
		case strings.Contains(name, simplifiedMarker):
			r.noticef("Ignoring file %s, since it is probably an already simplified mesh.", name)
		case !lo.Contains(meshExtensions, strings.ToLower(filepath.Ext(name))):
			r.logger.Debugw("skipping file that is not a mesh", "file", name)
		default:
			files = append(files, name)
		}
	}
	return files, nil
}

// collect finds the collision entries of every mesh file and prepares one simplification job per distinct
// mesh scale. A malformed collision entry stops the run.
func (r *simplifyRun) collect(doc *urdf.Document, files []string) ([]*meshGroup, error) {
	var groups []*meshGroup
	for _, file := range files {
		r.infof("Processing mesh %s", file)
		elements := doc.CollisionsForMesh(r.cfg.MeshURI(file))
		if len(elements) == 0 {
			r.warningf("Could not find an URDF collision entry for mesh %s", file)
			continue
		}
		entries := make([]*urdf.CollisionEntry, 0, len(elements))
		for _, el := range elements {
			entry, err := urdf.NewCollisionEntry(el)
			if err != nil {
				return nil, errors.Wrapf(err, "collision entry of mesh %s", file)
			}
			entries = append(entries, entry)
		}
		policy, err := r.cfg.PolicyFor(file)
		if err != nil {
			return nil, err
		}

		mesh, err := spatialmath.NewMeshFromFile(filepath.Join(r.cfg.MeshDir(), file))
		if err != nil {
			if !r.cfg.KeepGoing {
				return nil, err
			}
			r.warningf("%v. Its collision entries are left unchanged.", err)
			continue
		}
		r.logger.Debugw("loaded mesh", "mesh", file, "vertices", len(mesh.Vertices()), "faces", len(mesh.Faces()))

		fileGroups, err := groupByScale(file, entries)
		if err != nil {
			return nil, err
		}
		for _, g := range fileGroups {
			g.job = simplify.Job{Name: g.name, Mesh: mesh, Policy: policy}
			if g.scale != unitScale {
				g.job.Mesh = mesh.Scale(g.scale)
			}
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// groupByScale splits the entries of one mesh file by their scale attribute, in order of first use.
func groupByScale(file string, entries []*urdf.CollisionEntry) ([]*meshGroup, error) {
	scales := make(map[*urdf.CollisionEntry]r3.Vector, len(entries))
	for _, e := range entries {
		s, err := e.Scale()
		if err != nil {
			return nil, errors.Wrapf(err, "mesh scale of %s", file)
		}
		scales[e] = s
	}
	byScale := lo.GroupBy(entries, func(e *urdf.CollisionEntry) r3.Vector { return scales[e] })
	ordered := lo.Uniq(lo.Map(entries, func(e *urdf.CollisionEntry, _ int) r3.Vector { return scales[e] }))

	groups := make([]*meshGroup, 0, len(ordered))
	for i, s := range ordered {
		name := file
		if len(ordered) > 1 {
			name = fmt.Sprintf("%s (scale %g %g %g)", file, s.X, s.Y, s.Z)
		}
		groups = append(groups, &meshGroup{
			file:     file,
			name:     name,
			scale:    s,
			hullFile: hullFilename(file, i),
			entries:  byScale[s],
		})
	}
	return groups, nil
}

// hullFilename numbers the hull files of the second and later scales of a mesh.
func hullFilename(file string, group int) string {
	name := urdf.HullFilename(file)
	if group == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), group+1, ext)
}

// apply rewrites the collision entries of a group with its outcome. A failed outcome only gets here with
// --keep-going and leaves the entries unchanged.
func (r *simplifyRun) apply(g *meshGroup, out simplify.Outcome, rep *report) error {
	if out.Err != nil {
		r.warningf("Could not simplify %s: %v. Its collision entries are left unchanged.", g.name, out.Err)
		rep.addFailure(g, out.Err)
		return nil
	}
	res := out.Result
	diag := res.Diagnostics
	if !diag.Watertight {
		r.warningf("The original mesh %s is not watertight", g.name)
	}
	if diag.HasWarning(simplify.WarningFlatMesh) {
		r.warningf("The original mesh %s is flat, so its bounding primitives have no volume", g.name)
	}
	if out.Job.Policy == simplify.PolicySmallest {
		r.infof("  Smallest volume of %s is %s with %.6f.", g.name, diag.Chosen, res.Geometry.Volume())
		if diag.VolumeRatioKnown {
			r.infof("  This is %.6f times the original value.", diag.VolumeRatio)
		}
	}

	opts := urdf.ApplyOptions{ComposeOrigin: r.cfg.ComposeOrigin}
	if res.Geometry.Kind == simplify.KindConvexHull {
		opts.HullFilename = r.cfg.MeshURI(g.hullFile)
		if err := r.writeHull(g, res.Geometry.Hull); err != nil {
			return err
		}
	}
	for _, entry := range g.entries {
		if err := entry.Apply(res.Geometry, opts); err != nil {
			return errors.Wrapf(err, "failed to rewrite a collision entry of %s", g.name)
		}
	}
	r.logger.Debugw("rewrote collision entries", "mesh", g.name, "entries", len(g.entries), "kind", res.Geometry.Kind.String())
	rep.addResult(g, res)
	return nil
}

func (r *simplifyRun) writeHull(g *meshGroup, hull *spatialmath.Mesh) error {
	path := filepath.Join(r.cfg.MeshDir(), g.hullFile)
	size := units.HumanSize(float64(hull.BinarySTLSize()))
	if r.cfg.DryRun {
		r.infof("  Would write the convex hull of %s to %s (%s)", g.name, path, size)
		return nil
	}
	if err := hull.WriteSTLFile(path); err != nil {
		return errors.Wrapf(err, "failed to write convex hull of %s", g.name)
	}
	r.infof("  Wrote the convex hull of %s to %s (%s)", g.name, path, size)
	return nil
}
