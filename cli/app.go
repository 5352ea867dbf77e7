// Package cli contains the urdf-simplify command line application.
package cli

import (
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"go.viam.com/collisionsimplify/config"
	"go.viam.com/collisionsimplify/simplify"
)

// Flags.
const (
	flagConfig         = "config"
	flagSimplification = "simplification"
	flagURDFFolder     = "urdf-folder"
	flagURDFName       = "urdf-name"
	flagMeshFolder     = "mesh-folder"
	flagWorkers        = "workers"
	flagComposeOrigin  = "compose-origin"
	flagDryRun         = "dry-run"
	flagKeepGoing      = "keep-going"
	flagOutput         = "output"
	flagDebug          = "debug"
	flagLogFile        = "log-file"
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.PathFlag{
			Name:  flagLogFile,
			Usage: "also write logs to `FILE`, rotated as it grows",
		},
	}
}

func simplifyFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.PathFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load the run configuration from a JSON `FILE`; flags override its values",
		},
		&cli.StringFlag{
			Name:    flagSimplification,
			Aliases: []string{"s"},
			Value:   config.DefaultPolicy,
			Usage:   "simplification to perform: " + strings.Join(simplify.PolicyNames(), ", "),
		},
		&cli.StringFlag{
			Name:  flagURDFFolder,
			Value: config.DefaultURDFFolder,
			Usage: "subfolder of the package containing the URDF file",
		},
		&cli.StringFlag{
			Name:  flagURDFName,
			Value: config.DefaultURDFName,
			Usage: "name of the URDF file",
		},
		&cli.StringFlag{
			Name:  flagMeshFolder,
			Value: config.DefaultMeshFolder,
			Usage: "subfolder of the package containing the collision meshes",
		},
		&cli.IntFlag{
			Name:  flagWorkers,
			Usage: "meshes simplified in parallel, 0 for one per CPU",
		},
		&cli.BoolFlag{
			Name:  flagComposeOrigin,
			Usage: "compose the fitted primitive pose with the existing collision origin instead of replacing it",
		},
		&cli.BoolFlag{
			Name:  flagDryRun,
			Usage: "print the URDF changes without writing any file",
		},
		&cli.BoolFlag{
			Name:  flagKeepGoing,
			Usage: "leave meshes that cannot be simplified untouched instead of stopping",
		},
		&cli.PathFlag{
			Name:    flagOutput,
			Aliases: []string{"o"},
			Usage:   "write the simplified URDF to `FILE` instead of overwriting the input",
		},
	}, loggingFlags()...)
}

// NewApp returns the urdf-simplify application writing its output to out and errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "urdf-simplify",
		Usage:           "simplify the collision shapes of URDF models",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Commands: []*cli.Command{
			{
				Name:      "simplify",
				Usage:     "replace the collision meshes of a robot description package with simpler geometry",
				ArgsUsage: "<package_name> <package_path>",
				Description: `Every mesh in the mesh folder that a collision entry of the URDF references is replaced by a
bounding box, cylinder or sphere, or by its convex hull written next to it as <name>_simple.STL.
The package name and path may also come from the config file.`,
				Flags:  simplifyFlags(),
				Action: SimplifyAction,
			},
			{
				Name:      "inspect",
				Usage:     "print the volume of every bounding geometry of mesh files",
				ArgsUsage: "<mesh file> [mesh file...]",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  flagWorkers,
						Usage: "meshes inspected in parallel, 0 for one per CPU",
					},
				}, loggingFlags()...),
				Action: InspectAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the config file",
				Action: SchemaAction,
			},
		},
	}
}
