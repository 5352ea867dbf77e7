// Package config describes a collision simplification run: where the robot description package lives,
// which simplification to apply to which mesh, and how the results are written.
package config

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/collisionsimplify/simplify"
	"go.viam.com/collisionsimplify/utils"
)

// Defaults used when a field is left empty.
const (
	DefaultURDFFolder = "urdf/"
	DefaultURDFName   = "robot.urdf.xacro"
	DefaultMeshFolder = "meshes/collision/"
	DefaultPolicy     = "smallest_primitive"
)

// Config describes one run over a robot description package.
type Config struct {
	PackageName string `json:"package_name" jsonschema:"description=ROS package name of the robot description"`
	PackagePath string `json:"package_path" jsonschema:"description=directory containing the package"`
	URDFFolder  string `json:"urdf_folder,omitempty"`
	URDFName    string `json:"urdf_name,omitempty"`
	MeshFolder  string `json:"mesh_folder,omitempty"`

	//nolint:lll
	Policy string `json:"simplification,omitempty" jsonschema:"enum=smallest_primitive,enum=box,enum=cylinder,enum=sphere,enum=convex_mesh"`
	// Overrides maps a mesh file name to the simplification used for it instead of Policy.
	Overrides map[string]string `json:"overrides,omitempty"`

	Workers       int    `json:"workers,omitempty" jsonschema:"minimum=0"`
	ComposeOrigin bool   `json:"compose_origin,omitempty"`
	DryRun        bool   `json:"dry_run,omitempty"`
	KeepGoing     bool   `json:"keep_going,omitempty"`
	OutputPath    string `json:"output,omitempty"`
	LogFile       string `json:"log_file,omitempty"`
	Debug         bool   `json:"debug,omitempty"`
}

// Default returns a config with every optional field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.URDFFolder == "" {
		c.URDFFolder = DefaultURDFFolder
	}
	if c.URDFName == "" {
		c.URDFName = DefaultURDFName
	}
	if c.MeshFolder == "" {
		c.MeshFolder = DefaultMeshFolder
	}
	if c.Policy == "" {
		c.Policy = DefaultPolicy
	}
}

// Validate ensures the config describes a runnable job. Empty optional fields are filled with defaults.
func (c *Config) Validate(path string) error {
	c.applyDefaults()
	if c.PackageName == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "package_name")
	}
	if c.PackagePath == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "package_path")
	}
	if filepath.Base(c.PackageName) != c.PackageName || c.PackageName == "." || c.PackageName == ".." {
		return goutils.NewConfigValidationError(path, errors.Errorf("package_name %q must be a single path element", c.PackageName))
	}
	for field, sub := range map[string]string{"urdf_folder": c.URDFFolder, "mesh_folder": c.MeshFolder} {
		if filepath.Clean(sub) == "." {
			continue
		}
		if _, err := utils.SafeJoinDir(c.PackageDir(), sub); err != nil {
			return goutils.NewConfigValidationError(path, errors.Wrap(err, field))
		}
	}
	if _, err := simplify.ParsePolicy(c.Policy); err != nil {
		return goutils.NewConfigValidationError(path, errors.Wrap(err, "simplification"))
	}
	for mesh, policy := range c.Overrides {
		if _, err := simplify.ParsePolicy(policy); err != nil {
			return goutils.NewConfigValidationError(fmt.Sprintf("%s.overrides.%s", path, mesh), err)
		}
	}
	if c.Workers < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("workers must be non-negative, got %d", c.Workers))
	}
	return nil
}

// PackageDir is the package's root directory.
func (c *Config) PackageDir() string {
	return filepath.Join(c.PackagePath, c.PackageName)
}

// URDFPath is the robot description read by the run.
func (c *Config) URDFPath() string {
	return filepath.Join(c.PackageDir(), c.URDFFolder, c.URDFName)
}

// OutputURDFPath is where the rewritten description is written, the input file unless OutputPath is set.
func (c *Config) OutputURDFPath() string {
	if c.OutputPath != "" {
		return c.OutputPath
	}
	return c.URDFPath()
}

// MeshDir is the directory searched for collision meshes.
func (c *Config) MeshDir() string {
	return filepath.Join(c.PackageDir(), c.MeshFolder)
}

// MeshURI is the package URI a collision entry uses to reference the mesh file.
func (c *Config) MeshURI(file string) string {
	return "package://" + path.Join(c.PackageName, filepath.ToSlash(c.MeshFolder), file)
}

// PolicyFor returns the simplification for the mesh file, honoring overrides.
func (c *Config) PolicyFor(file string) (simplify.Policy, error) {
	if policy, ok := c.Overrides[file]; ok {
		return simplify.ParsePolicy(policy)
	}
	policy := c.Policy
	if policy == "" {
		policy = DefaultPolicy
	}
	return simplify.ParsePolicy(policy)
}

// Schema returns the JSON schema of the config file.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
