package toolchain

// Stage argv composition for the two build drivers. The selection carries the
// argument shapes; the driver supplies the per-run values (configuration,
// package version, output directories).

// StageArgs holds the caller-supplied values the argv builders interpolate.
type StageArgs struct {
	Configuration  string // Release / Debug
	PackageVersion string // full version plus pre-release suffix
	OutputDir      string // pack output directory
}

// RestoreArgs composes the package restore argv for the project.
func (s Selection) RestoreArgs(project string) []string {
	if s.Tool == LegacyMsBuildTool {
		return []string{project, "/t:Restore", "/nologo", "/verbosity:minimal"}
	}
	return []string{"restore", project}
}

// CleanArgs composes the clean argv for the project.
func (s Selection) CleanArgs(project string, a StageArgs) []string {
	if s.Tool == LegacyMsBuildTool {
		return []string{project, "/t:Clean", "/p:Configuration=" + a.Configuration, "/nologo", "/verbosity:minimal"}
	}
	return []string{"clean", project, "--configuration", a.Configuration}
}

// BuildArgs composes the build argv for the project.
func (s Selection) BuildArgs(project string, a StageArgs) []string {
	if s.Tool == LegacyMsBuildTool {
		return []string{project, "/t:Build", "/p:Configuration=" + a.Configuration, "/nologo", "/verbosity:minimal"}
	}
	return []string{"build", project, "--configuration", a.Configuration, "--no-restore"}
}

// TestArgs composes the test argv for the project. Legacy projects still test
// through the modern driver, which can host framework test runners.
func (s Selection) TestArgs(project string, a StageArgs) []string {
	return []string{"test", project, "--configuration", a.Configuration, "--no-build", "--verbosity", "minimal"}
}

// PackArgs composes the pack argv for the project. Packing always goes through
// the modern driver; legacy-toolchain projects that are packable produce their
// packages from the already-built binaries.
func (s Selection) PackArgs(project string, a StageArgs) []string {
	args := []string{"pack", project, "--configuration", a.Configuration, "--no-build"}
	if a.PackageVersion != "" {
		args = append(args, "/p:PackageVersion="+a.PackageVersion)
	}
	if a.OutputDir != "" {
		args = append(args, "--output", a.OutputDir)
	}
	return args
}

// PublishArgs composes the publish argv for the project (framework-dependent
// deployment into the output directory).
func (s Selection) PublishArgs(project string, a StageArgs) []string {
	args := []string{"publish", project, "--configuration", a.Configuration, "--no-build"}
	if a.OutputDir != "" {
		args = append(args, "--output", a.OutputDir)
	}
	return args
}
