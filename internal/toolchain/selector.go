// Package toolchain decides which build tool drives a given project. Projects
// predating the modern SDK need the legacy MSBuild toolchain; SDK-style
// projects use the modern driver unless they (multi-)target a legacy framework
// moniker, because the modern driver cannot compile those targets. The
// decision is a pure function of the project's declared framework properties
// and is cached per project path for the lifetime of a run.
package toolchain

import (
	"context"
	"strings"
	"sync"

	pipeerr "git.home.luguber.info/inful/releasekit/internal/errors"
	"git.home.luguber.info/inful/releasekit/internal/msbuild"
)

// Tool identifies the external build driver for a unit.
type Tool string

const (
	ModernSdkBuilder  Tool = "dotnet"
	LegacyMsBuildTool Tool = "msbuild"
)

// FrameworkKind classifies the runtime family a unit targets.
type FrameworkKind string

const (
	KindFramework FrameworkKind = "framework" // legacy .NET Framework
	KindCore      FrameworkKind = "core"      // modern runtime
)

// ProjectKind classifies the project file convention.
type ProjectKind string

const (
	SdkStyle    ProjectKind = "sdk"
	LegacyStyle ProjectKind = "legacy"
)

// legacyMonikers is the fixed set of target framework monikers predating the
// modern runtime. Any project declaring one of these (including one member of
// a multi-target list) must build with the legacy toolchain.
var legacyMonikers = map[string]bool{
	"net20": true, "net35": true, "net40": true, "net403": true,
	"net45": true, "net451": true, "net452": true, "net46": true,
	"net461": true, "net462": true, "net47": true, "net471": true,
	"net472": true, "net48": true, "net481": true,
}

// IsLegacyMoniker reports whether a single moniker belongs to the legacy set.
// Version-form values ("v4.7.2") are normalized to moniker form first.
func IsLegacyMoniker(moniker string) bool {
	return legacyMonikers[NormalizeMoniker(moniker)]
}

// NormalizeMoniker lowercases a framework identifier and folds the legacy
// version form ("v4.7.2") into moniker form ("net472").
func NormalizeMoniker(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if rest, ok := strings.CutPrefix(m, "v"); ok && rest != "" && rest[0] >= '0' && rest[0] <= '9' {
		return "net" + strings.ReplaceAll(rest, ".", "")
	}
	return m
}

// Selection is the outcome of toolchain classification for one unit.
type Selection struct {
	Tool        Tool
	Kind        FrameworkKind
	ProjectKind ProjectKind
	Frameworks  []string // declared monikers, normalized, declaration order
}

// Selector classifies projects, caching results per project path.
type Selector struct {
	reader msbuild.Reader

	mu    sync.Mutex
	cache map[string]Selection
}

// NewSelector returns a Selector over the given property reader.
func NewSelector(reader msbuild.Reader) *Selector {
	return &Selector{reader: reader, cache: map[string]Selection{}}
}

// Select resolves the toolchain for a project. Precedence:
//  1. TargetFrameworkVersion (single-valued, legacy-style projects)
//  2. TargetFramework (single-valued, SDK-style projects)
//  3. TargetFrameworks (multi-valued list; any legacy member forces the
//     legacy tool)
//
// A project where none of the three resolves is a discovery error, never a
// silent default.
func (s *Selector) Select(ctx context.Context, projectPath string) (Selection, error) {
	s.mu.Lock()
	if sel, ok := s.cache[projectPath]; ok {
		s.mu.Unlock()
		return sel, nil
	}
	s.mu.Unlock()

	sel, err := s.classify(ctx, projectPath)
	if err != nil {
		return Selection{}, err
	}

	s.mu.Lock()
	s.cache[projectPath] = sel
	s.mu.Unlock()
	return sel, nil
}

func (s *Selector) classify(ctx context.Context, projectPath string) (Selection, error) {
	legacy, err := s.reader.GetProperty(ctx, projectPath, "TargetFrameworkVersion", msbuild.ScopeInner)
	if err != nil {
		return Selection{}, err
	}
	if legacy.IsSet() {
		return fromMonikers(LegacyStyle, []string{legacy.Value}), nil
	}

	single, err := s.reader.GetProperty(ctx, projectPath, "TargetFramework", msbuild.ScopeInner)
	if err != nil {
		return Selection{}, err
	}
	if single.IsSet() {
		return fromMonikers(SdkStyle, []string{single.Value}), nil
	}

	multi, err := s.reader.GetProperty(ctx, projectPath, "TargetFrameworks", msbuild.ScopeInner)
	if err != nil {
		return Selection{}, err
	}
	if multi.IsSet() {
		var monikers []string
		for _, m := range strings.Split(multi.Value, ";") {
			if m = strings.TrimSpace(m); m != "" {
				monikers = append(monikers, m)
			}
		}
		if len(monikers) > 0 {
			return fromMonikers(SdkStyle, monikers), nil
		}
	}

	return Selection{}, pipeerr.NoTargetFramework(projectPath)
}

func fromMonikers(pk ProjectKind, raw []string) Selection {
	sel := Selection{Tool: ModernSdkBuilder, Kind: KindCore, ProjectKind: pk}
	for _, m := range raw {
		norm := NormalizeMoniker(m)
		sel.Frameworks = append(sel.Frameworks, norm)
		if legacyMonikers[norm] {
			sel.Tool = LegacyMsBuildTool
			sel.Kind = KindFramework
		}
	}
	return sel
}
