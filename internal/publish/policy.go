// Package publish decides where a run's artifacts go. The decision is a
// static table from deployment channel to an ordered set of feed targets plus
// local drop flags. Only the production channel may reach the public package
// registry; that rule is enforced twice — once by the table and once by an
// independent guard in the fan-out executor — so a misconfigured table row can
// never leak a pre-release package to the public registry.
package publish

import (
	"git.home.luguber.info/inful/releasekit/internal/channel"
	"git.home.luguber.info/inful/releasekit/internal/config"
)

// TargetKind classifies a publish destination.
type TargetKind string

const (
	LocalFeed      TargetKind = "local_feed"
	RemoteFeed     TargetKind = "remote_feed"
	FilesystemDrop TargetKind = "filesystem_drop"
)

// Canonical target names, also used as metric and log labels.
const (
	NameLocalFeed      = "local-feed"
	NameGitHubFeed     = "github-feed"
	NameTestRegistry   = "test-registry"
	NamePublicRegistry = "public-registry"
)

// Target is one publish destination. CredentialRef names the environment
// variable holding the push credential; the secret itself never lives here.
type Target struct {
	Name           string
	Kind           TargetKind
	Destination    string
	CredentialRef  string
	ProductionOnly bool
}

// Policy is one channel's row of the decision table: the ordered targets to
// push to plus the local drop flags.
type Policy struct {
	Targets                []Target
	CopyToChannelDrop      bool
	CopyToLatestDrop       bool
	CopyToDistributionDrop bool
	CopyToZipDrop          bool
}

// Catalog holds the concrete destinations behind the four feed names.
type Catalog struct {
	Local          Target
	GitHub         Target
	TestRegistry   Target
	PublicRegistry Target
}

// NewCatalog maps the configured feeds onto targets.
func NewCatalog(feeds config.FeedsConfig) Catalog {
	return Catalog{
		Local: Target{
			Name: NameLocalFeed, Kind: LocalFeed, Destination: feeds.LocalDir,
		},
		GitHub: Target{
			Name: NameGitHubFeed, Kind: RemoteFeed,
			Destination: feeds.GitHub.URL, CredentialRef: feeds.GitHub.CredentialEnv,
		},
		TestRegistry: Target{
			Name: NameTestRegistry, Kind: RemoteFeed,
			Destination: feeds.TestRegistry.URL, CredentialRef: feeds.TestRegistry.CredentialEnv,
		},
		PublicRegistry: Target{
			Name: NamePublicRegistry, Kind: RemoteFeed,
			Destination: feeds.PublicRegistry.URL, CredentialRef: feeds.PublicRegistry.CredentialEnv,
			ProductionOnly: true,
		},
	}
}

// TargetsFor returns the policy row for a channel.
//
//	channel     | local | github | test | public | chan drop | dist drop
//	development |  yes  |   no   |  no  |   no   |    yes    |    no
//	quality     |  yes  |  yes   | yes  |   no   |    yes    |    no
//	staging     |  yes  |  yes   | yes  |   no   |    yes    |    no
//	production  |  yes  |  yes   |  no  |  yes   |    yes    |   yes
//
// Unknown (feature-branch) channels get the development row: local only.
// Every channel copies to the latest drop; only production zips.
func TargetsFor(ch channel.Channel, cat Catalog) Policy {
	switch ch {
	case channel.Quality, channel.Staging:
		return Policy{
			Targets:           []Target{cat.Local, cat.GitHub, cat.TestRegistry},
			CopyToChannelDrop: true,
			CopyToLatestDrop:  true,
		}
	case channel.Production:
		return Policy{
			Targets:                []Target{cat.Local, cat.GitHub, cat.PublicRegistry},
			CopyToChannelDrop:      true,
			CopyToLatestDrop:       true,
			CopyToDistributionDrop: true,
			CopyToZipDrop:          true,
		}
	default: // development, unknown
		return Policy{
			Targets:           []Target{cat.Local},
			CopyToChannelDrop: true,
			CopyToLatestDrop:  true,
		}
	}
}

// HasTarget reports whether the policy includes a target by name.
func (p Policy) HasTarget(name string) bool {
	for _, t := range p.Targets {
		if t.Name == name {
			return true
		}
	}
	return false
}
