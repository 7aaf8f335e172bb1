package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/releasekit/internal/channel"
	"git.home.luguber.info/inful/releasekit/internal/config"
)

func testCatalog() Catalog {
	return NewCatalog(config.FeedsConfig{
		LocalDir:       "/feeds/local",
		GitHub:         config.FeedConfig{URL: "https://github.example/index.json", CredentialEnv: "GH_KEY"},
		TestRegistry:   config.FeedConfig{URL: "https://test.example/index.json", CredentialEnv: "TEST_KEY"},
		PublicRegistry: config.FeedConfig{URL: "https://public.example/index.json", CredentialEnv: "PUB_KEY"},
	})
}

func targetNames(p Policy) []string {
	names := make([]string, 0, len(p.Targets))
	for _, t := range p.Targets {
		names = append(names, t.Name)
	}
	return names
}

func TestChannelTable(t *testing.T) {
	cat := testCatalog()

	cases := []struct {
		ch       channel.Channel
		targets  []string
		distDrop bool
		zipDrop  bool
	}{
		{channel.Development, []string{NameLocalFeed}, false, false},
		{channel.Quality, []string{NameLocalFeed, NameGitHubFeed, NameTestRegistry}, false, false},
		{channel.Staging, []string{NameLocalFeed, NameGitHubFeed, NameTestRegistry}, false, false},
		{channel.Production, []string{NameLocalFeed, NameGitHubFeed, NamePublicRegistry}, true, true},
		{channel.Unknown, []string{NameLocalFeed}, false, false},
	}
	for _, c := range cases {
		pol := TargetsFor(c.ch, cat)
		assert.Equal(t, c.targets, targetNames(pol), "channel %s targets", c.ch)
		assert.True(t, pol.CopyToChannelDrop, "channel %s channel drop", c.ch)
		assert.True(t, pol.CopyToLatestDrop, "channel %s latest drop", c.ch)
		assert.Equal(t, c.distDrop, pol.CopyToDistributionDrop, "channel %s distribution drop", c.ch)
		assert.Equal(t, c.zipDrop, pol.CopyToZipDrop, "channel %s zip drop", c.ch)
	}
}

func TestProductionIncludesPublicAndDistribution(t *testing.T) {
	pol := TargetsFor(channel.Production, testCatalog())
	assert.True(t, pol.HasTarget(NamePublicRegistry))
	assert.True(t, pol.CopyToDistributionDrop)
}

func TestDevelopmentExcludesPublicAndDistribution(t *testing.T) {
	pol := TargetsFor(channel.Development, testCatalog())
	assert.False(t, pol.HasTarget(NamePublicRegistry))
	assert.False(t, pol.CopyToDistributionDrop)
}

func TestOnlyPublicRegistryIsProductionOnly(t *testing.T) {
	cat := testCatalog()
	assert.True(t, cat.PublicRegistry.ProductionOnly)
	assert.False(t, cat.Local.ProductionOnly)
	assert.False(t, cat.GitHub.ProductionOnly)
	assert.False(t, cat.TestRegistry.ProductionOnly)
}

func TestCatalogCarriesDestinationsAndCredentialRefs(t *testing.T) {
	cat := testCatalog()
	assert.Equal(t, LocalFeed, cat.Local.Kind)
	assert.Equal(t, "/feeds/local", cat.Local.Destination)
	assert.Equal(t, RemoteFeed, cat.PublicRegistry.Kind)
	assert.Equal(t, "PUB_KEY", cat.PublicRegistry.CredentialRef)
}
