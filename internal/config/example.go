package config

import (
	"fmt"
	"os"
)

// ExampleYAML is the commented starter configuration written by `releasekit init`.
const ExampleYAML = `# releasekit configuration
source_root: src            # where solutions are discovered
artifacts_dir: artifacts    # output tree root
configuration: Release
fail_fast: false            # abort the whole run on the first fatal unit failure

version:
  build: 1                  # coarse version fields; minor/revision derive from time
  major: 0

tools:
  dotnet: dotnet
  msbuild: msbuild
  props_reader: msbuildprops
  docfx: docfx
  stage_timeout: 10m        # per external invocation; 0 disables

docs:
  enabled: false            # per-unit reference docs stage

feeds:
  local: feeds/local        # local feed directory (all channels)
  github:
    url: https://nuget.pkg.github.com/example/index.json
    credential_env: GITHUB_FEED_TOKEN
  test_registry:
    url: https://apiint.nugettest.org/v3/index.json
    credential_env: TEST_REGISTRY_KEY
  public_registry:          # production channel only
    url: https://api.nuget.org/v3/index.json
    credential_env: NUGET_API_KEY

retry:
  backoff: linear           # fixed | linear | exponential
  initial: 1s
  max: 30s
  max_retries: 2

history:
  enabled: true
  # path: artifacts/releasekit.db

events:
  nats_url: ""              # e.g. nats://localhost:4222; empty disables

metrics:
  enabled: false
  listen: ":9464"

daemon:
  interval: 15m
  listen: ":9464"

watch:
  debounce: 2s
`

// WriteExample writes the starter configuration, refusing to overwrite
// unless force is set.
func WriteExample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, []byte(ExampleYAML), 0o600)
}
