package collector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"xrdcc/internal/collector/storage"
	"xrdcc/internal/collector/storage/fs"
	"xrdcc/internal/collector/storage/objectstore"
	"xrdcc/internal/collector/xrdclient"
)

// Collector wires configuration, a storage backend, and an X-Road
// protocol client into one end-to-end run.
type Collector struct {
	Config *Config
	Client xrdclient.Client
	Logger zerolog.Logger
}

// Run executes one full collection pass: fetch global configuration,
// enumerate subsystems, fan out the worker pool, and write the
// catalogue. It returns an error for any condition that should make the
// process exit non-zero.
func (c *Collector) Run(ctx context.Context) error {
	runID := uuid.New().String()
	c.Logger = c.Logger.With().Str("run_id", runID).Logger()

	backend, err := c.buildBackend(ctx)
	if err != nil {
		return fmt.Errorf("collector: build storage backend: %w", err)
	}

	sharedParams, err := c.Client.SharedParamsSS(ctx, c.Config.Instance)
	if err != nil {
		return fmt.Errorf("collector: fetch global configuration: %w", err)
	}

	allSubsystems, err := c.Client.RegisteredSubsystems(sharedParams)
	if err != nil {
		return fmt.Errorf("collector: enumerate registered subsystems: %w", err)
	}

	subsystems := c.filterSubsystems(allSubsystems)
	c.Logger.Info().Int("total", len(allSubsystems)).Int("selected", len(subsystems)).Msg("enumerated subsystems")

	processor := &Processor{Client: c.Client, Backend: backend, Logger: c.Logger}
	pool := &Pool{Processor: processor, Backend: backend, Logger: c.Logger}
	results := pool.Run(ctx, subsystems, c.Config.ThreadCount)

	if !backend.Active() {
		return fmt.Errorf("collector: storage backend deactivated during run, snapshot not written")
	}
	if AllFailed(results) {
		return fmt.Errorf("collector: every subsystem failed, snapshot not written")
	}

	if err := backend.SaveCatalogue(ctx, results); err != nil {
		return fmt.Errorf("collector: save catalogue: %w", err)
	}

	return nil
}

func (c *Collector) buildBackend(ctx context.Context) (storage.Backend, error) {
	storageCfg, err := c.Config.StorageConfig()
	if err != nil {
		return nil, err
	}

	switch c.Config.StoragePlugin {
	case "", "filesystem":
		return fs.NewBackend(c.Config.OutputPath, storageCfg, c.Logger), nil
	case "objectstore":
		settings := objectstore.Settings{
			URL:       c.Config.MinioURL,
			AccessKey: c.Config.MinioAccessKey,
			SecretKey: c.Config.MinioSecretKey,
			Region:    "us-east-1",
			Bucket:    c.Config.MinioBucket,
			PathStyle: true,
			Secure:    c.Config.MinioSecure,
			KeyPrefix: objectstore.CanonicalizePrefix(c.Config.MinioPath),
		}
		return objectstore.NewBackend(ctx, settings, storageCfg, c.Logger)
	default:
		return nil, fmt.Errorf("unknown storage_plugin %q", c.Config.StoragePlugin)
	}
}

func (c *Collector) filterSubsystems(all [][]string) [][]string {
	excludedMembers := map[string]bool{}
	for _, m := range c.Config.ExcludedMemberCodes {
		excludedMembers[m] = true
	}
	excludedSubsystems := map[[2]string]bool{}
	for _, pair := range c.Config.ExcludedSubsystemCodes {
		excludedSubsystems[pair] = true
	}

	out := make([][]string, 0, len(all))
	for _, s := range all {
		if len(s) != 4 {
			continue
		}
		memberCode, subsystemCode := s[2], s[3]
		if excludedMembers[memberCode] {
			continue
		}
		if excludedSubsystems[[2]string{memberCode, subsystemCode}] {
			continue
		}
		out = append(out, s)
	}
	return out
}
