package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"greentic.software/resolver/cmd/cache"
	"greentic.software/resolver/cmd/global"
	"greentic.software/resolver/cmd/resolve"
	"greentic.software/resolver/cmd/schema"
	"greentic.software/resolver/cmd/validate"
	"greentic.software/resolver/cmd/version"
	"greentic.software/resolver/internal/artifact"
	resolverctx "greentic.software/resolver/internal/context"
	"greentic.software/resolver/internal/engine"
	"greentic.software/resolver/internal/flags/file"
	"greentic.software/resolver/internal/workspace"
	"greentic.software/resolver/log"
)

// Resolver is the root command together with the workspace configuration
// loaded during PersistentPreRunE.
type Resolver struct {
	*cobra.Command
	Configuration *workspace.Config
}

// Root represents the base command when called without any subcommands
var Root *Resolver

func init() {
	Root = &Resolver{
		Command: &cobra.Command{
			Use:   "greentic-resolver [sub-command]",
			Short: "Resolve and validate greentic components",
			Long: `The greentic resolver turns component coordinates into ready-to-use
  components: it locates the artifact, caches it, gates the version against
  the requested range, selects the newest describe schema, and validates
  flow node configurations against it.`,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cmd.Help()
			},
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				logger, err := log.GetBaseLogger(cmd)
				if err != nil {
					return fmt.Errorf("could not retrieve logger: %w", err)
				}
				slog.SetDefault(logger)

				workspaceDir, err := cmd.Flags().GetString(global.WorkspaceFlag)
				if err != nil {
					return err
				}
				cfg, err := loadConfiguration(cmd, workspaceDir)
				if err != nil {
					return fmt.Errorf("could not load workspace configuration: %w", err)
				}
				Root.Configuration = cfg

				e, err := buildEngine(cmd, cfg, workspaceDir)
				if err != nil {
					return err
				}

				ctx := slogctx.NewCtx(cmd.Context(), logger)
				cmd.SetContext(resolverctx.Bind(ctx, e, cfg, workspaceDir))

				return nil
			},
			DisableAutoGenTag: true,
		},
	}

	Root.AddCommand(resolve.New())
	Root.AddCommand(schema.New())
	Root.AddCommand(validate.New())
	Root.AddCommand(cache.New())
	Root.AddCommand(version.New())
	global.RegisterFlags(Root.Command)
	log.RegisterLoggingFlags(Root.Command)
	file.Var(Root.PersistentFlags(), FlagConfig, "", "path to an alternate workspace configuration file")
}

const FlagConfig = "config"

// loadConfiguration resolves the workspace configuration: an explicit
// --config file wins over the well-known workspace location.
func loadConfiguration(cmd *cobra.Command, workspaceDir string) (*workspace.Config, error) {
	configFlag, err := file.Get(cmd.Flags(), FlagConfig)
	if err != nil {
		return nil, err
	}
	if path := configFlag.String(); path != "" {
		if !configFlag.Exists() {
			return nil, fmt.Errorf("configuration file %q does not exist", path)
		}
		return workspace.LoadConfigFile(path)
	}
	return workspace.LoadConfig(workspaceDir)
}

// buildEngine assembles the engine from persistent flags and the workspace
// configuration. Flags take precedence over file values.
func buildEngine(cmd *cobra.Command, cfg *workspace.Config, workspaceDir string) (*engine.Engine, error) {
	cacheDir, err := cmd.Flags().GetString(global.CacheDirFlag)
	if err != nil {
		return nil, err
	}
	if cacheDir == "" {
		cacheDir = cfg.CacheDir
	}
	if cacheDir == "" {
		cacheDir = filepath.Join(workspaceDir, ".greentic", "cache")
	}

	offline, err := cmd.Flags().GetBool(global.OfflineFlag)
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed(global.OfflineFlag) {
		offline = cfg.Offline
	}

	timeout, err := cmd.Flags().GetDuration(global.TimeoutFlag)
	if err != nil {
		return nil, err
	}
	if timeout == 0 {
		if timeout, err = cfg.Timeout(); err != nil {
			return nil, err
		}
	}

	fetcher := &artifact.Fetcher{
		Client:  &http.Client{},
		Timeout: timeout,
	}

	return engine.New(
		engine.WithFetcher(fetcher),
		engine.WithCacheDir(cacheDir),
		engine.WithOffline(offline),
	), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the Root.
func Execute() {
	err := Root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
