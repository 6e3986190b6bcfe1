package cache

import (
	"fmt"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"

	"greentic.software/resolver/cmd/global"
	"greentic.software/resolver/internal/cache"
	resolverctx "greentic.software/resolver/internal/context"
)

const FlagDigest = "digest"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "cache",
		Short:             "Inspect the artifact cache",
		RunE:              func(cmd *cobra.Command, args []string) error { return cmd.Help() },
		DisableAutoGenTag: true,
	}

	cmd.AddCommand(NewPath())

	return cmd
}

func NewPath() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path {id} {version}",
		Short: "Print the cache path derived for a component id and version",
		Long: `Print the cache path derived for a component id and version.

Without a digest, the path is derived from the sanitized component id and
the version. With --digest, the path is content-addressed and identical
content maps to the same slot regardless of version.`,
		Args:              cobra.ExactArgs(2),
		RunE:              Path,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.Flags().String(FlagDigest, "", "content digest, e.g. sha256:abc...")

	return cmd
}

func Path(cmd *cobra.Command, args []string) error {
	rctx := resolverctx.FromContext(cmd.Context())

	baseDir, err := cmd.Flags().GetString(global.CacheDirFlag)
	if err != nil {
		return err
	}
	if baseDir == "" {
		if cfg := rctx.Configuration(); cfg != nil {
			baseDir = cfg.CacheDir
		}
	}

	dgst, err := cmd.Flags().GetString(FlagDigest)
	if err != nil {
		return err
	}

	var parsed digest.Digest
	if dgst != "" {
		if parsed, err = digest.Parse(dgst); err != nil {
			return fmt.Errorf("invalid digest %q: %w", dgst, err)
		}
	}

	path := cache.Path(args[0], args[1], baseDir, parsed)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}
