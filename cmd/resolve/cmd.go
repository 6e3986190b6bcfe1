package resolve

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	resolverctx "greentic.software/resolver/internal/context"
	"greentic.software/resolver/internal/enum"
)

const (
	FlagOutput = "output"
	FlagRoot   = "root"
	FlagSkip   = "skip-workspace"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resolve {coordinate}",
		Aliases: []string{"res"},
		Short:   "Resolve a component coordinate into a ready-to-use component",
		Args:    cobra.MatchAll(cobra.ExactArgs(1), CoordinateAsFirstPositional),
		Long: `Resolve a component coordinate into a ready-to-use component.

The coordinate names a component and an optional semantic version
requirement, e.g. "ns.weather@^1.0". The artifact is located under the
component root (falling back from the full id to its short name), fetched
into the content-addressed cache, gated against the requirement, and its
newest describe schema is selected. The result is recorded in the
workspace manifest.`,
		Example: strings.TrimSpace(`
Resolving a local component with a version requirement:

resolve ns.weather@^1.2 --root ./components

Resolving a remote pack:

resolve https://packs.example.com/ns.weather.gtpack -o json
`),
		RunE:              Resolve,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	enum.VarP(cmd.Flags(), FlagOutput, "o", []string{"table", "json", "yaml"}, "output format of the resolution summary")
	cmd.Flags().String(FlagRoot, "", "component root directory (defaults to the workspace directory)")
	cmd.Flags().Bool(FlagSkip, false, "do not record the resolution in the workspace manifest")

	return cmd
}

func CoordinateAsFirstPositional(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing component coordinate as first positional argument")
	}
	return nil
}

func Resolve(cmd *cobra.Command, args []string) error {
	rctx := resolverctx.FromContext(cmd.Context())
	eng := rctx.Engine()
	if eng == nil {
		return fmt.Errorf("could not retrieve resolution engine from context")
	}

	output, err := enum.Get(cmd.Flags(), FlagOutput)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}

	root, err := cmd.Flags().GetString(FlagRoot)
	if err != nil {
		return err
	}
	if root == "" {
		root = rctx.WorkspaceDir()
	}

	coordinate := args[0]
	resolved, err := eng.Resolve(cmd.Context(), coordinate, root)
	if err != nil {
		return fmt.Errorf("resolving %q failed: %w", coordinate, err)
	}

	if skip, err := cmd.Flags().GetBool(FlagSkip); err != nil {
		return err
	} else if !skip {
		if err := eng.RecordWorkspace(rctx.WorkspaceDir(), coordinate, resolved); err != nil {
			return fmt.Errorf("recording resolution in workspace manifest failed: %w", err)
		}
	}

	data, size, err := encodeSummary(output, resolved)
	if err != nil {
		return fmt.Errorf("generating output failed: %w", err)
	}

	if _, err := io.CopyN(cmd.OutOrStdout(), data, size); err != nil {
		return fmt.Errorf("writing resolution summary failed: %w", err)
	}

	return nil
}
