package schema

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	resolverctx "greentic.software/resolver/internal/context"
	"greentic.software/resolver/internal/enum"
	"greentic.software/resolver/internal/render/jsonschema"
	render "greentic.software/resolver/internal/render/types"
)

const (
	FlagOutput = "output"
	FlagRoot   = "root"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema {coordinate}",
		Short: "Describe a component's configuration schema",
		Long: `Describe a component's configuration schema.

The coordinate is resolved first, then the newest describe schema of the
component is rendered as field documentation: paths, types, required
markers, defaults, and enums.`,
		Example: strings.TrimSpace(`
Rendering the schema of a local component:

schema ns.weather --root ./components

Generating markdown documentation:

schema ns.weather@^1.0 -o markdown
`),
		Args:              cobra.ExactArgs(1),
		RunE:              Schema,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	enum.VarP(cmd.Flags(), FlagOutput, "o", []string{"text", "markdown", "json"}, "output format of the schema documentation")
	cmd.Flags().String(FlagRoot, "", "component root directory (defaults to the workspace directory)")

	return cmd
}

func getRenderer(format string) (render.DocRenderer, error) {
	switch format {
	case "text":
		return render.NewTextRenderer(), nil
	case "markdown":
		return &render.MarkdownRenderer{}, nil
	case "json":
		return render.NewSchemaRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

func Schema(cmd *cobra.Command, args []string) error {
	rctx := resolverctx.FromContext(cmd.Context())
	eng := rctx.Engine()
	if eng == nil {
		return fmt.Errorf("could not retrieve resolution engine from context")
	}

	output, err := enum.Get(cmd.Flags(), FlagOutput)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}
	renderer, err := getRenderer(output)
	if err != nil {
		return err
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

	doc := jsonschema.FromSchema(resolved.Schema)
	component := fmt.Sprintf("%s@%s, describe %s", resolved.Summary.Name, resolved.Summary.Version, resolved.Summary.DescribeVersion)
	return renderer.RenderSchema(cmd.OutOrStdout(), component, doc)
}
