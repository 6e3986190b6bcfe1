package validate

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	resolverctx "greentic.software/resolver/internal/context"
	"greentic.software/resolver/internal/engine"
	"greentic.software/resolver/internal/enum"
	"greentic.software/resolver/internal/payload"
)

const (
	FlagComponent = "component"
	FlagKey       = "key"
	FlagNode      = "node"
	FlagOutput    = "output"
	FlagRoot      = "root"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "validate {flow.yaml}",
		Aliases: []string{"val"},
		Short:   "Validate flow node configurations against a component's describe schema",
		Args:    cobra.ExactArgs(1),
		Long: `Validate flow node configurations against a component's describe schema.

The component coordinate is resolved first, then every node of the flow
document that carries a configuration under the component key is checked.
Violations are reported with JSON pointers into the source document; the
command exits non-zero when any violation exists.`,
		Example: strings.TrimSpace(`
Validating every weather node of a flow:

validate flows/forecast.yaml --component ns.weather@^1.0 --key weather

Validating a single node:

validate flows/forecast.yaml --component ns.weather --key weather --node fetch
`),
		RunE:              Validate,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.Flags().StringP(FlagComponent, "c", "", "component coordinate to validate against")
	cmd.Flags().StringP(FlagKey, "k", "", "component key the node configurations live under")
	cmd.Flags().String(FlagNode, "", "validate only this node instead of the whole flow")
	cmd.Flags().String(FlagRoot, "", "component root directory (defaults to the workspace directory)")
	enum.VarP(cmd.Flags(), FlagOutput, "o", []string{"auto", "table", "json"}, "output format of the validation diagnostics")
	_ = cmd.MarkFlagRequired(FlagComponent)
	_ = cmd.MarkFlagRequired(FlagKey)

	return cmd
}

func Validate(cmd *cobra.Command, args []string) error {
	rctx := resolverctx.FromContext(cmd.Context())
	eng := rctx.Engine()
	if eng == nil {
		return fmt.Errorf("could not retrieve resolution engine from context")
	}

	coordinate, err := cmd.Flags().GetString(FlagComponent)
	if err != nil {
		return err
	}
	key, err := cmd.Flags().GetString(FlagKey)
	if err != nil {
		return err
	}
	node, err := cmd.Flags().GetString(FlagNode)
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
	output, err := enum.Get(cmd.Flags(), FlagOutput)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}
	if output == "auto" {
		output = "json"
		if file, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			output = "table"
		}
	}

	doc, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading flow document %q failed: %w", args[0], err)
	}

	resolved, err := eng.Resolve(cmd.Context(), coordinate, root)
	if err != nil {
		return fmt.Errorf("resolving %q failed: %w", coordinate, err)
	}

	validations, err := run(cmd, eng, resolved, doc, node, key)
	if err != nil {
		return err
	}

	data, size, err := encodeValidations(output, validations)
	if err != nil {
		return fmt.Errorf("generating output failed: %w", err)
	}
	if _, err := io.CopyN(cmd.OutOrStdout(), data, size); err != nil {
		return fmt.Errorf("writing validation diagnostics failed: %w", err)
	}

	var violations []payload.ValidationError
	for _, validation := range validations {
		violations = append(violations, validation.Errors...)
	}
	if len(violations) > 0 {
		return &payload.ValidationFailedError{Errors: violations}
	}

	return nil
}

func run(cmd *cobra.Command, eng *engine.Engine, resolved *engine.ResolvedComponent, doc []byte, node, key string) ([]*engine.Validation, error) {
	if node != "" {
		validation, err := eng.ValidateNode(cmd.Context(), resolved, doc, node, key)
		if err != nil {
			return nil, fmt.Errorf("validating node %q failed: %w", node, err)
		}
		return []*engine.Validation{validation}, nil
	}

	validations, err := eng.ValidateFlow(cmd.Context(), resolved, doc, key)
	if err != nil {
		return nil, fmt.Errorf("validating flow failed: %w", err)
	}
	return validations, nil
}
