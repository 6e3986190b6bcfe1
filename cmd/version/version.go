package version

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"greentic.software/resolver/internal/version"
)

const (
	FlagFormat            = "format"
	FlagFormatShortHand   = "f"
	FlagFormatJSON        = "json"
	FlagFormatGoBuildInfo = "gobuildinfo"
)

var BuildVersion = "n/a"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Retrieve the version of the resolver CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString(FlagFormat)
			if err != nil {
				return err
			}
			ver, ok := debug.ReadBuildInfo()
			if !ok {
				return fmt.Errorf("no build info available")
			}
			if BuildVersion != "n/a" {
				// Override the version if specified
				ver.Main.Version = BuildVersion
			}
			switch format {
			case FlagFormatJSON:
				info, err := version.Get(ver)
				if err != nil {
					return err
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			case FlagFormatGoBuildInfo:
				str := ver.String()
				_, err = io.Copy(cmd.OutOrStdout(), strings.NewReader(str))
				return err
			default:
				return cmd.Help()
			}
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.Flags().StringP(FlagFormat, FlagFormatShortHand, FlagFormatJSON, "Format of the version output (json, gobuildinfo)")
	return cmd
}
