// Package global holds the flags shared by every subcommand that touches
// the workspace. Flag values take precedence over the workspace
// configuration file.
package global

import "github.com/spf13/cobra"

const (
	// WorkspaceFlag Flag to specify the workspace directory holding .greentic/.
	WorkspaceFlag = "workspace"
	// CacheDirFlag Flag to specify the artifact cache directory, overriding the config file value.
	CacheDirFlag = "cache-dir"
	// OfflineFlag Flag to refuse network fetches and resolve from local targets only.
	OfflineFlag = "offline"
	// TimeoutFlag Flag to specify the timeout for a single artifact download, overriding the config file value.
	TimeoutFlag = "timeout"
)

func RegisterFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(WorkspaceFlag, "w", ".", "workspace directory holding .greentic/")
	cmd.PersistentFlags().String(CacheDirFlag, "", "artifact cache directory (defaults to <workspace>/.greentic/cache)")
	cmd.PersistentFlags().Bool(OfflineFlag, false, "refuse network fetches, resolve from local targets only")
	cmd.PersistentFlags().Duration(TimeoutFlag, 0, "timeout for a single artifact download")
}
