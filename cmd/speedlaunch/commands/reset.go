package commands

import (
	"fmt"

	"github.com/livetemplate/speedlaunch/internal/state"
	"github.com/spf13/cobra"
)

func newResetCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset [directory]",
		Short: "Clear saved progress",
		Long:  "Deletes the saved mode, current step, completed steps and checkbox states.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			p, err := root.loadProject(dir)
			if err != nil {
				return err
			}
			defer p.close()

			kv := p.openKV(root.logger)
			for _, key := range state.PersistedKeys {
				if err := kv.Delete(key); err != nil {
					return fmt.Errorf("failed to clear progress: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Progress cleared (%s storage)\n", p.storageConfig().GetBackend())
			return nil
		},
	}
}
