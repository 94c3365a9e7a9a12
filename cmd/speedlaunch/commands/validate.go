package commands

import (
	"errors"
	"fmt"

	"github.com/livetemplate/speedlaunch"
	"github.com/spf13/cobra"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a guide markdown file for problems",
		Long: `Parses a guide file and reports the first problem with its line and a hint.
Without a file, validates --guide or the built-in guide.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := root.guidePath
			if len(args) == 1 {
				path = args[0]
			}

			out := cmd.OutOrStdout()
			g, err := speedlaunch.Load(path)
			if err != nil {
				var perr *speedlaunch.ParseError
				if errors.As(err, &perr) {
					fmt.Fprint(out, perr.Format())
					return fmt.Errorf("validation failed")
				}
				return err
			}

			name := path
			if name == "" {
				name = speedlaunch.DefaultGuideName
			}
			fmt.Fprintf(out, "✅ %s is valid\n\n", name)
			fmt.Fprintf(out, "Title: %s\n", g.Title)
			for _, p := range g.Progress(nil) {
				fmt.Fprintf(out, "  Step %d: %s (%d checklist items)\n", p.Step, p.Title, p.Total)
			}
			fmt.Fprintf(out, "Workflows: %d\n", len(g.Workflows))
			return nil
		},
	}
}
