package commands

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/livetemplate/speedlaunch"
	"github.com/livetemplate/speedlaunch/internal/clipboard"
	"github.com/livetemplate/speedlaunch/internal/state"
	"github.com/spf13/cobra"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [directory]",
		Short: "Show saved progress",
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

			store := p.newStore(root.logger, clipboard.Unavailable{})
			defer store.Close()

			printStatus(cmd.OutOrStdout(), p.guide, store.Snapshot())
			return nil
		},
	}
}

func printStatus(w io.Writer, g *speedlaunch.Guide, snap state.Snapshot) {
	fmt.Fprintf(w, "%s\n\n", g.Title)
	fmt.Fprintf(w, "Mode: %s\n", snap.Mode)
	fmt.Fprintf(w, "Current step: %d\n\n", snap.ChallengeStep)

	for _, p := range g.Progress(snap.CheckboxStates) {
		marker := " "
		if snap.StepCompleted(p.Step) {
			marker = "✓"
		} else if p.Step == snap.ChallengeStep {
			marker = "→"
		}
		line := fmt.Sprintf("%s Step %d: %s", marker, p.Step, p.Title)
		if p.Total > 0 {
			line += fmt.Sprintf(" (%d/%d checked)", p.Done, p.Total)
		}
		fmt.Fprintln(w, line)
	}

	var other []string
	for id, checked := range snap.CheckboxStates {
		if _, ok := g.Checkbox(id); checked && !ok {
			other = append(other, id)
		}
	}
	if len(other) > 0 {
		slices.Sort(other)
		fmt.Fprintf(w, "\n%d checked item(s) not in this guide: %s\n", len(other), strings.Join(other, ", "))
	}
}
