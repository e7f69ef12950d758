// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/oneconcern/refstore/pkg/core"
	"github.com/spf13/cobra"
)

// exitCodeNotInSync is returned by status --exit-code when some entry needs attention
const exitCodeNotInSync = 3

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync status of the project references",
	Long: `Show the sync status of the project references.

Each entry of the manifest is reported as:
  in-sync     the destination holds the expected content
  stale       the destination differs from the expected content
  missing     the destination does not exist yet
  unresolved  the entry does not resolve in any registry
  orphaned    a directory of .references/ claimed by no entry

The status command never writes anything.`,
	Example: `% refstore status
NAME      STATE    REGISTRY  DESTINATION  PIN  REVISION  FILES
go-style  in-sync  local     go-style          3f2a9c1e  12/12`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, project, err := openAll(ctx)
		if err != nil {
			wrapFatalln("open project", err)
			return
		}
		statuses, err := project.Status(ctx)
		if err != nil {
			wrapFatalln("compute status", err)
			return
		}
		if err = render(statuses, statusFormatter); err != nil {
			wrapFatalln("print status", err)
			return
		}
		if !refstoreFlags.status.ExitCode {
			return
		}
		counts := core.Counts(statuses)
		if counts[core.StateInSync] != len(statuses) {
			wrapFatalWithCodef(exitCodeNotInSync, "%d of %d entries are not in sync", len(statuses)-counts[core.StateInSync], len(statuses))
		}
	},
}

var stateColors = map[core.EntryState]func(string, ...interface{}) string{
	core.StateInSync:     color.GreenString,
	core.StateStale:      color.YellowString,
	core.StateMissing:    color.YellowString,
	core.StateUnresolved: color.RedString,
	core.StateOrphaned:   color.HiBlackString,
}

func colorState(state core.EntryState) string {
	if paint, ok := stateColors[state]; ok {
		return paint("%s", state)
	}
	return string(state)
}

func shortRevision(revision string) string {
	if len(revision) > 8 {
		return revision[:8]
	}
	return revision
}

var statusFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	statuses := data.([]core.EntryStatus)
	if len(statuses) == 0 {
		_, err := io.WriteString(w, "No references in manifest.\n")
		return err
	}
	table := newTable("NAME", "STATE", "REGISTRY", "DESTINATION", "PIN", "REVISION", "FILES")
	var problems []string
	for _, s := range statuses {
		files := ""
		if s.State != core.StateUnresolved && s.State != core.StateOrphaned {
			files = fmt.Sprintf("%d/%d", s.Actual, s.Expected)
		}
		table.AddRow(s.Name, colorState(s.State), s.Registry, s.Destination, s.Pin, shortRevision(s.Revision), files)
		if s.Error != "" {
			problems = append(problems, s.Error)
		}
	}
	if err := printTable(w, table); err != nil {
		return err
	}
	counts := core.Counts(statuses)
	summary := make([]string, 0, len(counts))
	for _, state := range []core.EntryState{core.StateInSync, core.StateStale, core.StateMissing, core.StateUnresolved, core.StateOrphaned} {
		if counts[state] > 0 {
			summary = append(summary, fmt.Sprintf("%d %s", counts[state], state))
		}
	}
	if _, err := fmt.Fprintf(w, "\n%s\n", strings.Join(summary, ", ")); err != nil {
		return err
	}
	for _, problem := range problems {
		if _, err := fmt.Fprintln(w, color.RedString("error:"), problem); err != nil {
			return err
		}
	}
	return nil
})

func init() {
	addExitCodeFlag(statusCmd)
	rootCmd.AddCommand(statusCmd)
}
