// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"io"
	"log"

	"github.com/fatih/color"
	"github.com/oneconcern/refstore/pkg/core"
	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var syncCmd = &cobra.Command{
	Use:   "sync [name]",
	Short: "Sync the references directory from the manifest",
	Long: `Sync the references directory from the manifest.

Each entry of the manifest is materialized under .references/, from the registry content cache,
or from a snapshot of the registry when the entry is pinned. Destinations already holding the
expected content are skipped, unless --force is given.

When some entries fail to resolve, every failure is reported and nothing is synced.
A name restricts the sync to one entry, or to the members of one bundle.`,
	Example: `% refstore sync
% refstore sync go-style --force`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		var name string
		if len(args) > 0 {
			name = args[0]
		}
		_, project, err := openAll(ctx)
		if err != nil {
			wrapFatalln("open project", err)
			return
		}
		results, err := project.Sync(ctx, name, refstoreFlags.sync.Force)
		if err != nil {
			reportResolutionFailures(err)
			wrapFatalln("sync", err)
			return
		}
		if err = render(results, syncFormatter); err != nil {
			wrapFatalln("print sync report", err)
			return
		}
	},
}

var syncFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	results := data.([]core.SyncResult)
	if len(results) == 0 {
		_, err := io.WriteString(w, "Nothing to sync.\n")
		return err
	}
	table := newTable("NAME", "DESTINATION", "STATE", "WRITTEN", "REMOVED")
	for _, r := range results {
		state := color.HiBlackString(string(r.State))
		if r.State == core.SyncStateSynced {
			state = color.GreenString(string(r.State))
		}
		table.AddRow(r.Job.Name, r.Job.Destination, state, r.Written, r.Removed)
	}
	return printTable(w, table)
})

// reportResolutionFailures lists each unresolved entry on stderr
func reportResolutionFailures(err error) {
	if !errors.Is(err, status.ErrResolutionFailed) {
		return
	}
	for _, failure := range multierr.Errors(errors.Unwrap(err)) {
		log.Println(color.RedString("unresolved:"), failure)
	}
}

func init() {
	addSyncForceFlag(syncCmd)
	rootCmd.AddCommand(syncCmd)
}
