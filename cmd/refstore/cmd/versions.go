// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"io"
	"time"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/oneconcern/refstore/pkg/vcs"
	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions <name>",
	Short: "Show the version history of a reference",
	Long: `Show the version history of a reference, most recent first.

Any revision listed here, as well as any registry tag, may be used to pin a project entry.`,
	Example: `% refstore versions go-style
REVISION  DATE          MESSAGE
3f2a9c1e  2 hours ago   Update reference: go-style
9b0d47aa  3 weeks ago   Add reference: go-style`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, err := openRepository(ctx)
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		commits, err := repo.Versions(ctx, args[0])
		if err != nil {
			wrapFatalln("get history", err)
			return
		}
		if err = render(commits, versionsFormatter); err != nil {
			wrapFatalln("print history", err)
			return
		}
	},
}

func humanAge(t time.Time) string {
	return units.HumanDuration(time.Since(t)) + " ago"
}

var versionsFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
	commits := data.([]vcs.Commit)
	if len(commits) == 0 {
		_, err := io.WriteString(w, "No history.\n")
		return err
	}
	table := newTable("REVISION", "DATE", "MESSAGE")
	for _, c := range commits {
		table.AddRow(color.YellowString("%s", c.Short()), humanAge(c.Timestamp), c.Message)
	}
	return printTable(w, table)
})

func init() {
	rootCmd.AddCommand(versionsCmd)
}
