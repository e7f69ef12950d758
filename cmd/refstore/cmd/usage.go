package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

const (
	docMarkdown = "markdown"
	docMan      = "man"
)

// docCmd generates the reference documentation of the command line
var docCmd = &cobra.Command{
	Use:    "usage",
	Short:  "Generate the command line documentation",
	Long:   `Generate the documentation of every refstore command, as markdown pages or as man pages.`,
	Hidden: true,
	Args:   cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		target := refstoreFlags.doc.docTarget
		if err := os.MkdirAll(target, 0o755); err != nil {
			wrapFatalln("create documentation directory", err)
			return
		}
		version := NewVersionInfo().Version

		var err error
		switch refstoreFlags.doc.docFormat {
		case docMarkdown:
			err = doc.GenMarkdownTreeCustom(rootCmd, target,
				func(string) string { return fmt.Sprintf("**Version: %s**\n\n", version) },
				func(name string) string { return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)) + ".md" },
			)
		case docMan:
			err = doc.GenManTree(rootCmd, &doc.GenManHeader{
				Title:   "REFSTORE",
				Section: "1",
				Source:  "refstore " + version,
			}, target)
		default:
			err = fmt.Errorf("unsupported documentation format %q", refstoreFlags.doc.docFormat)
		}
		if err != nil {
			wrapFatalln("generate documentation", err)
			return
		}
		infoLogger.Printf("Documentation written to %s", target)
	},
}

func init() {
	rootCmd.AddCommand(docCmd)
	addTargetFlag(docCmd)
	addDocFormatFlag(docCmd)
}
