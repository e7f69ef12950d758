// Copyright © 2018 One Concern

package cmd

import (
	"fmt"

	"github.com/oneconcern/refstore/pkg/dlogger"
	"github.com/spf13/cobra"
)

type flagsT struct {
	root struct {
		dataDir  string
		logLevel string
		project  string
	}
	core struct {
		Output   string
		Template string
	}
	reference struct {
		Description string
		Tags        []string
		Ref         string
		Subpath     string
		Message     string
		Target      string
		Overwrite   bool
		Kind        string
	}
	bundle struct {
		IsBundle    bool
		Members     []string
		AddRefs     []string
		RemoveRefs  []string
		Description string
		Tags        []string
	}
	entry struct {
		Pin     string
		Path    string
		Include []string
		Exclude []string
		Sync    bool
		Purge   bool
	}
	project struct {
		CommitReferences bool
		Path             string
	}
	sync struct {
		Force bool
	}
	status struct {
		ExitCode bool
	}
	search struct {
		Reference    string
		Registry     string
		Limit        int
		ContentOnly  bool
		MetadataOnly bool
	}
	list struct {
		Tag string
	}
	force bool
	doc   struct {
		docTarget string
		docFormat string
	}
}

var refstoreFlags = flagsT{}

const (
	dataDirKey  = "data_dir"
	logLevelKey = "loglevel"
)

func addDataDirFlag(cmd *cobra.Command) string {
	dataDir := "data-dir"
	cmd.PersistentFlags().StringVar(&refstoreFlags.root.dataDir, dataDir, "",
		"The refstore data directory (defaults to $XDG_DATA_HOME/refstore or ~/.local/share/refstore)")
	return dataDir
}

func addLogLevel(cmd *cobra.Command) string {
	logLevel := "loglevel"
	cmd.PersistentFlags().StringVar(&refstoreFlags.root.logLevel, logLevel, dlogger.LogLevelInfo,
		"The logging level. Levels by increasing order of verbosity: none, error, warn, info, debug")
	return logLevel
}

func addProjectDirFlag(cmd *cobra.Command) string {
	project := "project"
	cmd.PersistentFlags().StringVar(&refstoreFlags.root.project, project, "",
		"The project directory, or any directory below it (defaults to the current directory)")
	return project
}

func addOutputFlag(cmd *cobra.Command) string {
	output := "output"
	cmd.PersistentFlags().StringVarP(&refstoreFlags.core.Output, output, "o", outputTable,
		fmt.Sprintf("Output format: %s, %s or %s", outputTable, outputJSON, outputYAML))
	return output
}

func addTemplateFlag(cmd *cobra.Command) string {
	c := "format"
	cmd.PersistentFlags().StringVar(&refstoreFlags.core.Template, c, "",
		`Pretty-print refstore objects using a Go template. Use '{{ printf "%#v" . }}' to explore available fields`)
	return c
}

func addForceFlag(cmd *cobra.Command) string {
	force := "force"
	cmd.Flags().BoolVarP(&refstoreFlags.force, force, "f", false, "Skip the confirmation prompt")
	return force
}

func addDescriptionFlag(cmd *cobra.Command) string {
	description := "description"
	cmd.Flags().StringVarP(&refstoreFlags.reference.Description, description, "d", "", "A human-readable description")
	return description
}

func addTagsFlag(cmd *cobra.Command) string {
	tag := "tag"
	cmd.Flags().StringSliceVarP(&refstoreFlags.reference.Tags, tag, "t", nil, "Tags for organization (may be repeated)")
	return tag
}

func addGitRefFlag(cmd *cobra.Command) string {
	ref := "ref"
	cmd.Flags().StringVar(&refstoreFlags.reference.Ref, ref, "",
		"The git branch, tag or commit to fetch (defaults to the configured default branch, then the remote HEAD)")
	return ref
}

func addSubpathFlag(cmd *cobra.Command) string {
	subpath := "subpath"
	cmd.Flags().StringVar(&refstoreFlags.reference.Subpath, subpath, "", "A subdirectory of the git repository to use as the content root")
	return subpath
}

func addTagMessageFlag(cmd *cobra.Command) string {
	message := "message"
	cmd.Flags().StringVarP(&refstoreFlags.reference.Message, message, "m", "", "The message of an annotated tag")
	return message
}

func addPushTargetFlag(cmd *cobra.Command) string {
	to := "to"
	cmd.Flags().StringVar(&refstoreFlags.reference.Target, to, "", "The path to the target registry")
	return to
}

func addOverwriteFlag(cmd *cobra.Command) string {
	overwrite := "overwrite"
	cmd.Flags().BoolVar(&refstoreFlags.reference.Overwrite, overwrite, false, "Replace the reference when the target registry already holds it")
	return overwrite
}

func addListTagFlag(cmd *cobra.Command) string {
	tag := "tag"
	cmd.Flags().StringVarP(&refstoreFlags.list.Tag, tag, "t", "", "Only list entries carrying this tag")
	return tag
}

func addKindFlag(cmd *cobra.Command) string {
	kind := "kind"
	cmd.Flags().StringVarP(&refstoreFlags.reference.Kind, kind, "k", "", "Only list references of this kind: file, directory or git_repo")
	return kind
}

func addBundleFlag(cmd *cobra.Command) string {
	bundle := "bundle"
	cmd.Flags().BoolVar(&refstoreFlags.bundle.IsBundle, bundle, false, "The name is a bundle rather than a single reference")
	return bundle
}

func addBundleMembersFlag(cmd *cobra.Command) string {
	ref := "ref"
	cmd.Flags().StringSliceVar(&refstoreFlags.bundle.Members, ref, nil, "A reference to include in the bundle (may be repeated)")
	return ref
}

func addBundleAddRefsFlag(cmd *cobra.Command) string {
	add := "add-ref"
	cmd.Flags().StringSliceVar(&refstoreFlags.bundle.AddRefs, add, nil, "A reference to add to the bundle (may be repeated)")
	return add
}

func addBundleRemoveRefsFlag(cmd *cobra.Command) string {
	remove := "remove-ref"
	cmd.Flags().StringSliceVar(&refstoreFlags.bundle.RemoveRefs, remove, nil, "A reference to remove from the bundle (may be repeated)")
	return remove
}

func addBundleDescriptionFlag(cmd *cobra.Command) string {
	description := "description"
	cmd.Flags().StringVarP(&refstoreFlags.bundle.Description, description, "d", "", "A human-readable description")
	return description
}

func addBundleTagsFlag(cmd *cobra.Command) string {
	tag := "tag"
	cmd.Flags().StringSliceVarP(&refstoreFlags.bundle.Tags, tag, "t", nil, "Tags for organization (may be repeated)")
	return tag
}

func addPinFlag(cmd *cobra.Command) string {
	pin := "pin"
	cmd.Flags().StringVar(&refstoreFlags.entry.Pin, pin, "", "Pin the entry to a registry tag or commit")
	return pin
}

func addEntryPathFlag(cmd *cobra.Command) string {
	path := "path"
	cmd.Flags().StringVarP(&refstoreFlags.entry.Path, path, "p", "", "Override the destination of the entry, relative to the references directory")
	return path
}

func addIncludeFlag(cmd *cobra.Command) string {
	include := "include"
	cmd.Flags().StringSliceVar(&refstoreFlags.entry.Include, include, nil, "Only sync files matching this glob, e.g. '**/*.md' (may be repeated)")
	return include
}

func addExcludeFlag(cmd *cobra.Command) string {
	exclude := "exclude"
	cmd.Flags().StringSliceVar(&refstoreFlags.entry.Exclude, exclude, nil, "Do not sync files matching this glob (may be repeated)")
	return exclude
}

func addSyncNowFlag(cmd *cobra.Command) string {
	sync := "sync"
	cmd.Flags().BoolVar(&refstoreFlags.entry.Sync, sync, false, "Sync the content right after adding the entry")
	return sync
}

func addPurgeFlag(cmd *cobra.Command) string {
	purge := "purge"
	cmd.Flags().BoolVar(&refstoreFlags.entry.Purge, purge, false, "Also delete the synced content from the references directory")
	return purge
}

func addCommitReferencesFlag(cmd *cobra.Command) string {
	commit := "commit-references"
	cmd.Flags().BoolVar(&refstoreFlags.project.CommitReferences, commit, false, "Commit the references directory to git instead of ignoring it")
	return commit
}

func addInitPathFlag(cmd *cobra.Command) string {
	path := "path"
	cmd.Flags().StringVarP(&refstoreFlags.project.Path, path, "p", "", "The directory to initialize (defaults to the current directory)")
	return path
}

func addSyncForceFlag(cmd *cobra.Command) string {
	force := "force"
	cmd.Flags().BoolVarP(&refstoreFlags.sync.Force, force, "f", false, "Sync even when the content is up to date")
	return force
}

func addExitCodeFlag(cmd *cobra.Command) string {
	exitCode := "exit-code"
	cmd.Flags().BoolVar(&refstoreFlags.status.ExitCode, exitCode, false,
		fmt.Sprintf("Exit with code %d when some entry is not in sync", exitCodeNotInSync))
	return exitCode
}

func addSearchReferenceFlag(cmd *cobra.Command) string {
	ref := "ref"
	cmd.Flags().StringVar(&refstoreFlags.search.Reference, ref, "", "Only search this reference")
	return ref
}

func addSearchRegistryFlag(cmd *cobra.Command) string {
	registry := "registry"
	cmd.Flags().StringVar(&refstoreFlags.search.Registry, registry, "", "Only search this registry")
	return registry
}

func addSearchLimitFlag(cmd *cobra.Command) string {
	limit := "limit"
	cmd.Flags().IntVar(&refstoreFlags.search.Limit, limit, 50, "The maximum number of matches")
	return limit
}

func addContentOnlyFlag(cmd *cobra.Command) string {
	contentOnly := "content-only"
	cmd.Flags().BoolVar(&refstoreFlags.search.ContentOnly, contentOnly, false, "Only search the content of references")
	return contentOnly
}

func addMetadataOnlyFlag(cmd *cobra.Command) string {
	metadataOnly := "metadata-only"
	cmd.Flags().BoolVar(&refstoreFlags.search.MetadataOnly, metadataOnly, false, "Only search names, descriptions and tags")
	return metadataOnly
}

func addTargetFlag(cmd *cobra.Command) string {
	target := "target"
	cmd.Flags().StringVar(&refstoreFlags.doc.docTarget, target, "docs/usage", "Target directory for the generated documentation")
	return target
}

func addDocFormatFlag(cmd *cobra.Command) string {
	format := "doc-format"
	cmd.Flags().StringVar(&refstoreFlags.doc.docFormat, format, docMarkdown, "Format of the generated documentation: markdown or man")
	return format
}

func requireFlags(cmd *cobra.Command, flags ...string) {
	for _, flag := range flags {
		err := cmd.MarkFlagRequired(flag)
		if err != nil {
			err = cmd.MarkPersistentFlagRequired(flag)
		}
		if err != nil {
			wrapFatalln(fmt.Sprintf("error attempting to mark the required flag %q", flag), err)
			return
		}
	}
}
