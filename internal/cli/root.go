package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morozRed/xmlref/internal/nav"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xmlref",
		Short: "Rename identifiers safely across XML mod data",
		Long: `xmlref indexes the identifiers defined and referenced across a set of
XML game-data files and renames one of them everywhere it is used,
keeping reference prefixes intact and reporting every change.

Inputs are a directory of XML files or a .zip bundle. Project settings
live in .xmlref/config.yaml.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (default .xmlref/config.yaml)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Silence all logging")

	// Core Commands
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create .xmlref/ with a default config and attribute table",
		RunE:  RunInit,
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing config and attribute table")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Index definitions and references and record document state",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunAnalyze,
	}
	analyzeCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	checkCmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Fail on malformed documents or duplicate definitions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunCheck,
	}
	checkCmd.Flags().Bool("json", false, "Print machine-readable check results")

	renameCmd := &cobra.Command{
		Use:   "rename <old-id> <new-id> [path]",
		Short: "Rename an identifier and every reference to it",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  RunRename,
	}
	renameCmd.Flags().Bool("dry-run", false, "Report changes without writing any file")
	renameCmd.Flags().String("out", "", "Write every document below this directory instead of in place")
	renameCmd.Flags().String("zip", "", "Write every document into this zip bundle instead of in place")
	renameCmd.Flags().Int("indent", -1, "Indent width for serialized documents (default from config)")
	renameCmd.Flags().Bool("json", false, "Print machine-readable rename result")

	// Inspect Commands
	statusCmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show documents changed since the last analyze or rename",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunStatus,
	}
	statusCmd.Flags().Bool("explain", false, "Explain why each impacted document is included")
	statusCmd.Flags().Bool("json", false, "Print machine-readable status output")

	doctorCmd := &cobra.Command{
		Use:   "doctor [path]",
		Short: "Validate xmlref setup and state freshness",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunDoctor,
	}
	doctorCmd.Flags().Bool("json", false, "Print machine-readable doctor output")

	refsCmd := &cobra.Command{
		Use:   "refs <document> [path]",
		Short: "List the definitions and references found in one document",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  RunRefs,
	}
	refsCmd.Flags().Bool("json", false, "Print machine-readable candidates")

	historyCmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List past renames or show one run's change log",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunHistory,
	}
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "Print machine-readable history")
	historyCmd.Flags().Bool("jsonl", false, "Print one JSON record per line")

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the attribute classification table",
	}
	schemaShowCmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Print the effective attribute table as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunSchemaShow,
	}
	schemaClassifyCmd := &cobra.Command{
		Use:   "classify <attribute> <value>",
		Short: "Show how an attribute value is classified",
		Args:  cobra.ExactArgs(2),
		RunE:  RunSchemaClassify,
	}
	schemaClassifyCmd.Flags().String("tag", "", "Element tag the attribute sits on")
	schemaClassifyCmd.Flags().Bool("json", false, "Print machine-readable classification")
	schemaCmd.AddCommand(schemaShowCmd, schemaClassifyCmd)

	// Navigate Commands
	definitionCmd := &cobra.Command{
		Use:   "definition <id> [path]",
		Short: "Resolve where an identifier is defined",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  nav.RunDefinition,
	}
	definitionCmd.Flags().Bool("json", false, "Print machine-readable definition result")

	referencesCmd := &cobra.Command{
		Use:   "references <id> [path]",
		Short: "Show every reference to an identifier",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  nav.RunReferences,
	}
	referencesCmd.Flags().Bool("json", false, "Print machine-readable references result")

	idsCmd := &cobra.Command{
		Use:   "ids <query> [path]",
		Short: "Search known identifiers",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  nav.RunIDs,
	}
	idsCmd.Flags().Bool("json", false, "Print machine-readable matches")
	idsCmd.Flags().Bool("fuzzy", false, "Rank by edit distance instead of BM25")
	idsCmd.Flags().Int("limit", 10, "Maximum number of matches to return")

	// Additional Commands
	installHookCmd := &cobra.Command{
		Use:   "install-hook",
		Short: "Install git pre-commit hook running xmlref check",
		RunE:  RunInstallHook,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("xmlref %s\n", version)
		},
	}

	rootCmd.AddCommand(
		initCmd,
		analyzeCmd,
		checkCmd,
		renameCmd,
		statusCmd,
		doctorCmd,
		refsCmd,
		historyCmd,
		schemaCmd,
		definitionCmd,
		referencesCmd,
		idsCmd,
		installHookCmd,
		versionCmd,
	)

	return rootCmd
}
