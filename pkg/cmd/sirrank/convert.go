package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/sir-influence/pkg/dataset"
)

var (
	convertDryRun      bool
	convertSkipExtract bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <dataset-root>",
	Short: "Turn raw downloads into one edge list per network",
	Long: `Unpack every zip, tar, tar.gz/tgz and tar.bz2 archive below the dataset root
into a folder of the same name and delete the archive. Then, for every
subfolder of the dataset root, convert its first .mtx file, or else every
.edges file below it, to an unweighted edge list (.txt) and delete everything
else in that subfolder. Use --dry-run to only print what would happen.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().BoolVar(&convertDryRun, "dry-run", false, "Preview without changing files")
	convertCmd.Flags().BoolVar(&convertSkipExtract, "skip-extract", false, "Do not unpack archives first")
}

func runConvert(cmd *cobra.Command, args []string) error {
	_, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !convertSkipExtract {
		extracted, err := dataset.ExtractArchives(args[0], convertDryRun, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "extracted %d archives, %d failed\n",
			len(extracted.Extracted), len(extracted.Failed))
	}

	report, err := dataset.NormalizeFolder(args[0], convertDryRun, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "converted %d, removed %d, skipped %d folders\n",
		len(report.Converted), len(report.Removed), len(report.Skipped))
	return nil
}
