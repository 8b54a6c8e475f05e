package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/enerkit/gridprep/internal/stager"
	"github.com/enerkit/gridprep/internal/ui"
)

var (
	stageInput    string
	stageOutput   string
	stageLogLevel string
)

// stageCmd represents the stage command
var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Stage a raw data file into the workspace",
	Long: `Copies a raw input file to its staged location, preserving bytes,
permissions and modification time. Downstream freshness checks rely on the
modification time, so the copy never rewrites or reformats anything.

Example:
  gridprep stage --input data/upstream/load_2013.csv --output work/load.csv`,
	RunE: runStage,
}

func runStage(cmd *cobra.Command, args []string) error {
	level := strings.ToLower(strings.TrimSpace(viper.GetString("stage.log-level")))
	if level == "" {
		level = "standard"
	}
	verbosity, err := ui.ParseVerbosity(level)
	if err != nil {
		return err
	}
	quiet := verbosity == ui.VerbosityQuiet

	input := viper.GetString("stage.input")
	if input == "" {
		return fmt.Errorf("--input is required")
	}
	output := viper.GetString("stage.output")
	if output == "" {
		return fmt.Errorf("--output is required")
	}

	var spinner *ui.SimpleSpinner
	if !quiet {
		spinner = ui.NewSimpleSpinner(cmd.OutOrStdout(), fmt.Sprintf("Staging %s", input))
		spinner.Start()
	}

	if err := stager.Stage(input, output); err != nil {
		if spinner != nil {
			spinner.Stop(false, err.Error())
		}
		return err
	}

	if spinner != nil {
		spinner.Stop(true, fmt.Sprintf("staged %s → %s", input, output))
	}
	return nil
}

func init() {
	stageCmd.Flags().StringVarP(&stageInput, "input", "i", "", "Path of the raw source file (required)")
	stageCmd.Flags().StringVarP(&stageOutput, "output", "o", "", "Staged destination path (required)")
	stageCmd.Flags().StringVar(&stageLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	// Bind all flags to viper for config file support
	viper.BindPFlag("stage.input", stageCmd.Flags().Lookup("input"))
	viper.BindPFlag("stage.output", stageCmd.Flags().Lookup("output"))
	viper.BindPFlag("stage.log-level", stageCmd.Flags().Lookup("log-level"))
}
