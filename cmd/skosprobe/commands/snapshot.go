package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/skosprobe/display"
	"github.com/teranos/skosprobe/logger"
	"github.com/teranos/skosprobe/snapshot"
)

// SnapshotCmd manages stored capability snapshots.
var SnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage stored capability snapshots",
	Long: `List, show and delete capability snapshots saved by 'analyze --save'.

Examples:
  skosprobe snapshot ls
  skosprobe snapshot show <id> --format json > snap.json
  skosprobe snapshot rm <id>`,
}

var snapshotLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored snapshots, newest first",
	Args:    cobra.NoArgs,
	RunE:    runSnapshotLs,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotShow,
}

var snapshotRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a snapshot",
	Args:    cobra.ExactArgs(1),
	RunE:    runSnapshotRm,
}

var snapshotFormat string

func init() {
	snapshotLsCmd.Flags().StringVar(&snapshotFormat, "format", display.FormatTable, "Output format: table, json, yaml")
	snapshotShowCmd.Flags().StringVar(&snapshotFormat, "format", display.FormatTable, "Output format: table, json, yaml")

	SnapshotCmd.AddCommand(snapshotLsCmd)
	SnapshotCmd.AddCommand(snapshotShowCmd)
	SnapshotCmd.AddCommand(snapshotRmCmd)
}

// withStore opens the configured database for the duration of fn.
func withStore(fn func(*snapshot.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(snapshot.NewStore(database, logger.ComponentLogger("snapshot")))
}

func runSnapshotLs(cmd *cobra.Command, args []string) error {
	if err := display.CheckFormat(snapshotFormat, display.FormatTable, display.FormatJSON, display.FormatYAML); err != nil {
		return err
	}
	return withStore(func(s *snapshot.Store) error {
		list, err := s.List(cmd.Context())
		if err != nil {
			return err
		}
		if snapshotFormat != display.FormatTable {
			return display.Write(cmd.OutOrStdout(), snapshotFormat, list)
		}
		if len(list) == 0 {
			pterm.Info.WithWriter(cmd.ErrOrStderr()).Println("No snapshots stored")
			return nil
		}
		data := pterm.TableData{{"ID", "Endpoint", "Analyzed", "SKOS", "Schemes", "Concepts"}}
		for _, sum := range list {
			data = append(data, []string{
				sum.ID,
				sum.EndpointURL,
				sum.AnalyzedAt.Local().Format("2006-01-02 15:04"),
				sum.HasSkosContent.String(),
				fmt.Sprintf("%d", sum.SchemeCount),
				sum.TotalConcepts.String(),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
	})
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	if err := display.CheckFormat(snapshotFormat, display.FormatTable, display.FormatJSON, display.FormatYAML); err != nil {
		return err
	}
	return withStore(func(s *snapshot.Store) error {
		rec, err := s.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		switch snapshotFormat {
		case display.FormatTable:
			return renderAnalysis(cmd.OutOrStdout(), rec.EndpointURL, rec.Analysis)
		case display.FormatJSON:
			// The bare analysis, so the output can be fed back through --snapshot
			return display.Write(cmd.OutOrStdout(), display.FormatJSON, rec.Analysis)
		default:
			return display.Write(cmd.OutOrStdout(), snapshotFormat, rec)
		}
	})
}

func runSnapshotRm(cmd *cobra.Command, args []string) error {
	return withStore(func(s *snapshot.Store) error {
		if err := s.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("Deleted snapshot %s", args[0])
		return nil
	})
}
