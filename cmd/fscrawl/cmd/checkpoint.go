package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/fscrawl/internal/store"
)

var (
	checkpointOutdir   string
	checkpointBasename string
	checkpointStatus   bool
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect a crawl's persisted checkpoint",
	Long: `Checkpoint prints the current checkpoint status of a crawl's store
without resuming it.

Example:
  fscrawl checkpoint --status --outdir ./data --basename myrun`,
	RunE: runCheckpoint,
}

func init() {
	checkpointCmd.Flags().BoolVar(&checkpointStatus, "status", false, "Print get_checkpoint_status as indented JSON")
	checkpointCmd.Flags().StringVar(&checkpointOutdir, "outdir", ".", "Directory holding the store file")
	checkpointCmd.Flags().StringVar(&checkpointBasename, "basename", "fscrawl", "Base filename of the store file")
	rootCmd.AddCommand(checkpointCmd)
}

func runCheckpoint(cmd *cobra.Command, args []string) error {
	if !checkpointStatus {
		return &ExitError{Code: 2, Err: fmt.Errorf("checkpoint requires --status")}
	}

	ctx := context.Background()
	dbPath := filepath.Join(checkpointOutdir, checkpointBasename+".db")
	st, err := store.OpenSQLite(ctx, dbPath)
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("open store %s: %w", dbPath, err)}
	}
	defer st.Close(false)

	status, err := st.GetCheckpointStatus(ctx)
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("get checkpoint status: %w", err)}
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("marshal checkpoint status: %w", err)}
	}
	cmd.Println(string(data))
	return nil
}
