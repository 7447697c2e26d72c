package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newOfflineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offline",
		Short: "Manage server-side offline downloads",
	}

	cmd.AddCommand(newOfflineAddCmd())
	cmd.AddCommand(newOfflineLsCmd())
	cmd.AddCommand(newOfflineRetryCmd())
	cmd.AddCommand(newOfflineRmCmd())

	return cmd
}

func newOfflineAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <url>...",
		Short: "Submit URLs (magnet, ed2k, http) for server-side download",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runOfflineAdd,
	}

	cmd.Flags().String("to", "", "destination folder path (default: account download folder)")
	cmd.Flags().String("name", "", "file name override (single URL only)")

	return cmd
}

func newOfflineLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List running and failed offline download tasks",
		Args:  cobra.NoArgs,
		RunE:  runOfflineLs,
	}
}

func newOfflineRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <task-id>...",
		Short: "Re-queue failed offline download tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runOfflineRetry,
	}
}

func newOfflineRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <task-id>...",
		Short: "Remove offline download tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runOfflineRm,
	}

	cmd.Flags().Bool("delete-files", false, "also delete files produced by the tasks")

	return cmd
}

func runOfflineAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	name, _ := cmd.Flags().GetString("name")
	if name != "" && len(args) > 1 {
		return fmt.Errorf("--name only applies to a single URL")
	}

	parentID := ""

	if to, _ := cmd.Flags().GetString("to"); to != "" {
		parentID, err = resolveFolderID(ctx, ac.client, to, true)
		if err != nil {
			return err
		}
	}

	for _, rawURL := range args {
		task, err := ac.client.OfflineDownload(ctx, rawURL, parentID, name)
		if err != nil {
			return fmt.Errorf("submitting %s: %w", rawURL, err)
		}

		statusf("Queued task %s (%s)\n", task.ID, task.Phase)
	}

	return nil
}

func runOfflineLs(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	page, err := ac.client.OfflineList(ctx, 0, "")
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(page.Tasks)
	}

	rows := make([][]string, 0, len(page.Tasks))

	for _, task := range page.Tasks {
		rows = append(rows, []string{
			task.ID,
			task.Phase,
			strconv.Itoa(task.Progress) + "%",
			formatSize(task.FileSize),
			task.Name,
		})
	}

	printTable(os.Stdout, []string{"ID", "PHASE", "PROGRESS", "SIZE", "NAME"}, rows)

	return nil
}

func runOfflineRetry(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	for _, taskID := range args {
		if err := ac.client.OfflineTaskRetry(ctx, taskID); err != nil {
			return fmt.Errorf("retrying task %s: %w", taskID, err)
		}

		statusf("Re-queued task %s\n", taskID)
	}

	return nil
}

func runOfflineRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	deleteFiles, _ := cmd.Flags().GetBool("delete-files")

	if err := ac.client.DeleteTasks(ctx, args, deleteFiles); err != nil {
		return err
	}

	statusf("Removed %d task(s)\n", len(args))

	return nil
}
