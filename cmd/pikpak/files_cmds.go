package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pikpak "github.com/ppdrive/pikpak-go"
)

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List files and folders",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}

	cmd.Flags().Bool("all", false, "include trashed and incomplete entries")

	return cmd
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Display file or folder metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runStat,
	}
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder (recursive)",
		Args:  cobra.ExactArgs(1),
		RunE:  runMkdir,
	}
}

func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <path>... <dest-folder>",
		Short: "Move files and folders into another folder",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runMv,
	}
}

func newCpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp <path>... <dest-folder>",
		Short: "Copy files and folders into another folder",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runCp,
	}
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a file or folder in place",
		Args:  cobra.ExactArgs(2),
		RunE:  runRename,
	}
}

func newRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Delete files and folders (moves to the recycle bin)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRm,
	}

	cmd.Flags().Bool("forever", false, "permanently delete, bypassing the recycle bin")

	return cmd
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file-id>...",
		Short: "Move files and folders out of the recycle bin",
		Long: `Move files and folders out of the recycle bin. Trashed entries are
not visible to path resolution, so restore takes file ids; find them
with 'ls --all --json'.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRestore,
	}
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a path to its chain of entry ids",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}

	cmd.Flags().Bool("create", false, "create missing folders along the path")

	return cmd
}

func newStarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "star <path>...",
		Short: "Star files and folders",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runStar,
	}
}

func newUnstarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unstar <path>...",
		Short: "Remove the star from files and folders",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runUnstar,
	}
}

// listAll fetches every page of a folder listing.
func listAll(ctx context.Context, client *pikpak.Client, opts pikpak.FileListOptions) ([]pikpak.File, error) {
	var files []pikpak.File

	for {
		page, err := client.FileList(ctx, &opts)
		if err != nil {
			return nil, err
		}

		files = append(files, page.Files...)

		if page.NextPageToken == "" {
			break
		}

		opts.PageToken = page.NextPageToken
	}

	return files, nil
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	parentID, err := resolveFolderID(ctx, ac.client, path, false)
	if err != nil {
		return err
	}

	opts := pikpak.FileListOptions{ParentID: parentID}

	if all, _ := cmd.Flags().GetBool("all"); all {
		// An explicit empty filter set lists everything the service has.
		opts.Filters = "{}"
	}

	files, err := listAll(ctx, ac.client, opts)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(files)
	}

	rows := make([][]string, 0, len(files))

	for _, f := range files {
		size := "-"
		if f.Kind == pikpak.KindFile {
			size = formatSize(f.Size)
		}

		name := f.Name
		if f.Kind == pikpak.KindFolder {
			name += "/"
		}

		rows = append(rows, []string{size, formatTime(f.ModifiedAt), name})
	}

	printTable(os.Stdout, []string{"SIZE", "MODIFIED", "NAME"}, rows)

	return nil
}

func runStat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	id, err := resolveEntryID(ctx, ac.client, args[0])
	if err != nil {
		return err
	}

	if id == "" {
		return fmt.Errorf("stat: cannot stat the root folder")
	}

	f, err := ac.client.FileInfo(ctx, id)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(f)
	}

	fmt.Printf("Name:      %s\n", f.Name)
	fmt.Printf("ID:        %s\n", f.ID)
	fmt.Printf("Kind:      %s\n", f.Kind)
	fmt.Printf("Size:      %s\n", formatSize(f.Size))
	fmt.Printf("Created:   %s\n", formatTime(f.CreatedAt))
	fmt.Printf("Modified:  %s\n", formatTime(f.ModifiedAt))

	if f.Hash != "" {
		fmt.Printf("Hash:      %s\n", f.Hash)
	}

	if f.Starred {
		fmt.Println("Starred:   yes")
	}

	return nil
}

func runMkdir(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	if pathDepth(args[0]) == 0 {
		return fmt.Errorf("mkdir: path required")
	}

	if _, err := resolveFolderID(ctx, ac.client, args[0], true); err != nil {
		return err
	}

	statusf("Created %s\n", cleanRemotePath(args[0]))

	return nil
}

func runMv(cmd *cobra.Command, args []string) error {
	return runBatchTo(cmd, args, "Moved", func(ctx context.Context, c *pikpak.Client, ids []string, dest string) error {
		return c.FileBatchMove(ctx, ids, dest)
	})
}

func runCp(cmd *cobra.Command, args []string) error {
	return runBatchTo(cmd, args, "Copied", func(ctx context.Context, c *pikpak.Client, ids []string, dest string) error {
		return c.FileBatchCopy(ctx, ids, dest)
	})
}

// runBatchTo implements the shared shape of mv and cp: resolve sources,
// resolve the destination folder, apply the batch verb.
func runBatchTo(
	cmd *cobra.Command,
	args []string,
	verb string,
	apply func(context.Context, *pikpak.Client, []string, string) error,
) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	sources := args[:len(args)-1]
	dest := args[len(args)-1]

	ids, err := resolveEntryIDs(ctx, ac.client, sources)
	if err != nil {
		return err
	}

	destID, err := resolveFolderID(ctx, ac.client, dest, false)
	if err != nil {
		return err
	}

	if err := apply(ctx, ac.client, ids, destID); err != nil {
		return err
	}

	statusf("%s %d item(s) to %s\n", verb, len(ids), cleanRemotePath(dest))

	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	id, err := resolveEntryID(ctx, ac.client, args[0])
	if err != nil {
		return err
	}

	if id == "" {
		return fmt.Errorf("rename: cannot rename the root folder")
	}

	f, err := ac.client.FileRename(ctx, id, args[1])
	if err != nil {
		return err
	}

	statusf("Renamed to %s\n", f.Name)

	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	ids, err := resolveEntryIDs(ctx, ac.client, args)
	if err != nil {
		return err
	}

	forever, _ := cmd.Flags().GetBool("forever")
	if forever {
		if err := ac.client.DeleteForever(ctx, ids); err != nil {
			return err
		}

		statusf("Permanently deleted %d item(s)\n", len(ids))

		return nil
	}

	if err := ac.client.DeleteToTrash(ctx, ids); err != nil {
		return err
	}

	statusf("Moved %d item(s) to the recycle bin\n", len(ids))

	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	if err := ac.client.Untrash(ctx, args); err != nil {
		return err
	}

	statusf("Restored %d item(s) from the recycle bin\n", len(args))

	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	create, _ := cmd.Flags().GetBool("create")

	chain, err := ac.client.PathToID(ctx, args[0], create)
	if err != nil {
		return err
	}

	if len(chain) < pathDepth(args[0]) {
		return fmt.Errorf("path not found: %s", args[0])
	}

	if flagJSON {
		return printJSON(chain)
	}

	rows := make([][]string, 0, len(chain))
	for _, e := range chain {
		rows = append(rows, []string{e.ID, string(e.Kind), e.Name})
	}

	printTable(os.Stdout, []string{"ID", "KIND", "NAME"}, rows)

	return nil
}

func runStar(cmd *cobra.Command, args []string) error {
	return runBatchIDs(cmd, args, "Starred", func(ctx context.Context, c *pikpak.Client, ids []string) error {
		return c.FileBatchStar(ctx, ids)
	})
}

func runUnstar(cmd *cobra.Command, args []string) error {
	return runBatchIDs(cmd, args, "Unstarred", func(ctx context.Context, c *pikpak.Client, ids []string) error {
		return c.FileBatchUnstar(ctx, ids)
	})
}

// runBatchIDs implements the shared shape of star and unstar.
func runBatchIDs(
	cmd *cobra.Command,
	args []string,
	verb string,
	apply func(context.Context, *pikpak.Client, []string) error,
) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	ids, err := resolveEntryIDs(ctx, ac.client, args)
	if err != nil {
		return err
	}

	if err := apply(ctx, ac.client, ids); err != nil {
		return err
	}

	statusf("%s %d item(s)\n", verb, len(ids))

	return nil
}
