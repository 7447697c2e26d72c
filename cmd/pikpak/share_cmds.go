package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pikpak "github.com/ppdrive/pikpak-go"
)

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Publish and consume share links",
	}

	cmd.AddCommand(newShareCreateCmd())
	cmd.AddCommand(newShareInfoCmd())
	cmd.AddCommand(newShareLsCmd())
	cmd.AddCommand(newShareRestoreCmd())

	return cmd
}

func newShareCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <path>...",
		Short: "Publish a public share link for files or folders",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runShareCreate,
	}

	cmd.Flags().Int("days", -1, "expiration in days (-1 = never)")
	cmd.Flags().Bool("passcode", false, "protect the link with a pass code")

	return cmd
}

func newShareInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <share-id> [pass-code]",
		Short: "Look up a share link",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runShareInfo,
	}
}

func newShareLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls <share-id> [pass-code]",
		Short: "List the top level of a share",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runShareLs,
	}

	cmd.Flags().String("folder", "", "folder id inside the share (default: top level)")

	return cmd
}

func newShareRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <share-id> [pass-code]",
		Short: "Copy a share's contents into your own drive",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runShareRestore,
	}

	cmd.Flags().StringSlice("file", nil, "restore only the given file ids")

	return cmd
}

func passCodeArg(args []string) string {
	if len(args) == 2 {
		return args[1]
	}

	return ""
}

func runShareCreate(cmd *cobra.Command, args []string) error {
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

	days, _ := cmd.Flags().GetInt("days")
	withPassCode, _ := cmd.Flags().GetBool("passcode")

	res, err := ac.client.FileBatchShare(ctx, ids, withPassCode, days)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(res)
	}

	fmt.Println(res.ShareURL)

	if res.PassCode != "" {
		fmt.Printf("Pass code: %s\n", res.PassCode)
	}

	return nil
}

func runShareInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	info, err := ac.client.GetShareInfo(ctx, args[0], passCodeArg(args))
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(info)
	}

	fmt.Printf("Share:   %s\n", info.ShareID)
	fmt.Printf("Title:   %s\n", info.Title)
	fmt.Printf("Status:  %s\n", info.Status)
	fmt.Printf("Files:   %d\n", info.FileCount)

	return nil
}

// shareInfoFor exchanges a share id and optional pass code for the token
// needed to browse or restore the share.
func shareInfoFor(cmd *cobra.Command, ac *apiContext, args []string) (*pikpak.ShareInfo, error) {
	info, err := ac.client.GetShareInfo(cmd.Context(), args[0], passCodeArg(args))
	if err != nil {
		return nil, err
	}

	if info.PassCodeToken == "" && passCodeArg(args) == "" && info.Status != "OK" {
		return nil, fmt.Errorf("share %s requires a pass code", args[0])
	}

	return info, nil
}

func runShareLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	info, err := shareInfoFor(cmd, ac, args)
	if err != nil {
		return err
	}

	folderID, _ := cmd.Flags().GetString("folder")

	page, err := ac.client.GetShareFolder(ctx, info.ShareID, info.PassCodeToken, folderID)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(page.Files)
	}

	rows := make([][]string, 0, len(page.Files))

	for _, f := range page.Files {
		size := "-"
		if f.Kind == pikpak.KindFile {
			size = formatSize(f.Size)
		}

		rows = append(rows, []string{f.ID, size, f.Name})
	}

	printTable(os.Stdout, []string{"ID", "SIZE", "NAME"}, rows)

	return nil
}

func runShareRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	info, err := shareInfoFor(cmd, ac, args)
	if err != nil {
		return err
	}

	fileIDs, _ := cmd.Flags().GetStringSlice("file")

	if err := ac.client.Restore(ctx, info.ShareID, info.PassCodeToken, fileIDs); err != nil {
		return err
	}

	statusf("Restored share %s\n", info.ShareID)

	return nil
}
