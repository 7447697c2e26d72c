package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newQuotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show storage usage",
		Args:  cobra.NoArgs,
		RunE:  runQuota,
	}
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the recent-additions feed",
		Args:  cobra.NoArgs,
		RunE:  runEvents,
	}

	cmd.Flags().Int("limit", 0, "maximum entries to fetch (0 = one default page)")

	return cmd
}

func runQuota(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	q, err := ac.client.GetQuotaInfo(ctx)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(q)
	}

	fmt.Printf("Used:      %s\n", formatSize(q.Usage))
	fmt.Printf("In trash:  %s\n", formatSize(q.UsageInTrash))
	fmt.Printf("Limit:     %s\n", formatSize(q.Limit))

	if q.Limit > 0 {
		fmt.Printf("Usage:     %.1f%%\n", float64(q.Usage)/float64(q.Limit)*100) //nolint:mnd // percent
	}

	return nil
}

func runEvents(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ac, err := newAPIContext(ctx)
	if err != nil {
		return err
	}
	defer ac.persist()

	limit, _ := cmd.Flags().GetInt("limit")

	page, err := ac.client.Events(ctx, limit, "")
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(page.Events)
	}

	rows := make([][]string, 0, len(page.Events))

	for _, e := range page.Events {
		rows = append(rows, []string{formatTime(e.CreatedAt), e.TypeName, e.FileName})
	}

	printTable(os.Stdout, []string{"WHEN", "TYPE", "FILE"}, rows)

	return nil
}
