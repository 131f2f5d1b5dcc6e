package main

import (
	"fmt"
	"time"

	"github.com/rsclarke/k6rec/internal/db"
	"github.com/spf13/cobra"
)

var sessionsFlags struct {
	archiveConfig
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List archived recording sessions",
	Long:  `List the recording sessions saved to the archive, newest first.`,
	RunE:  runSessions,
}

var deleteFlags struct {
	archiveConfig
}

var deleteCmd = &cobra.Command{
	Use:   "delete <session>",
	Short: "Delete an archived session",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(deleteCmd)

	addArchiveFlags(sessionsCmd, &sessionsFlags.archiveConfig)
	addArchiveFlags(deleteCmd, &deleteFlags.archiveConfig)
}

func runSessions(cmd *cobra.Command, args []string) error {
	d, err := sessionsFlags.open()
	if err != nil {
		return err
	}
	defer d.Close()

	sessions, err := db.ListSessions(d)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-24s  %-19s  %s\n", "SESSION", "SLUG", "CREATED", "CALLS")
	for _, s := range sessions {
		created := time.Unix(s.CreatedAt, 0).Format("2006-01-02 15:04:05")
		fmt.Fprintf(out, "%-36s  %-24s  %-19s  %d\n", s.ID, s.Slug, created, s.CallCount)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	d, err := deleteFlags.open()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := db.DeleteSession(d, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s deleted.\n", args[0])
	return nil
}
