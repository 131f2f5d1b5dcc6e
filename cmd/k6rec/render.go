package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rsclarke/k6rec/internal/config"
	"github.com/rsclarke/k6rec/internal/db"
	"github.com/rsclarke/k6rec/internal/logging"
	"github.com/rsclarke/k6rec/internal/recorder"
	"github.com/rsclarke/k6rec/internal/script"
	"github.com/spf13/cobra"
)

var renderFlags struct {
	archiveConfig
	session string
	outDir  string
	stdout  bool
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Regenerate a k6 script from an archived session",
	Long: `Regenerate the k6 script of an archived session. Secrets were replaced
with placeholders before archiving, so no env artifacts are written.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	addArchiveFlags(renderCmd, &renderFlags.archiveConfig)
	renderCmd.Flags().StringVar(&renderFlags.session, "session", "", "session ID to render")
	renderCmd.Flags().StringVar(&renderFlags.outDir, "out", getEnv(config.EnvOutDir, filepath.Join("perf", "k6")), "output directory")
	renderCmd.Flags().BoolVar(&renderFlags.stdout, "stdout", false, "print the script instead of writing it")
	_ = renderCmd.MarkFlagRequired("session")
}

func runRender(cmd *cobra.Command, args []string) error {
	d, err := renderFlags.open()
	if err != nil {
		return err
	}
	defer d.Close()

	session, err := db.GetSession(d, renderFlags.session)
	if err != nil {
		return err
	}
	calls, err := db.GetSessionCalls(d, session.ID)
	if err != nil {
		return err
	}
	if len(calls) == 0 {
		return fmt.Errorf("session %s has no calls", session.ID)
	}

	code := script.Generate(calls)
	if renderFlags.stdout {
		fmt.Fprintln(cmd.OutOrStdout(), code)
		return nil
	}

	if err := os.MkdirAll(renderFlags.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	file := filepath.Join(renderFlags.outDir, recorder.SanitizeSlug(session.Slug)+recorder.ScriptExt)
	if err := os.WriteFile(file, []byte(code), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	logger.Info("k6 script written", logging.File(file), logging.Session(session.ID))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", file)
	return nil
}
