package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const exampleTest = `package api

import (
	"context"
	"testing"

	"github.com/rsclarke/k6rec"
)

func TestHTTPBin(t *testing.T) {
	t.Run("get and post @k6", func(t *testing.T) {
		ctx := context.Background()
		client := k6rec.NewClient("")
		defer client.Dispose(ctx)

		rc := k6rec.ForTest(t, client)

		res, err := rc.Get(ctx, "https://httpbin.org/get?hello=world", &k6rec.Options{
			Headers: map[string]string{"Accept": "application/json"},
			Name:    "Get hello world",
		})
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if res.Status != 200 {
			t.Fatalf("expected 200, got %d", res.Status)
		}

		res, err = rc.Post(ctx, "https://httpbin.org/post", &k6rec.Options{
			Headers: map[string]string{"Content-Type": "application/json"},
			Data:    map[string]string{"foo": "bar"},
			Name:    "Post foo bar",
		})
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		if res.Status != 200 {
			t.Fatalf("expected 200, got %d", res.Status)
		}
	})
}
`

var scaffoldFlags struct {
	dir string
}

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Write an example recording test",
	Long:  `Write an example test that records its calls with k6rec. Existing files are left alone.`,
	RunE:  runScaffold,
}

func init() {
	rootCmd.AddCommand(scaffoldCmd)

	scaffoldCmd.Flags().StringVar(&scaffoldFlags.dir, "dir", filepath.Join("e2e", "api"), "directory for the example test")
}

func runScaffold(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	dest := filepath.Join(scaffoldFlags.dir, "k6_export_example_test.go")

	written, err := writeIfMissing(dest, exampleTest)
	if err != nil {
		return err
	}
	if written {
		fmt.Fprintf(out, "Scaffolded example at %s\n", dest)
	} else {
		fmt.Fprintf(out, "%s already exists, left unchanged\n", dest)
	}
	fmt.Fprintf(out, "Run: K6_EXPORT=1 go test ./%s -run '/@k6'   # to generate perf/k6/*.k6.js\n", filepath.ToSlash(scaffoldFlags.dir))
	return nil
}

func writeIfMissing(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
