// Command kjxref is the CLI front end for the cross-reference engine,
// modeled on the teacher's cmd/cli (urfave/cli/v2 App with one subcommand
// per operation) — out of scope for correctness per §1, a thin caller of
// the exported orchestrate.Engine API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kjxref/kjxref/internal/config"
	"github.com/kjxref/kjxref/internal/logging"
	"github.com/kjxref/kjxref/internal/model"
	"github.com/kjxref/kjxref/internal/orchestrate"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "kjxref",
		Usage:   "Kotlin/Java syntactic cross-reference engine",
		Version: version,
		Commands: []*cli.Command{
			reindexCommand(),
			findDefinitionCommand(),
			findUsagesCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func rootFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "root",
		Aliases: []string{"r"},
		Usage:   "project root to index (overrides KJXREF_ROOT)",
	}
}

func newEngine(c *cli.Context) *orchestrate.Engine {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if root := c.String("root"); root != "" {
		cfg.Engine.ProjectRoot = root
	}
	// The engine's own log lines go to stdout, which the query commands use
	// for their JSON output, so they are only emitted under --verbose.
	logger := logging.NewSilent()
	if c.Bool("verbose") {
		logger = logging.New(true)
	}
	return orchestrate.New(orchestrate.Options{
		Root:        cfg.Engine.ProjectRoot,
		WorkerCount: cfg.Engine.WorkerCount,
		UseGit:      cfg.Engine.UseGit,
		Logger:      logger,
	})
}

func reindexCommand() *cli.Command {
	return &cli.Command{
		Name:  "reindex",
		Usage: "rebuild the cross-reference index from source",
		Flags: []cli.Flag{rootFlag(), &cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}}},
		Action: func(c *cli.Context) error {
			engine := newEngine(c)
			report, err := engine.Reindex(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("snapshot %s: %d/%d files indexed, %d errors, %d warnings, %s\n",
				report.SnapshotID, report.FilesIndexed, report.FilesWalked,
				len(report.Errors), len(report.Warnings), report.Duration)
			for _, e := range report.Errors {
				fmt.Fprintln(os.Stderr, "  error:", e)
			}
			return nil
		},
	}
}

func findDefinitionCommand() *cli.Command {
	return &cli.Command{
		Name:      "find-definition",
		Usage:     "find the declaration site(s) of a symbol",
		ArgsUsage: "<symbol>",
		Flags: []cli.Flag{
			rootFlag(),
			&cli.StringFlag{Name: "file", Usage: "call-site file, for visibility-aware resolution"},
			&cli.IntFlag{Name: "line", Usage: "1-based call-site line within --file"},
			&cli.StringFlag{Name: "kind", Usage: "restrict results to a declaration kind (e.g. method)"},
		},
		Action: func(c *cli.Context) error {
			symbol := c.Args().First()
			if symbol == "" {
				return fmt.Errorf("usage: kjxref find-definition <symbol>")
			}
			engine := newEngine(c)
			if _, err := engine.Reindex(context.Background()); err != nil {
				return err
			}
			hits, err := engine.FindDefinition(symbol, c.String("file"), c.Int("line"), model.DeclKind(c.String("kind")))
			if err != nil {
				return err
			}
			return printJSON(hits)
		},
	}
}

func findUsagesCommand() *cli.Command {
	return &cli.Command{
		Name:      "find-usages",
		Usage:     "find every usage site of a symbol",
		ArgsUsage: "<symbol>",
		Flags: []cli.Flag{
			rootFlag(),
			&cli.StringFlag{Name: "file", Usage: "call-site file, to resolve which declaration's usages are returned"},
			&cli.IntFlag{Name: "line", Usage: "1-based call-site line within --file"},
			&cli.BoolFlag{Name: "include-imports", Usage: "include import-statement references"},
		},
		Action: func(c *cli.Context) error {
			symbol := c.Args().First()
			if symbol == "" {
				return fmt.Errorf("usage: kjxref find-usages <symbol>")
			}
			engine := newEngine(c)
			if _, err := engine.Reindex(context.Background()); err != nil {
				return err
			}
			hits, err := engine.FindUsages(symbol, c.String("file"), c.Int("line"), c.Bool("include-imports"))
			if err != nil {
				return err
			}
			return printJSON(hits)
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
