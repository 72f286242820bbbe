package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gedgraph/backend/internal/gedcom"
	"gedgraph/backend/internal/merge"
	"gedgraph/backend/internal/person"
	"gedgraph/backend/internal/services"
	"gedgraph/backend/pkg/config"
	"gedgraph/backend/pkg/logger"
)

// opener builds the session a command works on.
type opener func(ctx context.Context, cfg *config.Config, decider merge.Decider) (*services.Session, func(), error)

func openSession(ctx context.Context, cfg *config.Config, decider merge.Decider) (*services.Session, func(), error) {
	return services.Open(ctx, cfg, decider)
}

// cli carries state shared by all commands.
type cli struct {
	open     opener
	cfg      *config.Config
	noPrompt bool
	verbose  bool
	noSave   bool
}

func newRootCmd(open opener) *cobra.Command {
	app := &cli{open: open}

	rootCmd := &cobra.Command{
		Use:           "gedgraph",
		Short:         "Crawl a remote family tree and export it as GEDCOM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			app.cfg = cfg
			env := cfg.Env
			if !app.verbose && env == "development" {
				env = "cli"
			}
			return logger.Init(env)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	rootCmd.PersistentFlags().BoolVar(&app.noPrompt, "no-prompt", false, "fail on merge conflicts instead of asking")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().BoolVar(&app.noSave, "no-save", false, "do not write the store file afterwards")

	rootCmd.AddCommand(
		app.crawlCmd(),
		app.ancestorsCmd(),
		app.showCmd(),
		app.exportCmd(),
		app.syncCmd(),
	)
	return rootCmd
}

// session opens the configured session with an interactive decider unless
// prompting is disabled.
func (app *cli) session(cmd *cobra.Command) (*services.Session, func(), error) {
	var decider merge.Decider
	if !app.noPrompt {
		decider = merge.NewPrompt(cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	return app.open(cmd.Context(), app.cfg, decider)
}

// finish saves the store unless disabled.
func (app *cli) finish(s *services.Session) error {
	if app.noSave {
		return nil
	}
	return s.Save()
}

func (app *cli) crawlCmd() *cobra.Command {
	var (
		radius int
		edges  string
	)
	cmd := &cobra.Command{
		Use:   "crawl <id>...",
		Short: "Expand the stored crowd around one or more people",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if radius == 0 {
				radius = app.cfg.CrawlRadius
			}
			names := app.cfg.Edges()
			if cmd.Flags().Changed("edges") {
				names = strings.Split(edges, ",")
			}
			mask, err := person.ParseEdgeMask(names)
			if err != nil {
				return err
			}

			s, closeFn, err := app.session(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := s.Crawl(cmd.Context(), args, radius, mask)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "crawled %d ring(s), fetched %d record(s), crowd now holds %d people\n",
				stats.Iterations, stats.Fetched, stats.CrowdSize)
			return app.finish(s)
		},
	}
	cmd.Flags().IntVarP(&radius, "radius", "r", 0, "number of rings to fetch (default from CRAWL_RADIUS)")
	cmd.Flags().StringVarP(&edges, "edges", "e", "", "comma separated edges: parents,children,siblings,spouses, all or none")
	return cmd
}

func (app *cli) ancestorsCmd() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "ancestors <id>",
		Short: "Print the Ahnentafel ancestor list of a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth == 0 {
				depth = app.cfg.AncestorDepth
			}
			s, closeFn, err := app.session(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			tree, err := s.Ancestors(cmd.Context(), args[0], depth)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, slot := range tree.Slots() {
				name := slot.Name
				if name == "" {
					name = "(unnamed)"
				}
				fmt.Fprintf(out, "%4d  %s%s [%s]\n", slot.Index, strings.Repeat("  ", slot.Generation), name, slot.ID)
			}
			return app.finish(s)
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "generations to fetch (default from ANCESTOR_DEPTH)")
	return cmd
}

func (app *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored person as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := app.session(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			p, ok := s.Person(args[0])
			if !ok {
				return fmt.Errorf("person %s is not in the store", args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}
}

func (app *cli) exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored crowd as a GEDCOM file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := app.session(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			write := func(w io.Writer) error {
				return s.WriteGEDCOM(w, gedcom.Options{Date: time.Now()})
			}
			if output == "" || output == "-" {
				err = write(cmd.OutOrStdout())
			} else {
				err = writeFile(output, write)
			}
			if err != nil {
				return err
			}
			logger.Get().Info("Export finished", zap.String("output", output), zap.Int("people", s.Summary().People))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

// createFile opens export targets.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeFile writes to path and reports a failed close, which is where
// buffered data can be lost.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := createFile(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}

func (app *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror the stored crowd into Neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := app.session(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			synced, err := s.Sync(cmd.Context())
			if err != nil {
				return err
			}
			if !synced {
				return fmt.Errorf("NEO4J_URI is not set")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced snapshot %s\n", s.Summary().Snapshot)
			return nil
		},
	}
}
