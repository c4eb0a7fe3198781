package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"dblsync/internal/archive"
	"dblsync/internal/config"
	"dblsync/internal/exceptions"
	"dblsync/internal/httpx"
	"dblsync/internal/ingest"
	"dblsync/internal/platform/crypto"
	"dblsync/internal/platform/dbl"
	"dblsync/internal/project"

	"github.com/charmbracelet/log"
)

const usage = `usage: dblsync <command> [flags]

commands:
  sync         refresh entries.json and download missing archives
  extract      print or save the body text of downloaded archives
  stylesheets  list the stylesheets inside archives
  access       check that the credentials are accepted
  licenses     print the licenses visible to the credentials
`

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := cfg.NewLogger(os.Stderr, "dblsync")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.Error(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return flag.ErrHelp
	}

	switch args[0] {
	case "sync":
		return runSync(ctx, cfg, logger, args[1:])
	case "extract":
		return runExtract(cfg, logger, args[1:], stdout)
	case "stylesheets":
		return runStylesheets(args[1:], stdout)
	case "access":
		return runAccess(ctx, cfg, stdout)
	case "licenses":
		return runLicenses(ctx, cfg, stdout)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newClient(cfg config.Config) (*dbl.Client, error) {
	creds, err := config.ResolveCredentials(config.DefaultSources()...)
	if err != nil {
		return nil, err
	}
	return dbl.NewClient(crypto.NewSigner(creds), dbl.Config{
		BaseURL:    cfg.BaseURL,
		UserAgent:  cfg.UserAgent,
		RPS:        cfg.RPS,
		MaxRetries: cfg.MaxRetries,
		Timeout:    cfg.Timeout,
	}), nil
}

func runSync(ctx context.Context, cfg config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	dir := fs.String("dir", cfg.DataDir, "Target data directory")
	lang := fs.String("lang", "", "Only download archives for this language")
	skip := fs.String("skip", strings.Join(cfg.SkipLanguages, ","), "Comma separated languages never downloaded")
	noArchives := fs.Bool("no-archives", false, "Only refresh the entry snapshot")
	mapFile := fs.String("map", cfg.MapFile, "JSON language remapping table")
	jobs := fs.Int("j", cfg.Concurrency, "Parallel downloads")
	retries := fs.Int("retries", cfg.JobRetries, "Retries per archive after a connection failure")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := ingest.Options{
		TargetDir:     *dir,
		Language:      *lang,
		SkipLanguages: splitList(*skip),
		NoArchives:    *noArchives,
		MapFile:       *mapFile,
		Concurrency:   *jobs,
		JobRetries:    *retries,
	}
	if details := httpx.ValidateStruct(opts); len(details) > 0 {
		return fmt.Errorf("invalid options: %s: %s", details[0].Field, details[0].Message)
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	svc := ingest.NewService(client, archive.NewBuilder(client, logger.WithPrefix("archive")), nil, nil, logger)

	res, err := svc.Run(ctx, opts)
	if err != nil {
		return err
	}
	if missing := res.Missing(); missing > 0 {
		logger.Warn("some archives are still missing", "missing", missing)
	}
	return nil
}

func runExtract(cfg config.Config, logger *log.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	dir := fs.String("dir", cfg.DataDir, "Data directory, used when no archives are named")
	lang := fs.String("lang", "", "Only read archives of this language")
	continuation := fs.Bool("continuation", false, "Also read continuation (m) paragraphs")
	corpus := fs.Bool("corpus", false, "Write <archive>.main.txt next to each archive instead of printing")
	all := fs.Bool("all", false, "Include archives listed as superseded")
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths := fs.Args()
	if len(paths) == 0 {
		var err error
		if paths, err = filepath.Glob(filepath.Join(*dir, "*.zip")); err != nil {
			return err
		}
		sort.Strings(paths)
	}

	var opts []project.Option
	if *continuation {
		opts = append(opts, project.WithContinuation())
	}
	opts = append(opts, project.WithLogger(logger))

	tables := exceptions.Default()
	out := project.NewLineSink(stdout)

	var failed int
	for p := range exceptions.Projects(paths, *lang) {
		if reason, skip := tables.Skip(p.Path); skip && !*all {
			logger.Info("skipping", "archive", filepath.Base(p.Path), "reason", reason)
			continue
		}
		if err := extractOne(p, tables.Tag(p), *corpus, out, logger, opts); err != nil {
			logger.Error("extraction failed", "archive", p.Path, "err", err)
			failed++
		}
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d archives could not be read", failed)
	}
	return nil
}

func extractOne(p exceptions.Project, tag string, corpus bool, out *project.LineSink, logger *log.Logger, opts []project.Option) error {
	r, err := project.Open(p.Path, opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	if corpus {
		n, err := project.WriteCorpus(r)
		if err != nil {
			return err
		}
		logger.Info("corpus written", "archive", filepath.Base(p.Path), "tag", tag, "lines", n)
		return nil
	}
	return r.Process(out)
}

func runStylesheets(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("stylesheets: name at least one archive")
	}
	for _, path := range args {
		r, err := project.Open(path)
		if err != nil {
			return err
		}
		names, err := r.Stylesheets()
		r.Close()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintf(stdout, "%s: not found!\n", path)
			continue
		}
		for _, n := range names {
			fmt.Fprintf(stdout, "%s: %s\n", path, n)
		}
	}
	return nil
}

func runAccess(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	code, err := client.TestAccess(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, code)
	return nil
}

func runLicenses(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	raw, err := client.GetLicenses(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(raw))
	return err
}

func splitList(s string) []string {
	out := []string{}
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
