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
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/toricodesthings/wordcloud-service/internal/config"
	"github.com/toricodesthings/wordcloud-service/internal/export"
	"github.com/toricodesthings/wordcloud-service/internal/frequency"
	"github.com/toricodesthings/wordcloud-service/internal/layout"
	"github.com/toricodesthings/wordcloud-service/internal/pipeline"
	"github.com/toricodesthings/wordcloud-service/internal/tokenize"
	"github.com/toricodesthings/wordcloud-service/internal/types"
)

type options struct {
	config      string
	input       string
	format      string
	stopwords   string
	width       int
	height      int
	maxWords    int
	background  string
	seed        int64
	output      string
	imageFormat string
	table       string
	top         int
	timeout     time.Duration
	verbose     bool
	ranges      config.Ranges
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal().Err(err).Msg("load config")
	}

	if opts.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// parseFlags reads the command line. Render flags left unset take their
// value from the config file named by -config or $WORDCLOUD_CONFIG, with
// the environment taking precedence over the file.
func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	base, err := config.LoadFile("")
	if err != nil {
		return options{}, err
	}
	d := base.Render

	var o options
	fs.StringVar(&o.config, "config", os.Getenv(config.EnvFile), "Path to a YAML config file whose render section supplies flag defaults")
	fs.StringVar(&o.input, "input", "", "Path to the input document (pdf, docx, txt or csv)")
	fs.StringVar(&o.format, "format", "", "Input format; detected from the file name and content when empty")
	fs.StringVar(&o.stopwords, "stopwords", d.ExtraStopwords, "Comma-separated extra stopwords")
	fs.IntVar(&o.width, "width", d.Width, "Canvas width in pixels")
	fs.IntVar(&o.height, "height", d.Height, "Canvas height in pixels")
	fs.IntVar(&o.maxWords, "max-words", d.MaxWords, "Maximum number of words to place")
	fs.StringVar(&o.background, "background", d.Background, "Background color: white, black, blue or red")
	fs.Int64Var(&o.seed, "seed", d.Seed, "Layout seed; equal seeds give identical images")
	fs.StringVar(&o.output, "output", d.OutputFilename, "Path to write the image")
	fs.StringVar(&o.imageFormat, "image-format", "", "Image format png or pdf; taken from -output's extension when empty")
	fs.StringVar(&o.table, "table", "", "Optional path to write the frequency table (.csv or .xlsx)")
	fs.IntVar(&o.top, "top", 20, "Rows of the frequency table printed to stdout (0 prints all)")
	fs.DurationVar(&o.timeout, "timeout", 0, "Abort the render after this long (0 disables)")
	fs.BoolVar(&o.verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	cfg, err := config.LoadFile(o.config)
	if err != nil {
		return options{}, err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	o.applyRender(cfg.Render, set)
	o.ranges = cfg.Ranges
	return o, nil
}

func (o *options) applyRender(r config.Render, set map[string]bool) {
	if !set["stopwords"] {
		o.stopwords = r.ExtraStopwords
	}
	if !set["width"] {
		o.width = r.Width
	}
	if !set["height"] {
		o.height = r.Height
	}
	if !set["max-words"] {
		o.maxWords = r.MaxWords
	}
	if !set["background"] {
		o.background = r.Background
	}
	if !set["seed"] {
		o.seed = r.Seed
	}
	if !set["output"] {
		o.output = r.OutputFilename
	}
	if o.imageFormat == "" {
		switch strings.ToLower(filepath.Ext(o.output)) {
		case ".pdf":
			o.imageFormat = string(export.PDF)
		case ".png":
			o.imageFormat = string(export.PNG)
		default:
			o.imageFormat = r.ImageFormat
		}
	}
}

func run(ctx context.Context, o options, stdout io.Writer) error {
	if strings.TrimSpace(o.input) == "" {
		return types.InvalidConfig("cli", "-input is required")
	}
	data, err := os.ReadFile(o.input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	popts, err := buildOptions(o)
	if err != nil {
		return err
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	p := pipeline.New(pipeline.NewRegistry(pipeline.DefaultLimits()), log.Logger)
	start := time.Now()
	res, err := p.Run(ctx, types.Document{Name: filepath.Base(o.input), Data: data}, popts)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(o.output, res.Image); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	log.Info().
		Str("out", o.output).
		Str("extractor", res.Text.FileType).
		Int("tokens", res.TokenCount).
		Int("placed", len(res.Placed)).
		Int("skipped", len(res.Skipped)).
		Dur("took", time.Since(start)).
		Msg("wrote image")

	if o.table != "" {
		if err := writeTable(o.table, res.Table); err != nil {
			return err
		}
		log.Info().Str("out", o.table).Int("rows", len(res.Table)).Msg("wrote frequency table")
	}

	return printTable(stdout, res.Table, o.top)
}

func buildOptions(o options) (pipeline.Options, error) {
	popts := pipeline.DefaultOptions()
	popts.ExtraStopwords = tokenize.ParseExtra(o.stopwords)
	popts.OutputFilename = filepath.Base(o.output)

	if o.format != "" {
		f, err := types.ParseFormat(o.format)
		if err != nil {
			return popts, err
		}
		popts.Format = f
	}

	if err := o.ranges.Check(o.width, o.height, o.maxWords); err != nil {
		return popts, types.InvalidConfig("cli", "%s", err.Error())
	}

	bg, err := layout.ParseBackground(o.background)
	if err != nil {
		return popts, err
	}
	popts.Layout.Width = o.width
	popts.Layout.Height = o.height
	popts.Layout.MaxWords = o.maxWords
	popts.Layout.Background = bg
	popts.Layout.Seed = o.seed

	if popts.ImageFormat, err = export.ParseImageFormat(o.imageFormat); err != nil {
		return popts, err
	}
	return popts, nil
}

func writeTable(path string, rows []frequency.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		err = export.WriteTableXLSX(f, rows)
	default:
		err = export.WriteTableCSV(f, rows)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

func printTable(w io.Writer, rows []frequency.Entry, top int) error {
	if top > 0 && top < len(rows) {
		rows = rows[:top]
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tCOUNT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\n", r.Word, r.Count)
	}
	return tw.Flush()
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".wordcloud-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// exitCode: 2 for bad input or options, 3 for a timeout, 1 otherwise.
func exitCode(err error) int {
	switch types.KindOf(err) {
	case types.KindUnsupportedFormat, types.KindDecode, types.KindInvalidConfig:
		return 2
	}
	if errors.Is(err, pipeline.ErrLayoutTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return 3
	}
	return 1
}
