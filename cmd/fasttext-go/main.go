// Command fasttext-go queries and trains fastText models through the Go
// wrapper.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/logging"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/modelsource"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/worker"
)

const usage = `usage: fasttext-go [-config file.yaml] <command> [flags] [args]

commands:
  predict      -model M [-k K] [-threshold T] text...   (reads stdin lines when no text is given)
  nn           -model M [-k K] word
  analogies    -model M [-k K] a b c
  vector       -model M [-sentence] text...
  info         -model M
  interactive  -model M
  train        -input FILE -output PREFIX -model sup|cbow|sg [-thread N] [-retrain] [-qout] [-print-args]

Models may be file paths or s3://, minio:// and gs:// references, optionally
compressed (.zst, .lz4).
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

type env struct {
	cfg    cliConfig
	log    logging.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("fasttext-go", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "", "YAML configuration file")
	if err := global.Parse(args); err != nil {
		return errUsage
	}
	if global.NArg() == 0 {
		global.Usage()
		return errUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	zl, err := cfg.newLogger(stderr)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	e := &env{cfg: cfg, log: logging.FromZap(zl), stdin: stdin, stdout: stdout, stderr: stderr}
	shutdown, err := setupTelemetry(ctx, cfg.Telemetry, e.log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			e.log.Warn(sctx, "telemetry shutdown failed", logging.Err(err))
		}
	}()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "predict":
		return e.predict(ctx, rest)
	case "nn":
		return e.nearestNeighbors(ctx, rest)
	case "analogies":
		return e.analogies(ctx, rest)
	case "vector":
		return e.vector(ctx, rest)
	case "info":
		return e.info(ctx, rest)
	case "interactive":
		return e.interactive(ctx, rest)
	case "train":
		return e.train(rest)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		global.Usage()
		return errUsage
	}
}

type queryFlags struct {
	fs        *flag.FlagSet
	model     *string
	k         *int
	threshold *float64
	sentence  *bool
}

func (e *env) queryFlags(name string) queryFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return queryFlags{
		fs:        fs,
		model:     fs.String("model", e.cfg.Model, "model file or storage reference"),
		k:         fs.Int("k", int(e.cfg.K), "number of results"),
		threshold: fs.Float64("threshold", 0, "minimum probability for predictions"),
		sentence:  fs.Bool("sentence", false, "compute a sentence vector instead of word vectors"),
	}
}

func (q queryFlags) parse(args []string, minArgs int) error {
	if err := q.fs.Parse(args); err != nil {
		return errUsage
	}
	if *q.model == "" {
		return fmt.Errorf("%w: -model is required", errUsage)
	}
	if q.fs.NArg() < minArgs {
		return fmt.Errorf("%w: %s needs %d argument(s)", errUsage, q.fs.Name(), minArgs)
	}
	return nil
}

// open loads ref and hands the model to a Worker, which owns it.
func (e *env) open(ctx context.Context, ref string) (*worker.Worker, error) {
	src, err := modelsource.Open(ctx, ref, e.cfg.Sources)
	if err != nil {
		return nil, err
	}
	m, err := fasttext.New(e.cfg.modelOptions(e.log)...)
	if err != nil {
		return nil, err
	}
	if err := m.LoadFrom(ctx, src); err != nil {
		_ = m.Close()
		return nil, err
	}
	w, err := worker.New(m, e.cfg.workerOptions(e.log))
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return w, nil
}

func (e *env) predict(ctx context.Context, args []string) error {
	q := e.queryFlags("predict")
	if err := q.parse(args, 0); err != nil {
		return err
	}
	texts := q.fs.Args()
	if len(texts) == 0 {
		var err error
		if texts, err = readLines(e.stdin); err != nil {
			return err
		}
	}
	w, err := e.open(ctx, *q.model)
	if err != nil {
		return err
	}
	defer w.Close()

	results, err := w.PredictBatch(ctx, texts, int32(*q.k), float32(*q.threshold))
	if err != nil {
		return err
	}
	out := bufio.NewWriter(e.stdout)
	for _, preds := range results {
		fields := make([]string, 0, 2*len(preds))
		for _, p := range preds {
			fields = append(fields, p.Label, formatFloat(p.Probability))
		}
		fmt.Fprintln(out, strings.Join(fields, " "))
	}
	return out.Flush()
}

func (e *env) nearestNeighbors(ctx context.Context, args []string) error {
	q := e.queryFlags("nn")
	if err := q.parse(args, 1); err != nil {
		return err
	}
	w, err := e.open(ctx, *q.model)
	if err != nil {
		return err
	}
	defer w.Close()

	nn, err := w.NearestNeighbors(ctx, q.fs.Arg(0), int32(*q.k))
	if err != nil {
		return err
	}
	return writeNeighbors(e.stdout, nn)
}

func (e *env) analogies(ctx context.Context, args []string) error {
	q := e.queryFlags("analogies")
	if err := q.parse(args, 3); err != nil {
		return err
	}
	w, err := e.open(ctx, *q.model)
	if err != nil {
		return err
	}
	defer w.Close()

	an, err := w.Analogies(ctx, q.fs.Arg(0), q.fs.Arg(1), q.fs.Arg(2), int32(*q.k))
	if err != nil {
		return err
	}
	return writeNeighbors(e.stdout, an)
}

func (e *env) vector(ctx context.Context, args []string) error {
	q := e.queryFlags("vector")
	if err := q.parse(args, 1); err != nil {
		return err
	}
	w, err := e.open(ctx, *q.model)
	if err != nil {
		return err
	}
	defer w.Close()

	out := bufio.NewWriter(e.stdout)
	if *q.sentence {
		text := strings.Join(q.fs.Args(), " ")
		v, err := w.SentenceVector(ctx, text)
		if err != nil {
			return err
		}
		writeVector(out, "", v)
		return out.Flush()
	}
	for _, word := range q.fs.Args() {
		v, err := w.WordVector(ctx, word)
		if err != nil {
			return err
		}
		writeVector(out, word, v)
	}
	return out.Flush()
}

func (e *env) info(ctx context.Context, args []string) error {
	q := e.queryFlags("info")
	if err := q.parse(args, 0); err != nil {
		return err
	}
	w, err := e.open(ctx, *q.model)
	if err != nil {
		return err
	}
	defer w.Close()

	dim, err := w.Dimension(ctx)
	if err != nil {
		return err
	}
	caps := fasttext.CurrentCapabilities()
	fmt.Fprintf(e.stdout, "model:            %s\n", *q.model)
	fmt.Fprintf(e.stdout, "dimension:        %d\n", dim)
	fmt.Fprintf(e.stdout, "surface:          %s\n", caps.Surface)
	fmt.Fprintf(e.stdout, "concurrent reads: %t (worker limit %d)\n", caps.ConcurrentReads, w.MaxConcurrentReads())
	fmt.Fprintf(e.stdout, "training:         %t\n", caps.Training)
	wrapper := fasttext.WrapperVersion()
	if v, err := fasttext.ParsedVersion(); err != nil {
		wrapper += " (not semver)"
	} else if v.Prerelease() != "" {
		wrapper += " (prerelease)"
	}
	fmt.Fprintf(e.stdout, "wrapper:          %s\n", wrapper)
	fmt.Fprintf(e.stdout, "upstream:         %s\n", fasttext.UpstreamVersion())
	return nil
}

func (e *env) train(args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	var opts fasttext.TrainOptions
	fs.StringVar(&opts.Input, "input", "", "training data file")
	fs.StringVar(&opts.Output, "output", "", "output path prefix")
	fs.StringVar(&opts.Model, "model", "sup", "sup, cbow or sg")
	fs.IntVar(&opts.Threads, "thread", 0, "training threads (0 uses every CPU)")
	fs.BoolVar(&opts.Retrain, "retrain", false, "retrain from the pretrained vectors")
	fs.BoolVar(&opts.QOut, "qout", false, "quantize the output matrix")
	printArgs := fs.Bool("print-args", false, "print the engine arguments for this run instead of training")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *printArgs {
		ta, err := fasttext.TrainArgs(opts)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(e.stdout)
		if err := enc.Encode(ta); err != nil {
			return err
		}
		return enc.Close()
	}
	if err := fasttext.Train(opts); err != nil {
		return err
	}
	if _, err := os.Stat(opts.Output + ".bin"); err != nil {
		return fmt.Errorf("training produced no model: %w", err)
	}
	e.log.Info(context.Background(), "fasttext model trained", logging.Path(opts.Output+".bin"), "model", opts.Model)
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

func writeNeighbors(w io.Writer, ns []fasttext.Neighbor) error {
	out := bufio.NewWriter(w)
	for _, n := range ns {
		fmt.Fprintf(out, "%s %s\n", n.Word, formatFloat(n.Similarity))
	}
	return out.Flush()
}

func writeVector(out *bufio.Writer, label string, v []float32) {
	fields := make([]string, 0, len(v)+1)
	if label != "" {
		fields = append(fields, label)
	}
	for _, x := range v {
		fields = append(fields, formatFloat(x))
	}
	fmt.Fprintln(out, strings.Join(fields, " "))
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', 5, 32)
}
