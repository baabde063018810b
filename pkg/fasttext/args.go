package fasttext

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext/internal/backend"
)

// TrainingArgs is a Go snapshot of the engine's argument block. Field tags
// use the engine's command-line flag names.
type TrainingArgs struct {
	Input             string `yaml:"input"`
	Output            string `yaml:"output"`
	Label             string `yaml:"label"`
	PretrainedVectors string `yaml:"pretrainedVectors"`

	LR float64 `yaml:"lr"`
	T  float64 `yaml:"t"`

	LRUpdateRate  int  `yaml:"lrUpdateRate"`
	Dim           int  `yaml:"dim"`
	WS            int  `yaml:"ws"`
	Epoch         int  `yaml:"epoch"`
	MinCount      int  `yaml:"minCount"`
	MinCountLabel int  `yaml:"minCountLabel"`
	Neg           int  `yaml:"neg"`
	WordNgrams    int  `yaml:"wordNgrams"`
	Loss          int  `yaml:"loss"`
	Model         int  `yaml:"model"`
	Bucket        int  `yaml:"bucket"`
	Minn          int  `yaml:"minn"`
	Maxn          int  `yaml:"maxn"`
	Thread        int  `yaml:"thread"`
	Verbose       int  `yaml:"verbose"`
	SaveOutput    bool `yaml:"saveOutput"`
	QOut          bool `yaml:"qout"`
	Retrain       bool `yaml:"retrain"`
	QNorm         bool `yaml:"qnorm"`
	Cutoff        int  `yaml:"cutoff"`
	DSub          int  `yaml:"dsub"`
}

// Args owns one engine argument block, mirroring the fasttext_args_* calls of
// the C API. fasttext_train does not read it; Train takes TrainOptions. Like
// Model, it is released exactly once by Close or a finalizer.
type Args struct {
	native *backend.Args
}

// NewArgs allocates an argument block holding the engine defaults. Reduced
// builds return ErrNotSupported.
func NewArgs() (*Args, error) {
	n, err := backend.NewArgs()
	if err != nil {
		return nil, RemapError(err)
	}
	a := &Args{native: n}
	runtime.SetFinalizer(a, func(a *Args) { _ = a.Close() })
	return a, nil
}

// Close releases the argument block. It is safe to call more than once.
func (a *Args) Close() error {
	if a == nil || a.native == nil {
		return nil
	}
	runtime.SetFinalizer(a, nil)
	a.native.Free()
	a.native = nil
	return nil
}

type argBinding struct {
	field  backend.ArgField
	text   func(*TrainingArgs) *string
	float  func(*TrainingArgs) *float64
	number func(*TrainingArgs) *int
	flag   func(*TrainingArgs) *bool
}

var argBindings = []argBinding{
	{field: backend.ArgInput, text: func(t *TrainingArgs) *string { return &t.Input }},
	{field: backend.ArgOutput, text: func(t *TrainingArgs) *string { return &t.Output }},
	{field: backend.ArgLabel, text: func(t *TrainingArgs) *string { return &t.Label }},
	{field: backend.ArgPretrainedVectors, text: func(t *TrainingArgs) *string { return &t.PretrainedVectors }},
	{field: backend.ArgLR, float: func(t *TrainingArgs) *float64 { return &t.LR }},
	{field: backend.ArgT, float: func(t *TrainingArgs) *float64 { return &t.T }},
	{field: backend.ArgLRUpdateRate, number: func(t *TrainingArgs) *int { return &t.LRUpdateRate }},
	{field: backend.ArgDim, number: func(t *TrainingArgs) *int { return &t.Dim }},
	{field: backend.ArgWS, number: func(t *TrainingArgs) *int { return &t.WS }},
	{field: backend.ArgEpoch, number: func(t *TrainingArgs) *int { return &t.Epoch }},
	{field: backend.ArgMinCount, number: func(t *TrainingArgs) *int { return &t.MinCount }},
	{field: backend.ArgMinCountLabel, number: func(t *TrainingArgs) *int { return &t.MinCountLabel }},
	{field: backend.ArgNeg, number: func(t *TrainingArgs) *int { return &t.Neg }},
	{field: backend.ArgWordNgrams, number: func(t *TrainingArgs) *int { return &t.WordNgrams }},
	{field: backend.ArgLoss, number: func(t *TrainingArgs) *int { return &t.Loss }},
	{field: backend.ArgModel, number: func(t *TrainingArgs) *int { return &t.Model }},
	{field: backend.ArgBucket, number: func(t *TrainingArgs) *int { return &t.Bucket }},
	{field: backend.ArgMinn, number: func(t *TrainingArgs) *int { return &t.Minn }},
	{field: backend.ArgMaxn, number: func(t *TrainingArgs) *int { return &t.Maxn }},
	{field: backend.ArgThread, number: func(t *TrainingArgs) *int { return &t.Thread }},
	{field: backend.ArgVerbose, number: func(t *TrainingArgs) *int { return &t.Verbose }},
	{field: backend.ArgSaveOutput, flag: func(t *TrainingArgs) *bool { return &t.SaveOutput }},
	{field: backend.ArgQOut, flag: func(t *TrainingArgs) *bool { return &t.QOut }},
	{field: backend.ArgRetrain, flag: func(t *TrainingArgs) *bool { return &t.Retrain }},
	{field: backend.ArgQNorm, flag: func(t *TrainingArgs) *bool { return &t.QNorm }},
	{field: backend.ArgCutoff, number: func(t *TrainingArgs) *int { return &t.Cutoff }},
	{field: backend.ArgDSub, number: func(t *TrainingArgs) *int { return &t.DSub }},
}

// Snapshot copies every field of the argument block into Go memory.
func (a *Args) Snapshot() (TrainingArgs, error) {
	var t TrainingArgs
	if a == nil {
		return t, ErrInvalidArgument
	}
	if a.native == nil {
		return t, ErrClosed
	}
	for _, b := range argBindings {
		var err error
		switch {
		case b.text != nil:
			*b.text(&t), err = a.native.String(b.field)
		case b.float != nil:
			*b.float(&t), err = a.native.Float(b.field)
		default:
			var v int64
			if v, err = a.native.Int(b.field); err == nil {
				if b.flag != nil {
					*b.flag(&t) = v != 0
				} else {
					*b.number(&t) = int(v)
				}
			}
		}
		runtime.KeepAlive(a)
		if err != nil {
			return TrainingArgs{}, RemapError(err)
		}
	}
	return t, nil
}

// Apply writes every field of t into the argument block.
func (a *Args) Apply(t TrainingArgs) error {
	if a == nil {
		return ErrInvalidArgument
	}
	if a.native == nil {
		return ErrClosed
	}
	for _, b := range argBindings {
		var err error
		switch {
		case b.text != nil:
			err = a.native.SetString(b.field, *b.text(&t))
		case b.float != nil:
			err = a.native.SetFloat(b.field, *b.float(&t))
		case b.flag != nil:
			var v int64
			if *b.flag(&t) {
				v = 1
			}
			err = a.native.SetInt(b.field, v)
		default:
			err = a.native.SetInt(b.field, int64(*b.number(&t)))
		}
		runtime.KeepAlive(a)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgument, RemapError(err))
		}
	}
	return nil
}

// TrainOptions selects what fasttext_train builds.
type TrainOptions struct {
	Input  string
	Output string
	// Model is "sup", "cbow" or "sg".
	Model   string
	Retrain bool
	QOut    bool
	// Threads defaults to runtime.NumCPU when zero.
	Threads int
}

// trainModelIDs maps TrainOptions.Model onto the engine's model enum.
var trainModelIDs = map[string]int{"cbow": 1, "sg": 2, "sup": 3}

func (opts *TrainOptions) validate() error {
	if opts.Input == "" || opts.Output == "" {
		return fmt.Errorf("%w: input and output are required", ErrInvalidArgument)
	}
	if !slices.Contains(backend.TrainModels, opts.Model) {
		return fmt.Errorf("%w: model %q is not one of %v", ErrInvalidArgument, opts.Model, backend.TrainModels)
	}
	if opts.Threads < 0 {
		return fmt.Errorf("%w: threads must not be negative", ErrInvalidArgument)
	}
	if opts.Threads == 0 {
		opts.Threads = runtime.NumCPU()
	}
	return nil
}

// TrainArgs returns the argument block Train hands the engine for opts: the
// engine defaults with the TrainOptions fields written over them. Reduced
// builds return ErrNotSupported.
func TrainArgs(opts TrainOptions) (TrainingArgs, error) {
	if err := opts.validate(); err != nil {
		return TrainingArgs{}, err
	}
	a, err := NewArgs()
	if err != nil {
		return TrainingArgs{}, err
	}
	defer a.Close()

	t, err := a.Snapshot()
	if err != nil {
		return TrainingArgs{}, err
	}
	t.Input = opts.Input
	t.Output = opts.Output
	t.Model = trainModelIDs[opts.Model]
	t.Retrain = opts.Retrain
	t.QOut = opts.QOut
	t.Thread = opts.Threads
	if err := a.Apply(t); err != nil {
		return TrainingArgs{}, err
	}
	return a.Snapshot()
}

// Train runs the engine's trainer and writes Output.bin (and Output.vec for
// unsupervised models). The engine reports no training errors through its C
// API; check that the output exists afterwards. Reduced builds return
// ErrNotSupported.
func Train(opts TrainOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	return RemapError(backend.Train(opts.Input, opts.Output, opts.Model, opts.Retrain, opts.QOut, opts.Threads))
}
