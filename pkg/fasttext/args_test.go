package fasttext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainValidatesOptions(t *testing.T) {
	tests := []struct {
		name string
		opts TrainOptions
	}{
		{"missing input", TrainOptions{Output: "out", Model: "sup"}},
		{"missing output", TrainOptions{Input: "in.txt", Model: "sup"}},
		{"unknown model", TrainOptions{Input: "in.txt", Output: "out", Model: "skipgram"}},
		{"negative threads", TrainOptions{Input: "in.txt", Output: "out", Model: "cbow", Threads: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Train(tt.opts), ErrInvalidArgument)
			_, err := TrainArgs(tt.opts)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestArgsNilAndClosed(t *testing.T) {
	var a *Args
	require.NoError(t, a.Close())
	_, err := a.Snapshot()
	assert.ErrorIs(t, err, ErrInvalidArgument)

	closed := &Args{}
	_, err = closed.Snapshot()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, closed.Apply(TrainingArgs{}), ErrClosed)
}

func TestArgsSurface(t *testing.T) {
	a, err := NewArgs()
	if !CurrentCapabilities().Training {
		assert.ErrorIs(t, err, ErrNotSupported)
		return
	}
	require.NoError(t, err)
	defer a.Close()

	defaults, err := a.Snapshot()
	require.NoError(t, err)
	assert.Positive(t, defaults.Dim)

	want := defaults
	want.Input = "cooking.train"
	want.Dim = 16
	want.LR = 0.5
	want.Epoch = 25
	want.WordNgrams = 2
	want.QOut = true
	require.NoError(t, a.Apply(want))

	got, err := a.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

func TestTrainArgsMatchesTrainer(t *testing.T) {
	opts := TrainOptions{Input: "cooking.train", Output: "cooking", Model: "cbow", QOut: true, Threads: 3}
	got, err := TrainArgs(opts)
	if !CurrentCapabilities().Training {
		assert.ErrorIs(t, err, ErrNotSupported)
		return
	}
	require.NoError(t, err)

	a, err := NewArgs()
	require.NoError(t, err)
	defer a.Close()
	want, err := a.Snapshot()
	require.NoError(t, err)
	want.Input = "cooking.train"
	want.Output = "cooking"
	want.Model = 1
	want.QOut = true
	want.Thread = 3
	assert.Equal(t, want, got)
}

func TestVersion(t *testing.T) {
	prev := Version
	t.Cleanup(func() { Version = prev })

	Version = "v1.2.3"
	v, err := ParsedVersion()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v.String())
	ok, err := SatisfiesVersion(">= 1.0.0, < 2.0.0")
	require.NoError(t, err)
	assert.True(t, ok)

	Version = "not-a-version"
	_, err = ParsedVersion()
	assert.Error(t, err)
	_, err = SatisfiesVersion("not a constraint ((")
	assert.Error(t, err)
}
