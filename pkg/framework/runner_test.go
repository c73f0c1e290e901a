package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunnerStopsOnFailure(t *testing.T) {
	failure := errors.New("link lost")
	blocked := RunnableFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	failing := NamedRun("failing", RunnableFunc(func(ctx context.Context) error {
		return failure
	}))
	err := Run(context.Background(), blocked, failing)
	require.Error(t, err)
	require.True(t, errors.Is(err, failure))
	require.Equal(t, "link lost", err.Error())
}

func TestRunnerCancel(t *testing.T) {
	r := NewRunner()
	r.Go(RunnableFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	time.AfterFunc(10*time.Millisecond, r.Cancel)
	require.NoError(t, r.Wait())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, context.Canceled).Aggregate())
	e1, e2 := errors.New("e1"), errors.New("e2")
	err := errs.Add(e1, e2).Aggregate()
	require.Equal(t, "Multiple errors:\ne1\ne2", err.Error())
	require.True(t, errors.Is(err, e2))
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunWithContextCloser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	unblock := make(chan struct{})
	var closed int
	time.AfterFunc(10*time.Millisecond, cancel)
	err := RunWithContextCloser(ctx, closerFunc(func() error {
		closed++
		close(unblock)
		return nil
	}), func() error {
		<-unblock
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, closed)
}
