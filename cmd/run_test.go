package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scadtest.dev/pkg/scadtest/internal/domain"
	domainmocks "scadtest.dev/pkg/scadtest/internal/domain/mocks"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

// withMockWorkflow builds a root command with sub attached and swaps the
// package workflow for a mock until the test ends.
func withMockWorkflow(t *testing.T, sub *cobra.Command) (*cobra.Command, *domainmocks.MockWorkflow) {
	t.Helper()

	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(sub)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow

	t.Cleanup(func() { workflow = originalWorkflow })

	return cmd, mockWorkflow
}

func TestRunCmd_Defaults(t *testing.T) {
	cmd, mockWorkflow := withMockWorkflow(t, newRunCmd())

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Suite == m.Path(defaultSuitePath) &&
			args.Reports == m.Path(defaultReportsDir) &&
			args.ExpectedDir == m.Path(defaultExpectedDir) &&
			args.ScratchRoot == m.Path(defaultScratchDir) &&
			args.Threads == 1 &&
			!args.Keep && !args.Update && args.Only == ""
	})).Return(nil)

	cmd.SetArgs([]string{"run"})
	err := cmd.Execute()
	require.NoError(t, err)

	mockWorkflow.AssertExpectations(t)
}

func TestRunCmd_Flags(t *testing.T) {
	cmd, mockWorkflow := withMockWorkflow(t, newRunCmd())

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Suite == m.Path("bins/suite.yaml") &&
			args.Reports == m.Path("./out") &&
			args.Threads == 4 &&
			args.Keep && args.Update &&
			args.Only == "^bins\\."
	})).Return(nil)

	cmd.SetArgs([]string{"run", "bins/suite.yaml", "-p", "4", "--keep", "--update", "--only", "^bins\\.", "--reports", "./out"})
	err := cmd.Execute()
	require.NoError(t, err)

	mockWorkflow.AssertExpectations(t)
}

func TestRunCmd_FailureIsReturned(t *testing.T) {
	cmd, mockWorkflow := withMockWorkflow(t, newRunCmd())

	mockWorkflow.On("Run", mock.Anything, mock.Anything).Return(domain.ErrTestsFailed)

	cmd.SetArgs([]string{"run"})
	err := cmd.Execute()
	require.ErrorIs(t, err, domain.ErrTestsFailed)
}

func TestRunCmd_TooManyArgs(t *testing.T) {
	cmd, _ := withMockWorkflow(t, newRunCmd())

	cmd.SetArgs([]string{"run", "a.yaml", "b.yaml"})
	err := cmd.Execute()
	require.Error(t, err)
}

func TestWatchCmd_PassesRunArgs(t *testing.T) {
	cmd, mockWorkflow := withMockWorkflow(t, newWatchCmd())

	mockWorkflow.On("Watch", mock.Anything, mock.MatchedBy(func(args domain.WatchArgs) bool {
		return args.Suite == m.Path("suite.yaml") && args.Threads == 2 && args.Only == "cube"
	})).Return(nil)

	cmd.SetArgs([]string{"watch", "suite.yaml", "--parallel", "2", "--only", "cube"})
	err := cmd.Execute()
	require.NoError(t, err)

	mockWorkflow.AssertExpectations(t)
}

func TestWatchCmd_ContextIsCancellable(t *testing.T) {
	cmd, mockWorkflow := withMockWorkflow(t, newWatchCmd())

	mockWorkflow.EXPECT().Watch(mock.Anything, mock.Anything).RunAndReturn(func(ctx context.Context, _ domain.WatchArgs) error {
		assert.NotNil(t, ctx.Done())
		return errors.New("watch stopped")
	})

	cmd.SetArgs([]string{"watch"})
	err := cmd.Execute()
	require.EqualError(t, err, "watch stopped")
}
