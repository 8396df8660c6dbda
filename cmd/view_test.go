package cmd

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scadtest.dev/pkg/scadtest/internal/domain"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

func TestViewCmd_UsesRootReportsFlagByDefault(t *testing.T) {
	cmd, mockWorkflow := withMockWorkflow(t, newViewCmd())

	mockWorkflow.On("View", mock.Anything, mock.MatchedBy(func(args domain.ViewArgs) bool {
		return args.Reports == m.Path(defaultReportsDir)
	})).Return(nil)

	cmd.SetArgs([]string{"view"})
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestViewCmd_RootReportsFlagIsPassedThrough(t *testing.T) {
	cmd, mockWorkflow := withMockWorkflow(t, newViewCmd())

	mockWorkflow.On("View", mock.Anything, mock.MatchedBy(func(args domain.ViewArgs) bool {
		return args.Reports == m.Path("./reports-dir")
	})).Return(nil)

	cmd.SetArgs([]string{"view", "--reports", "./reports-dir"})
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestViewCmd_PositionalArgsAreRejected(t *testing.T) {
	cmd, mockWorkflow := withMockWorkflow(t, newViewCmd())

	cmd.SetArgs([]string{"view", "extra"})
	err := cmd.Execute()
	require.Error(t, err)

	mockWorkflow.AssertNotCalled(t, "View", mock.Anything, mock.Anything)
}
