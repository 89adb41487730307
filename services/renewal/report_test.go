package renewal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	ctx := context.Background()
	report := NewReport()
	require.True(t, report.Empty())
	require.Equal(t, "", report.Summary())

	report.Logf(ctx, "account %d: login successful", 1)
	report.Logf(ctx, "account %d: login failed", 2)

	require.False(t, report.Empty())
	require.Equal(t, []string{
		"account 1: login successful",
		"account 2: login failed",
	}, report.Lines())
	require.Equal(t, "account 1: login successful\naccount 2: login failed", report.Summary())
}
