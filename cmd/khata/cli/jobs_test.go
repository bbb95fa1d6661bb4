package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTriggerRejectsUnknownJob(t *testing.T) {
	cli, err := NewJobsCLI("127.0.0.1:6379")
	require.NoError(t, err)
	defer cli.Close()

	_, err = cli.Trigger(context.Background(), "reports:unknown")
	require.ErrorContains(t, err, "unsupported job")
}

func TestTriggerRejectsBadMonths(t *testing.T) {
	cli, err := NewJobsCLI("127.0.0.1:6379")
	require.NoError(t, err)
	defer cli.Close()

	_, err = cli.Trigger(context.Background(), "reports:warmup", "not-a-number")
	require.ErrorContains(t, err, "months")
}

func TestTriggerNilClient(t *testing.T) {
	var cli *JobsCLI
	_, err := cli.Trigger(context.Background(), "reports:warmup")
	require.Error(t, err)
}
