package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
)

func TestDeleteCmd_RequiresArgs(t *testing.T) {
	setServices(t, Services{Synchronizer: &mockSynchronizer{}})

	_, err := runCommand(t, "delete")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestDeleteCmd_DeletesItems(t *testing.T) {
	sync := &mockSynchronizer{}
	setServices(t, Services{Synchronizer: sync})

	out, err := runCommand(t, "delete", "3")

	require.NoError(t, err)
	require.Len(t, sync.ops, 1)
	assert.Equal(t, domain.BatchDelete, sync.ops[0].Kind)
	assert.Equal(t, []string{"3"}, sync.ops[0].IDs)
	assert.Contains(t, out, "Deleted 1 items (batch batch-1).")
}

func TestDeleteCmd_BatchFailure(t *testing.T) {
	setServices(t, Services{Synchronizer: &mockSynchronizer{batchErr: domain.ErrBatchFailed}})

	_, err := runCommand(t, "delete", "3")

	assert.ErrorIs(t, err, domain.ErrBatchFailed)
}

func TestDeleteCmd_Closed(t *testing.T) {
	setServices(t, Services{Synchronizer: &mockSynchronizer{queueErr: domain.ErrSynchronizerClosed}})

	_, err := runCommand(t, "delete", "3")

	assert.ErrorIs(t, err, domain.ErrSynchronizerClosed)
}

func TestResetCmd_WithYes(t *testing.T) {
	sync := &mockSynchronizer{}
	setServices(t, Services{Synchronizer: sync})

	out, err := runCommand(t, "reset", "--yes")

	require.NoError(t, err)
	require.Len(t, sync.ops, 1)
	assert.Equal(t, domain.BatchDeleteAll, sync.ops[0].Kind)
	assert.Contains(t, out, "Client state is none.")
}

func TestResetCmd_RefusesWithoutTerminal(t *testing.T) {
	sync := &mockSynchronizer{}
	setServices(t, Services{Synchronizer: sync})
	withTerminal(t, false)

	_, err := runCommand(t, "reset")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.Empty(t, sync.ops)
}

func TestResetCmd_Confirm(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		wantOps int
	}{
		{name: "yes", answer: "y\n", wantOps: 1},
		{name: "long yes", answer: "YES\n", wantOps: 1},
		{name: "no", answer: "n\n", wantOps: 0},
		{name: "empty", answer: "\n", wantOps: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sync := &mockSynchronizer{}
			setServices(t, Services{Synchronizer: sync})
			withTerminal(t, true)
			rootCmd.SetIn(strings.NewReader(tt.answer))

			out, err := runCommand(t, "reset")

			require.NoError(t, err)
			assert.Len(t, sync.ops, tt.wantOps)
			if tt.wantOps == 0 {
				assert.Contains(t, out, "Aborted.")
			}
		})
	}
}

func withTerminal(t *testing.T, on bool) {
	t.Helper()
	old := stdinIsTerminal
	stdinIsTerminal = func() bool { return on }
	t.Cleanup(func() { stdinIsTerminal = old })
}
