package sqlterr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/sqlshift/internal/sqlterr"
)

func TestMissingDependencies_Error(t *testing.T) {
	err := &sqlterr.MissingDependencies{Left: []string{"a"}, Right: []string{"b", "c"}}
	require.Contains(t, err.Error(), "source: a")
	require.Contains(t, err.Error(), "target: b, c")
}

func TestStateTransitionError_Error(t *testing.T) {
	err := &sqlterr.StateTransitionError{Command: "cutover", RequiredStates: "migrating, ready", ActualState: "unknown"}
	require.Contains(t, err.Error(), "cutover")
	require.Contains(t, err.Error(), "migrating, ready")
}

func TestWriteRejected_Error(t *testing.T) {
	var err error = &sqlterr.WriteRejected{}
	require.Equal(t, "write rejected: database is in drain mode", err.Error())
}

func TestMissingIDMapping_Error(t *testing.T) {
	err := &sqlterr.MissingIDMapping{RefTable: "account", Key: "i:10"}
	require.Contains(t, err.Error(), "account")
	require.Contains(t, err.Error(), "i:10")
}

func TestErrors_As(t *testing.T) {
	var err error = &sqlterr.MigrationLogError{TxnID: 1, LogID: 2, Table: "invoice", Detail: "boom"}
	var mle *sqlterr.MigrationLogError
	require.True(t, errors.As(err, &mle))
	require.Equal(t, "invoice", mle.Table)
}
