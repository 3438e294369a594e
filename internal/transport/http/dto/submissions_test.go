package dto

import (
	"encoding/json"
	"testing"

	"advisory-tracker/internal/entities"

	"github.com/stretchr/testify/require"
)

func TestSubmissionsAcceptsArray(t *testing.T) {
	var req SubmitRequest
	err := json.Unmarshal([]byte(`{"responses":[{"entry_id":3,"status":"closed","patched":"Y"},{"entry_id":1,"comments":"n/a"}]}`), &req)
	require.NoError(t, err)
	require.Len(t, req.Responses, 2)
	require.Equal(t, int64(3), req.Responses[0].EntryID)
	require.Equal(t, "closed", *req.Responses[0].Status)
	require.Equal(t, entities.Yes, *req.Responses[0].Patched)
	require.Nil(t, req.Responses[1].Status)
}

func TestSubmissionsAcceptsMapOrderedByEntry(t *testing.T) {
	var req SubmitRequest
	err := json.Unmarshal([]byte(`{"responses":{"12":{"status":"patched"},"4":{"deployed":false}}}`), &req)
	require.NoError(t, err)
	require.Len(t, req.Responses, 2)
	require.Equal(t, int64(4), req.Responses[0].EntryID)
	require.Equal(t, entities.No, *req.Responses[0].Deployed)
	require.Equal(t, int64(12), req.Responses[1].EntryID)
}

func TestSubmissionsRejectsNonNumericKey(t *testing.T) {
	var req SubmitRequest
	err := json.Unmarshal([]byte(`{"responses":{"abc":{"status":"patched"}}}`), &req)
	require.ErrorIs(t, err, entities.ErrInvalidArgument)
}

func TestSubmissionsNull(t *testing.T) {
	var req SubmitRequest
	require.NoError(t, json.Unmarshal([]byte(`{"responses":null}`), &req))
	require.Empty(t, req.Responses)
}
