package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, 201, map[string]string{"id": "D1"})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Empty(t, env.Error)
	assert.NotNil(t, env.Data)
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, 404, "Record not found")

	assert.Equal(t, 404, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Record not found", env.Error)
	assert.Nil(t, env.Data)
}

func TestPaginatedTotalPages(t *testing.T) {
	tests := []struct {
		total       int
		rowsPerPage int
		wantPages   int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 10, 10},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		Paginated(rec, []int{}, tt.total, 1, tt.rowsPerPage)

		env := decode(t, rec)
		assert.True(t, env.Success)
		require.NotNil(t, env.TotalPages)
		assert.Equal(t, tt.wantPages, *env.TotalPages, "total=%d rows=%d", tt.total, tt.rowsPerPage)
		require.NotNil(t, env.Total)
		assert.Equal(t, tt.total, *env.Total)
	}
}
