package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgapi "transcripto-backend/pkg/api"
)

func saveHistory(t *testing.T, env *testEnv, token string, req pkgapi.SaveHistoryRequest) pkgapi.HistoryRecord {
	t.Helper()
	rec := env.request(t, http.MethodPost, "/history", req, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeResponse[pkgapi.HistoryRecord](t, rec)
}

func int64Ptr(v int64) *int64 { return &v }

func TestSaveAndListHistory(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "user@test.com", "password123").Token

	saveHistory(t, env, token, pkgapi.SaveHistoryRequest{
		TranscriptionText: "meeting notes about the roadmap",
		SourceType:        "dictation",
		DurationSeconds:   int64Ptr(90),
	})
	saveHistory(t, env, token, pkgapi.SaveHistoryRequest{
		TranscriptionText: "shopping list",
		SourceType:        "manual",
	})

	rec := env.request(t, http.MethodGet, "/history", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeResponse[pkgapi.ListHistoryResponse](t, rec)
	assert.EqualValues(t, 2, list.TotalCount)
	assert.Len(t, list.Records, 2)

	// Search matches transcription text case insensitively.
	rec = env.request(t, http.MethodGet, "/history?search=ROADMAP", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	list = decodeResponse[pkgapi.ListHistoryResponse](t, rec)
	require.Len(t, list.Records, 1)
	assert.Equal(t, "meeting notes about the roadmap", list.Records[0].TranscriptionText)

	rec = env.request(t, http.MethodGet, "/history?source_type=manual", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	list = decodeResponse[pkgapi.ListHistoryResponse](t, rec)
	require.Len(t, list.Records, 1)
	assert.Equal(t, "shopping list", list.Records[0].TranscriptionText)
}

func TestListHistoryPagination(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "user@test.com", "password123").Token

	for i := 0; i < 15; i++ {
		saveHistory(t, env, token, pkgapi.SaveHistoryRequest{
			TranscriptionText: fmt.Sprintf("entry %d", i),
			SourceType:        "manual",
		})
	}

	rec := env.request(t, http.MethodGet, "/history", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeResponse[pkgapi.ListHistoryResponse](t, rec)
	assert.EqualValues(t, 15, list.TotalCount)
	assert.EqualValues(t, 2, list.TotalPages)
	assert.Len(t, list.Records, 10)
	assert.Equal(t, 1, list.Page)

	rec = env.request(t, http.MethodGet, "/history?page=2&limit=10", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	list = decodeResponse[pkgapi.ListHistoryResponse](t, rec)
	assert.Len(t, list.Records, 5)
	assert.Equal(t, 2, list.Page)

	rec = env.request(t, http.MethodGet, "/history?limit=5", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decodeResponse[pkgapi.ListHistoryResponse](t, rec).TotalPages)
}

func TestHistoryStatsAverageSkipsMissingDurations(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "user@test.com", "password123").Token

	saveHistory(t, env, token, pkgapi.SaveHistoryRequest{
		TranscriptionText: "with duration",
		SourceType:        "dictation",
		DurationSeconds:   int64Ptr(100),
	})
	saveHistory(t, env, token, pkgapi.SaveHistoryRequest{
		TranscriptionText: "also with duration",
		SourceType:        "dictation",
		DurationSeconds:   int64Ptr(50),
	})
	// No duration: must not drag the average down.
	saveHistory(t, env, token, pkgapi.SaveHistoryRequest{
		TranscriptionText: "typed by hand",
		SourceType:        "manual",
	})

	rec := env.request(t, http.MethodGet, "/history/stats", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeResponse[pkgapi.HistoryStats](t, rec)

	assert.EqualValues(t, 3, stats.TotalCount)
	assert.EqualValues(t, 3, stats.CompletedCount)
	assert.EqualValues(t, 150, stats.TotalDurationSecs)
	assert.InDelta(t, 75.0, stats.AvgDurationSecs, 0.001)
}

func TestUpdateAndDeleteHistoryScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.signup(t, "owner@test.com", "password123").Token
	otherToken := env.signup(t, "other@test.com", "password123").Token

	record := saveHistory(t, env, ownerToken, pkgapi.SaveHistoryRequest{
		TranscriptionText: "original text",
		SourceType:        "manual",
	})

	// Another user cannot touch the record.
	rec := env.request(t, http.MethodPut, "/history/"+record.Id.String(), pkgapi.UpdateHistoryRequest{
		TranscriptionText: "hijacked",
	}, otherToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.request(t, http.MethodDelete, "/history/"+record.Id.String(), nil, otherToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.request(t, http.MethodPut, "/history/"+record.Id.String(), pkgapi.UpdateHistoryRequest{
		TranscriptionText: "edited text",
	}, ownerToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edited text", decodeResponse[pkgapi.HistoryRecord](t, rec).TranscriptionText)

	rec = env.request(t, http.MethodDelete, "/history/"+record.Id.String(), nil, ownerToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodGet, "/history", nil, ownerToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decodeResponse[pkgapi.ListHistoryResponse](t, rec).TotalCount)
}

func TestBulkDeleteOnlyRemovesOwnRecords(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.signup(t, "owner@test.com", "password123").Token
	otherToken := env.signup(t, "other@test.com", "password123").Token

	mine := saveHistory(t, env, ownerToken, pkgapi.SaveHistoryRequest{
		TranscriptionText: "mine",
		SourceType:        "manual",
	})
	theirs := saveHistory(t, env, otherToken, pkgapi.SaveHistoryRequest{
		TranscriptionText: "theirs",
		SourceType:        "manual",
	})

	rec := env.request(t, http.MethodPost, "/history/bulk-delete", pkgapi.BulkDeleteRequest{
		Ids: []uuid.UUID{mine.Id, theirs.Id},
	}, ownerToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeResponse[pkgapi.BulkDeleteResponse](t, rec).DeletedCount)

	// The other user's record is untouched.
	rec = env.request(t, http.MethodGet, "/history", nil, otherToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeResponse[pkgapi.ListHistoryResponse](t, rec).TotalCount)
}

func TestExportHistoryCSV(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "user@test.com", "password123").Token

	saveHistory(t, env, token, pkgapi.SaveHistoryRequest{
		TranscriptionText: "exported entry",
		SourceType:        "dictation",
		DurationSeconds:   int64Ptr(125),
	})

	req := httptest.NewRequest(http.MethodGet, "/history/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Date", "Type", "Transcription", "File Name", "Duration(M:SS)", "Status"}, rows[0])
	assert.Equal(t, "dictation", rows[1][1])
	assert.Equal(t, "exported entry", rows[1][2])
	assert.Equal(t, "2:05", rows[1][4])
	assert.Equal(t, "completed", rows[1][5])
}
