package api

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"transcripto-backend/internal/database"
	"transcripto-backend/pkg/api"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	statsWindowDays = 7
)

func toApiHistoryRecord(record database.HistoryRecord) api.HistoryRecord {
	out := api.HistoryRecord{
		Id:                record.Id,
		UserId:            record.UserId,
		TranscriptionText: record.TranscriptionText,
		SourceType:        record.SourceType,
		Status:            record.Status,
		CreatedAt:         record.CreatedAt,
	}
	if record.AudioUrl.Valid {
		out.AudioUrl = &record.AudioUrl.String
	}
	if record.FileName.Valid {
		out.FileName = &record.FileName.String
	}
	if record.FileSize.Valid {
		out.FileSize = &record.FileSize.Int64
	}
	if record.DurationSeconds.Valid {
		out.DurationSeconds = &record.DurationSeconds.Int64
	}
	return out
}

func validSourceType(sourceType string) bool {
	switch sourceType {
	case database.SourceRecording, database.SourceUpload, database.SourceDictation, database.SourceManual:
		return true
	}
	return false
}

// SaveHistory persists a transcription produced without an audio upload, such
// as live dictation or manually entered text.
func (s *BackendService) SaveHistory(r *http.Request) (any, error) {
	user, err := s.currentUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SaveHistoryRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.TranscriptionText) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "transcription_text is required")
	}
	if req.SourceType == "" {
		req.SourceType = database.SourceDictation
	}
	if !validSourceType(req.SourceType) {
		return nil, CodedErrorf(http.StatusBadRequest, "invalid source_type '%s' provided", req.SourceType)
	}

	record := database.HistoryRecord{
		Id:                uuid.New(),
		UserId:            user.Id,
		TranscriptionText: req.TranscriptionText,
		SourceType:        req.SourceType,
		Status:            database.HistoryCompleted,
		CreatedAt:         time.Now().UTC(),
	}
	if req.DurationSeconds != nil {
		record.DurationSeconds = sql.NullInt64{Int64: *req.DurationSeconds, Valid: true}
	}
	if req.FileName != nil {
		record.FileName = sql.NullString{String: *req.FileName, Valid: true}
	}

	if err := s.db.WithContext(r.Context()).Create(&record).Error; err != nil {
		slog.Error("error creating history record", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save transcription")
	}

	return toApiHistoryRecord(record), nil
}

func normalizePage(page, limit, fallbackLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = fallbackLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func pageCount(total int64, limit int) int64 {
	return (total + int64(limit) - 1) / int64(limit)
}

// applyHistorySearch matches the search term against the transcription text
// and file name, case insensitively on both postgres and sqlite.
func applyHistorySearch(query *gorm.DB, search string) *gorm.DB {
	if search == "" {
		return query
	}
	pattern := "%" + strings.ToLower(search) + "%"
	return query.Where("LOWER(transcription_text) LIKE ? OR LOWER(file_name) LIKE ?", pattern, pattern)
}

func (s *BackendService) ListHistory(r *http.Request) (any, error) {
	user, err := s.currentUser(r)
	if err != nil {
		return nil, err
	}

	params, err := ParseRequestQueryParams[api.ListHistoryParams](r)
	if err != nil {
		return nil, err
	}
	page, limit := normalizePage(params.Page, params.Limit, defaultPageSize)

	query := s.db.WithContext(r.Context()).Model(&database.HistoryRecord{}).Where("user_id = ?", user.Id)
	query = applyHistorySearch(query, params.Search)
	if params.SourceType != "" {
		query = query.Where("source_type = ?", params.SourceType)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		slog.Error("error counting history records", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving history")
	}

	var records []database.HistoryRecord
	err = query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&records).Error
	if err != nil {
		slog.Error("error listing history records", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving history")
	}

	out := make([]api.HistoryRecord, 0, len(records))
	for _, record := range records {
		out = append(out, toApiHistoryRecord(record))
	}

	return api.ListHistoryResponse{
		Records:    out,
		TotalCount: total,
		TotalPages: pageCount(total, limit),
		Page:       page,
		Limit:      limit,
	}, nil
}

func (s *BackendService) GetHistoryStats(r *http.Request) (any, error) {
	user, err := s.currentUser(r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&database.HistoryRecord{}).Where("user_id = ?", user.Id)
	}

	var stats api.HistoryStats

	if err := base().Count(&stats.TotalCount).Error; err != nil {
		slog.Error("error counting history records", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}
	if err := base().Where("status = ?", database.HistoryCompleted).Count(&stats.CompletedCount).Error; err != nil {
		slog.Error("error counting completed records", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}

	// AVG skips null durations, so dictation entries without audio do not
	// drag the average down.
	var durations struct {
		Total int64
		Avg   float64
	}
	err = base().
		Select("COALESCE(SUM(duration_seconds), 0) AS total, COALESCE(AVG(duration_seconds), 0) AS avg").
		Scan(&durations).Error
	if err != nil {
		slog.Error("error aggregating durations", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}
	stats.TotalDurationSecs = durations.Total
	stats.AvgDurationSecs = durations.Avg

	var bySource []api.SourceTypeCount
	err = base().
		Select("source_type, COUNT(*) AS count").
		Group("source_type").
		Order("count DESC").
		Scan(&bySource).Error
	if err != nil {
		slog.Error("error aggregating source types", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}
	stats.CountsBySourceType = bySource

	since := time.Now().UTC().AddDate(0, 0, -statsWindowDays)
	var daily []api.DailyCount
	err = base().
		Select("DATE(created_at) AS date, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&daily).Error
	if err != nil {
		slog.Error("error aggregating daily counts", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}
	stats.DailyCounts = daily

	return stats, nil
}

func (s *BackendService) UpdateHistory(r *http.Request) (any, error) {
	user, err := s.currentUser(r)
	if err != nil {
		return nil, err
	}

	recordId, err := URLParamUUID(r, "record_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.UpdateHistoryRequest](r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.TranscriptionText) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "transcription_text is required")
	}

	result := s.db.WithContext(r.Context()).Model(&database.HistoryRecord{}).
		Where("id = ? AND user_id = ?", recordId, user.Id).
		Update("transcription_text", req.TranscriptionText)
	if result.Error != nil {
		slog.Error("error updating history record", "record_id", recordId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update transcription")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "transcription not found")
	}

	var record database.HistoryRecord
	if err := s.db.WithContext(r.Context()).First(&record, "id = ?", recordId).Error; err != nil {
		slog.Error("error reloading history record", "record_id", recordId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update transcription")
	}
	return toApiHistoryRecord(record), nil
}

// objectKeyFromURL recovers the storage key from a stored audio URL. Keys
// contain no slashes, so the final path segment is the key.
func objectKeyFromURL(audioUrl string) string {
	parsed, err := url.Parse(audioUrl)
	if err != nil {
		return ""
	}
	return path.Base(parsed.Path)
}

func (s *BackendService) deleteAudioObjects(r *http.Request, records []database.HistoryRecord) {
	for _, record := range records {
		if !record.AudioUrl.Valid {
			continue
		}
		key := objectKeyFromURL(record.AudioUrl.String)
		if key == "" {
			continue
		}
		// Best effort: a dangling object is preferable to a failed delete.
		if err := s.store.DeleteObject(r.Context(), key); err != nil {
			slog.Warn("failed to delete audio object", "key", key, "error", err)
		}
	}
}

func (s *BackendService) DeleteHistory(r *http.Request) (any, error) {
	user, err := s.currentUser(r)
	if err != nil {
		return nil, err
	}

	recordId, err := URLParamUUID(r, "record_id")
	if err != nil {
		return nil, err
	}

	var records []database.HistoryRecord
	err = s.db.WithContext(r.Context()).
		Where("id = ? AND user_id = ?", recordId, user.Id).
		Find(&records).Error
	if err != nil {
		slog.Error("error loading history record", "record_id", recordId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete transcription")
	}
	if len(records) == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "transcription not found")
	}

	err = s.db.WithContext(r.Context()).
		Delete(&database.HistoryRecord{}, "id = ? AND user_id = ?", recordId, user.Id).Error
	if err != nil {
		slog.Error("error deleting history record", "record_id", recordId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete transcription")
	}

	s.deleteAudioObjects(r, records)

	return nil, nil
}

func (s *BackendService) BulkDeleteHistory(r *http.Request) (any, error) {
	user, err := s.currentUser(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.BulkDeleteRequest](r)
	if err != nil {
		return nil, err
	}
	if len(req.Ids) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "ids is required")
	}

	// The user_id filter keeps one user's bulk delete away from another
	// user's records, no matter what ids are submitted.
	var records []database.HistoryRecord
	err = s.db.WithContext(r.Context()).
		Where("id IN ? AND user_id = ?", req.Ids, user.Id).
		Find(&records).Error
	if err != nil {
		slog.Error("error loading history records for bulk delete", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete transcriptions")
	}

	result := s.db.WithContext(r.Context()).
		Delete(&database.HistoryRecord{}, "id IN ? AND user_id = ?", req.Ids, user.Id)
	if result.Error != nil {
		slog.Error("error bulk deleting history records", "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete transcriptions")
	}

	s.deleteAudioObjects(r, records)

	return api.BulkDeleteResponse{DeletedCount: result.RowsAffected}, nil
}

// formatDuration renders seconds as M:SS for the export.
func formatDuration(record database.HistoryRecord) string {
	if !record.DurationSeconds.Valid {
		return ""
	}
	seconds := record.DurationSeconds.Int64
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func (s *BackendService) ExportHistoryCSV(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		var cerr *codedError
		if errors.As(err, &cerr) {
			http.Error(w, err.Error(), cerr.code)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	var records []database.HistoryRecord
	dbErr := s.db.WithContext(r.Context()).
		Where("user_id = ?", user.Id).
		Order("created_at DESC").
		Find(&records).Error
	if dbErr != nil {
		slog.Error("error loading history records for export", "error", dbErr)
		http.Error(w, "error retrieving history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=transcription_history_%s.csv", time.Now().UTC().Format("2006-01-02")))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Type", "Transcription", "File Name", "Duration(M:SS)", "Status"}); err != nil {
		slog.Error("error writing csv header", "error", err)
		return
	}

	for _, record := range records {
		fileName := ""
		if record.FileName.Valid {
			fileName = record.FileName.String
		}
		row := []string{
			record.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			record.SourceType,
			record.TranscriptionText,
			fileName,
			formatDuration(record),
			record.Status,
		}
		if err := writer.Write(row); err != nil {
			slog.Error("error writing csv row", "error", err)
			return
		}
	}
}
