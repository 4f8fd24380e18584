package api

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"transcripto-backend/internal/database"
	"transcripto-backend/pkg/api"
)

const adminPageSize = 20

func (s *BackendService) AdminStats(r *http.Request) (any, error) {
	ctx := r.Context()

	var stats api.AdminStats

	if err := s.db.WithContext(ctx).Model(&database.Profile{}).Count(&stats.TotalUsers).Error; err != nil {
		slog.Error("error counting users", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}
	if err := s.db.WithContext(ctx).Model(&database.HistoryRecord{}).Count(&stats.TotalTranscriptions).Error; err != nil {
		slog.Error("error counting transcriptions", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}
	err := s.db.WithContext(ctx).Model(&database.ChatSession{}).
		Where("status = ?", database.ChatActive).
		Count(&stats.ActiveChats).Error
	if err != nil {
		slog.Error("error counting chat sessions", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}

	var durations struct {
		Total int64
		Avg   float64
	}
	err = s.db.WithContext(ctx).Model(&database.HistoryRecord{}).
		Select("COALESCE(SUM(duration_seconds), 0) AS total, COALESCE(AVG(duration_seconds), 0) AS avg").
		Scan(&durations).Error
	if err != nil {
		slog.Error("error aggregating durations", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing stats")
	}
	stats.TotalDurationSecs = durations.Total
	stats.AvgDurationSecs = durations.Avg

	return stats, nil
}

func (s *BackendService) AdminListUsers(r *http.Request) (any, error) {
	var users []database.Profile
	if err := s.db.WithContext(r.Context()).Order("created_at DESC").Find(&users).Error; err != nil {
		slog.Error("error listing users", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving users")
	}

	out := make([]api.User, 0, len(users))
	for _, user := range users {
		out = append(out, toApiUser(user))
	}
	return out, nil
}

func (s *BackendService) AdminListHistory(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.AdminListHistoryParams](r)
	if err != nil {
		return nil, err
	}
	page, limit := normalizePage(params.Page, params.Limit, adminPageSize)

	ctx := r.Context()

	query := s.db.WithContext(ctx).Model(&database.HistoryRecord{}).
		Joins("JOIN profiles ON profiles.id = user_history.user_id")
	if params.UserEmail != "" {
		query = query.Where("profiles.email = ?", strings.ToLower(strings.TrimSpace(params.UserEmail)))
	}
	query = applyHistorySearch(query, params.Search)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		slog.Error("error counting history records", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving history")
	}

	var rows []struct {
		Id                uuid.UUID
		UserId            uuid.UUID
		TranscriptionText string
		AudioUrl          sql.NullString
		FileName          sql.NullString
		FileSize          sql.NullInt64
		DurationSeconds   sql.NullInt64
		SourceType        string
		Status            string
		CreatedAt         time.Time
		Email             string
	}
	err = query.
		Select("user_history.*, profiles.email").
		Order("user_history.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		slog.Error("error listing history records", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving history")
	}

	records := make([]api.AdminHistoryRecord, 0, len(rows))
	for _, row := range rows {
		record := database.HistoryRecord{
			Id:                row.Id,
			UserId:            row.UserId,
			TranscriptionText: row.TranscriptionText,
			AudioUrl:          row.AudioUrl,
			FileName:          row.FileName,
			FileSize:          row.FileSize,
			DurationSeconds:   row.DurationSeconds,
			SourceType:        row.SourceType,
			Status:            row.Status,
			CreatedAt:         row.CreatedAt,
		}
		records = append(records, api.AdminHistoryRecord{
			HistoryRecord: toApiHistoryRecord(record),
			UserEmail:     row.Email,
		})
	}

	return api.AdminListHistoryResponse{
		Records:    records,
		TotalCount: total,
		TotalPages: pageCount(total, limit),
		Page:       page,
		Limit:      limit,
	}, nil
}

// AdminDeleteHistory removes any user's record, unlike the owner-scoped
// delete on /history.
func (s *BackendService) AdminDeleteHistory(r *http.Request) (any, error) {
	recordId, err := URLParamUUID(r, "record_id")
	if err != nil {
		return nil, err
	}

	var records []database.HistoryRecord
	if err := s.db.WithContext(r.Context()).Where("id = ?", recordId).Find(&records).Error; err != nil {
		slog.Error("error loading history record", "record_id", recordId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete transcription")
	}
	if len(records) == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "transcription not found")
	}

	if err := s.db.WithContext(r.Context()).Delete(&database.HistoryRecord{}, "id = ?", recordId).Error; err != nil {
		slog.Error("error deleting history record", "record_id", recordId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete transcription")
	}

	s.deleteAudioObjects(r, records)

	return nil, nil
}

func toApiSetting(setting database.AdminSetting) api.AdminSetting {
	return api.AdminSetting{
		SettingKey:   setting.SettingKey,
		SettingValue: setting.SettingValue,
		SettingType:  setting.SettingType,
		UpdatedAt:    setting.UpdatedAt,
	}
}

func (s *BackendService) GetSettings(r *http.Request) (any, error) {
	var settings []database.AdminSetting
	if err := s.db.WithContext(r.Context()).Order("setting_key ASC").Find(&settings).Error; err != nil {
		slog.Error("error listing settings", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving settings")
	}

	out := make([]api.AdminSetting, 0, len(settings))
	for _, setting := range settings {
		out = append(out, toApiSetting(setting))
	}
	return out, nil
}

// UpdateSettings upserts each submitted setting on its key.
func (s *BackendService) UpdateSettings(r *http.Request) (any, error) {
	req, err := ParseRequest[api.UpdateSettingsRequest](r)
	if err != nil {
		return nil, err
	}
	if len(req.Settings) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "settings is required")
	}

	now := time.Now().UTC()
	rows := make([]database.AdminSetting, 0, len(req.Settings))
	for _, setting := range req.Settings {
		if setting.SettingKey == "" {
			return nil, CodedErrorf(http.StatusBadRequest, "setting_key is required")
		}
		settingType := setting.SettingType
		if settingType == "" {
			settingType = "string"
		}
		rows = append(rows, database.AdminSetting{
			SettingKey:   setting.SettingKey,
			SettingValue: setting.SettingValue,
			SettingType:  settingType,
			UpdatedAt:    now,
		})
	}

	err = s.db.WithContext(r.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"setting_value", "setting_type", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		slog.Error("error upserting settings", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save settings")
	}

	return s.GetSettings(r)
}

func toApiNotification(n database.SystemNotification) api.SystemNotification {
	return api.SystemNotification{
		Id:        n.Id,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		IsActive:  n.IsActive,
		CreatedAt: n.CreatedAt,
	}
}

// ListNotifications returns the active notifications shown to every visitor.
func (s *BackendService) ListNotifications(r *http.Request) (any, error) {
	var notifications []database.SystemNotification
	err := s.db.WithContext(r.Context()).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		slog.Error("error listing notifications", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving notifications")
	}

	out := make([]api.SystemNotification, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, toApiNotification(n))
	}
	return out, nil
}

func (s *BackendService) CreateNotification(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SaveNotificationRequest](r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "title is required")
	}
	if req.Type == "" {
		req.Type = "info"
	}

	notification := database.SystemNotification{
		Id:        uuid.New(),
		Title:     req.Title,
		Message:   req.Message,
		Type:      req.Type,
		IsActive:  req.IsActive == nil || *req.IsActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(r.Context()).Create(&notification).Error; err != nil {
		slog.Error("error creating notification", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create notification")
	}

	return toApiNotification(notification), nil
}

func (s *BackendService) UpdateNotification(r *http.Request) (any, error) {
	notificationId, err := URLParamUUID(r, "notification_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SaveNotificationRequest](r)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"title":   req.Title,
		"message": req.Message,
		"type":    req.Type,
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	result := s.db.WithContext(r.Context()).Model(&database.SystemNotification{}).
		Where("id = ?", notificationId).
		Updates(updates)
	if result.Error != nil {
		slog.Error("error updating notification", "notification_id", notificationId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update notification")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "notification not found")
	}

	var notification database.SystemNotification
	if err := s.db.WithContext(r.Context()).First(&notification, "id = ?", notificationId).Error; err != nil {
		slog.Error("error reloading notification", "notification_id", notificationId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update notification")
	}
	return toApiNotification(notification), nil
}

func (s *BackendService) DeleteNotification(r *http.Request) (any, error) {
	notificationId, err := URLParamUUID(r, "notification_id")
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(r.Context()).Delete(&database.SystemNotification{}, "id = ?", notificationId)
	if result.Error != nil {
		slog.Error("error deleting notification", "notification_id", notificationId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete notification")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "notification not found")
	}
	return nil, nil
}

func toApiFaq(faq database.Faq) api.Faq {
	return api.Faq{
		Id:         faq.Id,
		Question:   faq.Question,
		Answer:     faq.Answer,
		Category:   faq.Category,
		OrderIndex: faq.OrderIndex,
		IsActive:   faq.IsActive,
		CreatedAt:  faq.CreatedAt,
	}
}

func (s *BackendService) ListFaqs(r *http.Request) (any, error) {
	var faqs []database.Faq
	err := s.db.WithContext(r.Context()).
		Where("is_active = ?", true).
		Order("category ASC, order_index ASC").
		Find(&faqs).Error
	if err != nil {
		slog.Error("error listing faqs", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving faqs")
	}

	out := make([]api.Faq, 0, len(faqs))
	for _, faq := range faqs {
		out = append(out, toApiFaq(faq))
	}
	return out, nil
}

func (s *BackendService) CreateFaq(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SaveFaqRequest](r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "question is required")
	}
	if req.Category == "" {
		req.Category = "general"
	}

	faq := database.Faq{
		Id:         uuid.New(),
		Question:   req.Question,
		Answer:     req.Answer,
		Category:   req.Category,
		OrderIndex: req.OrderIndex,
		IsActive:   req.IsActive == nil || *req.IsActive,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(r.Context()).Create(&faq).Error; err != nil {
		slog.Error("error creating faq", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create faq")
	}

	return toApiFaq(faq), nil
}

func (s *BackendService) UpdateFaq(r *http.Request) (any, error) {
	faqId, err := URLParamUUID(r, "faq_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SaveFaqRequest](r)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"question":    req.Question,
		"answer":      req.Answer,
		"category":    req.Category,
		"order_index": req.OrderIndex,
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	result := s.db.WithContext(r.Context()).Model(&database.Faq{}).Where("id = ?", faqId).Updates(updates)
	if result.Error != nil {
		slog.Error("error updating faq", "faq_id", faqId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update faq")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "faq not found")
	}

	var faq database.Faq
	if err := s.db.WithContext(r.Context()).First(&faq, "id = ?", faqId).Error; err != nil {
		slog.Error("error reloading faq", "faq_id", faqId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update faq")
	}
	return toApiFaq(faq), nil
}

func (s *BackendService) DeleteFaq(r *http.Request) (any, error) {
	faqId, err := URLParamUUID(r, "faq_id")
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(r.Context()).Delete(&database.Faq{}, "id = ?", faqId)
	if result.Error != nil {
		slog.Error("error deleting faq", "faq_id", faqId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete faq")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "faq not found")
	}
	return nil, nil
}

func toApiPricingPlan(plan database.PricingPlan) (api.PricingPlan, error) {
	features := []string{}
	if len(plan.Features) > 0 {
		if err := json.Unmarshal(plan.Features, &features); err != nil {
			return api.PricingPlan{}, err
		}
	}
	return api.PricingPlan{
		Id:             plan.Id,
		Name:           plan.Name,
		Price:          plan.Price,
		DurationMonths: plan.DurationMonths,
		Features:       features,
		IsActive:       plan.IsActive,
		CreatedAt:      plan.CreatedAt,
	}, nil
}

func (s *BackendService) ListPricingPlans(r *http.Request) (any, error) {
	var plans []database.PricingPlan
	err := s.db.WithContext(r.Context()).
		Where("is_active = ?", true).
		Order("price ASC").
		Find(&plans).Error
	if err != nil {
		slog.Error("error listing pricing plans", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving pricing plans")
	}

	out := make([]api.PricingPlan, 0, len(plans))
	for _, plan := range plans {
		converted, err := toApiPricingPlan(plan)
		if err != nil {
			slog.Error("error decoding pricing plan features", "plan_id", plan.Id, "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving pricing plans")
		}
		out = append(out, converted)
	}
	return out, nil
}

func featuresJSON(features []string) (datatypes.JSON, error) {
	if features == nil {
		features = []string{}
	}
	encoded, err := json.Marshal(features)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}

func (s *BackendService) CreatePricingPlan(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SavePricingPlanRequest](r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "name is required")
	}
	if req.DurationMonths < 1 {
		req.DurationMonths = 1
	}

	features, err := featuresJSON(req.Features)
	if err != nil {
		slog.Error("error encoding pricing plan features", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create pricing plan")
	}

	plan := database.PricingPlan{
		Id:             uuid.New(),
		Name:           req.Name,
		Price:          req.Price,
		DurationMonths: req.DurationMonths,
		Features:       features,
		IsActive:       req.IsActive == nil || *req.IsActive,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.db.WithContext(r.Context()).Create(&plan).Error; err != nil {
		slog.Error("error creating pricing plan", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create pricing plan")
	}

	return toApiPricingPlan(plan)
}

func (s *BackendService) UpdatePricingPlan(r *http.Request) (any, error) {
	planId, err := URLParamUUID(r, "plan_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SavePricingPlanRequest](r)
	if err != nil {
		return nil, err
	}

	features, err := featuresJSON(req.Features)
	if err != nil {
		slog.Error("error encoding pricing plan features", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update pricing plan")
	}

	updates := map[string]any{
		"name":            req.Name,
		"price":           req.Price,
		"duration_months": req.DurationMonths,
		"features":        features,
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	result := s.db.WithContext(r.Context()).Model(&database.PricingPlan{}).Where("id = ?", planId).Updates(updates)
	if result.Error != nil {
		slog.Error("error updating pricing plan", "plan_id", planId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update pricing plan")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "pricing plan not found")
	}

	var plan database.PricingPlan
	if err := s.db.WithContext(r.Context()).First(&plan, "id = ?", planId).Error; err != nil {
		slog.Error("error reloading pricing plan", "plan_id", planId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update pricing plan")
	}
	return toApiPricingPlan(plan)
}

func (s *BackendService) DeletePricingPlan(r *http.Request) (any, error) {
	planId, err := URLParamUUID(r, "plan_id")
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(r.Context()).Delete(&database.PricingPlan{}, "id = ?", planId)
	if result.Error != nil {
		slog.Error("error deleting pricing plan", "plan_id", planId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete pricing plan")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "pricing plan not found")
	}
	return nil, nil
}
