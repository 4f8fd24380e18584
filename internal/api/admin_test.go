package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgapi "transcripto-backend/pkg/api"
)

func boolPtr(v bool) *bool { return &v }

func TestAdminStatsAndHistory(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.createAdmin(t, "admin@test.com", "admin-password").Token
	userToken := env.signup(t, "user@test.com", "password123").Token

	saveHistory(t, env, userToken, pkgapi.SaveHistoryRequest{
		TranscriptionText: "first entry",
		SourceType:        "dictation",
		DurationSeconds:   int64Ptr(60),
	})
	saveHistory(t, env, userToken, pkgapi.SaveHistoryRequest{
		TranscriptionText: "second entry",
		SourceType:        "manual",
	})

	rec := env.request(t, http.MethodGet, "/admin/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeResponse[pkgapi.AdminStats](t, rec)
	assert.EqualValues(t, 2, stats.TotalUsers) // admin + user
	assert.EqualValues(t, 2, stats.TotalTranscriptions)
	assert.EqualValues(t, 60, stats.TotalDurationSecs)

	rec = env.request(t, http.MethodGet, "/admin/history?user_email=user@test.com", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeResponse[pkgapi.AdminListHistoryResponse](t, rec)
	assert.EqualValues(t, 2, history.TotalCount)
	assert.EqualValues(t, 1, history.TotalPages)
	require.Len(t, history.Records, 2)
	assert.Equal(t, "user@test.com", history.Records[0].UserEmail)

	rec = env.request(t, http.MethodGet, "/admin/history?user_email=nobody@test.com", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decodeResponse[pkgapi.AdminListHistoryResponse](t, rec).TotalCount)

	// Admin delete works across users.
	recordId := history.Records[0].Id
	rec = env.request(t, http.MethodDelete, "/admin/history/"+recordId.String(), nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodGet, "/history", nil, userToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeResponse[pkgapi.ListHistoryResponse](t, rec).TotalCount)
}

func TestAdminListUsers(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.createAdmin(t, "admin@test.com", "admin-password").Token
	env.signup(t, "user@test.com", "password123")

	rec := env.request(t, http.MethodGet, "/admin/users", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decodeResponse[[]pkgapi.User](t, rec)
	assert.Len(t, users, 2)
}

func TestSettingsUpsert(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.createAdmin(t, "admin@test.com", "admin-password").Token

	rec := env.request(t, http.MethodPut, "/admin/settings", pkgapi.UpdateSettingsRequest{
		Settings: []pkgapi.AdminSetting{
			{SettingKey: "site_name", SettingValue: "Transcripto"},
			{SettingKey: "max_upload_mb", SettingValue: "50", SettingType: "number"},
		},
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Updating an existing key overwrites instead of duplicating.
	rec = env.request(t, http.MethodPut, "/admin/settings", pkgapi.UpdateSettingsRequest{
		Settings: []pkgapi.AdminSetting{
			{SettingKey: "site_name", SettingValue: "Transcripto Pro"},
		},
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodGet, "/admin/settings", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decodeResponse[[]pkgapi.AdminSetting](t, rec)
	require.Len(t, settings, 2)

	byKey := map[string]pkgapi.AdminSetting{}
	for _, setting := range settings {
		byKey[setting.SettingKey] = setting
	}
	assert.Equal(t, "Transcripto Pro", byKey["site_name"].SettingValue)
	assert.Equal(t, "string", byKey["site_name"].SettingType)
	assert.Equal(t, "number", byKey["max_upload_mb"].SettingType)
}

func TestNotificationLifecycle(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.createAdmin(t, "admin@test.com", "admin-password").Token

	rec := env.request(t, http.MethodPost, "/admin/notifications", pkgapi.SaveNotificationRequest{
		Title:   "Scheduled maintenance",
		Message: "Down Sunday 02:00 UTC",
		Type:    "warning",
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	notification := decodeResponse[pkgapi.SystemNotification](t, rec)
	assert.True(t, notification.IsActive)

	// Active notifications are public.
	rec = env.request(t, http.MethodGet, "/notifications", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeResponse[[]pkgapi.SystemNotification](t, rec), 1)

	// Deactivated ones disappear from the public list.
	rec = env.request(t, http.MethodPut, "/admin/notifications/"+notification.Id.String(), pkgapi.SaveNotificationRequest{
		Title:    notification.Title,
		Message:  notification.Message,
		Type:     notification.Type,
		IsActive: boolPtr(false),
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodGet, "/notifications", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeResponse[[]pkgapi.SystemNotification](t, rec))

	rec = env.request(t, http.MethodDelete, "/admin/notifications/"+notification.Id.String(), nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.request(t, http.MethodDelete, "/admin/notifications/"+notification.Id.String(), nil, adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFaqOrderingAndLifecycle(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.createAdmin(t, "admin@test.com", "admin-password").Token

	for _, faq := range []pkgapi.SaveFaqRequest{
		{Question: "How do I export?", Answer: "Use the export button.", Category: "usage", OrderIndex: 2},
		{Question: "What formats are supported?", Answer: "Common audio formats.", Category: "usage", OrderIndex: 1},
		{Question: "How do I pay?", Answer: "See pricing.", Category: "billing", OrderIndex: 1},
	} {
		rec := env.request(t, http.MethodPost, "/admin/faqs", faq, adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.request(t, http.MethodGet, "/faqs", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	faqs := decodeResponse[[]pkgapi.Faq](t, rec)
	require.Len(t, faqs, 3)
	// Sorted by category, then order index.
	assert.Equal(t, "How do I pay?", faqs[0].Question)
	assert.Equal(t, "What formats are supported?", faqs[1].Question)
	assert.Equal(t, "How do I export?", faqs[2].Question)

	rec = env.request(t, http.MethodPut, "/admin/faqs/"+faqs[0].Id.String(), pkgapi.SaveFaqRequest{
		Question:   "How do I pay?",
		Answer:     "Card or invoice.",
		Category:   "billing",
		OrderIndex: 1,
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Card or invoice.", decodeResponse[pkgapi.Faq](t, rec).Answer)

	rec = env.request(t, http.MethodDelete, "/admin/faqs/"+faqs[0].Id.String(), nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPricingPlanLifecycle(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.createAdmin(t, "admin@test.com", "admin-password").Token

	rec := env.request(t, http.MethodPost, "/admin/pricing", pkgapi.SavePricingPlanRequest{
		Name:           "Pro",
		Price:          19.99,
		DurationMonths: 1,
		Features:       []string{"Unlimited transcriptions", "Priority support"},
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	plan := decodeResponse[pkgapi.PricingPlan](t, rec)
	assert.Equal(t, []string{"Unlimited transcriptions", "Priority support"}, plan.Features)

	rec = env.request(t, http.MethodPost, "/admin/pricing", pkgapi.SavePricingPlanRequest{
		Name:  "Free",
		Price: 0,
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	// Public list is active plans ordered by price.
	rec = env.request(t, http.MethodGet, "/pricing", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	plans := decodeResponse[[]pkgapi.PricingPlan](t, rec)
	require.Len(t, plans, 2)
	assert.Equal(t, "Free", plans[0].Name)
	assert.Equal(t, "Pro", plans[1].Name)
	assert.Empty(t, plans[0].Features)

	rec = env.request(t, http.MethodPut, "/admin/pricing/"+plan.Id.String(), pkgapi.SavePricingPlanRequest{
		Name:           "Pro",
		Price:          24.99,
		DurationMonths: 1,
		Features:       []string{"Everything"},
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeResponse[pkgapi.PricingPlan](t, rec)
	assert.InDelta(t, 24.99, updated.Price, 0.001)
	assert.Equal(t, []string{"Everything"}, updated.Features)

	rec = env.request(t, http.MethodDelete, "/admin/pricing/"+plan.Id.String(), nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
}
