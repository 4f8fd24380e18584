package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"transcripto-backend/internal/auth"
	"transcripto-backend/internal/messaging"
	"transcripto-backend/internal/storage"
	"transcripto-backend/internal/transcriber"
)

type BackendService struct {
	db          *gorm.DB
	publisher   messaging.Publisher
	store       storage.ObjectStore
	transcriber transcriber.Transcriber
	chat        *ChatService
	jwtSecret   []byte
}

func NewBackendService(
	db *gorm.DB,
	publisher messaging.Publisher,
	store storage.ObjectStore,
	t transcriber.Transcriber,
	chatService *ChatService,
	jwtSecret []byte,
) *BackendService {
	return &BackendService{
		db:          db,
		publisher:   publisher,
		store:       store,
		transcriber: t,
		chat:        chatService,
		jwtSecret:   jwtSecret,
	}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", RestHandler(s.Signup))
		r.Post("/login", RestHandler(s.Login))
		r.Post("/admin/login", RestHandler(s.AdminLogin))

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticator(s.jwtSecret))
			r.Get("/user", RestHandler(s.GetUser))
			r.Put("/user", RestHandler(s.UpdateUser))
		})
	})

	// Site content is readable without a login.
	r.Get("/notifications", RestHandler(s.ListNotifications))
	r.Get("/faqs", RestHandler(s.ListFaqs))
	r.Get("/pricing", RestHandler(s.ListPricingPlans))

	// The support chat is gated by email, not by account.
	r.Route("/chat", func(r chi.Router) {
		r.Post("/start", RestHandler(s.StartChat))
		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/messages", RestHandler(s.GetChatMessages))
			r.Post("/messages", RestHandler(s.SendChatMessage))
			r.Post("/close", RestHandler(s.CloseChat))
			r.Get("/ws", s.ChatWebsocket)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticator(s.jwtSecret))

		r.Route("/history", func(r chi.Router) {
			r.Post("/", RestHandler(s.SaveHistory))
			r.Get("/", RestHandler(s.ListHistory))
			r.Get("/stats", RestHandler(s.GetHistoryStats))
			r.Get("/export", s.ExportHistoryCSV)
			r.Post("/bulk-delete", RestHandler(s.BulkDeleteHistory))
			r.Put("/{record_id}", RestHandler(s.UpdateHistory))
			r.Delete("/{record_id}", RestHandler(s.DeleteHistory))
		})

		r.Route("/transcriptions", func(r chi.Router) {
			r.Post("/upload", RestHandler(s.TranscribeUpload))
			r.Post("/jobs", RestHandler(s.SubmitTranscriptionJob))
			r.Get("/jobs/{record_id}", RestHandler(s.GetTranscriptionJob))
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.Authenticator(s.jwtSecret), auth.RequireAdmin)

		r.Get("/stats", RestHandler(s.AdminStats))
		r.Get("/users", RestHandler(s.AdminListUsers))
		r.Get("/history", RestHandler(s.AdminListHistory))
		r.Delete("/history/{record_id}", RestHandler(s.AdminDeleteHistory))

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", RestHandler(s.AdminListChats))
			r.Get("/ws", s.AdminChatWebsocket)
			r.Route("/{session_id}", func(r chi.Router) {
				r.Get("/messages", RestHandler(s.GetChatMessages))
				r.Post("/messages", RestHandler(s.AdminSendChatMessage))
				r.Post("/read", RestHandler(s.AdminMarkChatRead))
				r.Post("/close", RestHandler(s.CloseChat))
			})
		})

		r.Get("/settings", RestHandler(s.GetSettings))
		r.Put("/settings", RestHandler(s.UpdateSettings))

		r.Post("/notifications", RestHandler(s.CreateNotification))
		r.Put("/notifications/{notification_id}", RestHandler(s.UpdateNotification))
		r.Delete("/notifications/{notification_id}", RestHandler(s.DeleteNotification))

		r.Post("/faqs", RestHandler(s.CreateFaq))
		r.Put("/faqs/{faq_id}", RestHandler(s.UpdateFaq))
		r.Delete("/faqs/{faq_id}", RestHandler(s.DeleteFaq))

		r.Post("/pricing", RestHandler(s.CreatePricingPlan))
		r.Put("/pricing/{plan_id}", RestHandler(s.UpdatePricingPlan))
		r.Delete("/pricing/{plan_id}", RestHandler(s.DeletePricingPlan))
	})
}
