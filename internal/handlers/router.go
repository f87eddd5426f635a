package handlers

import (
	"net/http"

	"tuition/internal/config"
	"tuition/internal/db"
	"tuition/internal/middleware"
	"tuition/internal/models"
	"tuition/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner     db.TxRunner
	cfg          config.Config
	users        UserStore
	tuitions     TuitionStore
	applications ApplicationStore
	audit        AuditStore
	tuitionSvc   TuitionService
	appSvc       ApplicationService
	settlement   SettlementService
	projections  ProjectionService
	hub          *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, tuitions TuitionStore, applications ApplicationStore, audit AuditStore, tuitionSvc TuitionService, appSvc ApplicationService, settlement SettlementService, projections ProjectionService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:     txRunner,
		cfg:          cfg,
		users:        users,
		tuitions:     tuitions,
		applications: applications,
		audit:        audit,
		tuitionSvc:   tuitionSvc,
		appSvc:       appSvc,
		settlement:   settlement,
		projections:  projections,
		hub:          hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authed := func(roles ...string) func(chi.Router) chi.Router {
		return func(r chi.Router) chi.Router {
			return r.With(middleware.Auth(h.cfg.JWTSecret), middleware.WithActor(h.users, roles...))
		}
	}

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		authed()(r).Get("/me", h.Me)
	})

	router.Route("/tuitions", func(r chi.Router) {
		r.Get("/", h.ListTuitions)
		r.Get("/latest", h.LatestTuitions)
		authed()(r).Get("/{id}", h.GetTuition)
		authed()(r).Get("/{id}/applications", h.ListTuitionApplications)
		authed(models.RoleStudent)(r).Post("/", h.PostTuition)
		authed(models.RoleStudent, models.RoleAdmin)(r).Put("/{id}", h.UpdateTuition)
		authed(models.RoleStudent, models.RoleAdmin)(r).Delete("/{id}", h.DeleteTuition)
		authed(models.RoleAdmin)(r).Patch("/{id}/status", h.ModerateTuition)
	})

	router.Route("/applications", func(r chi.Router) {
		authed(models.RoleTutor)(r).Post("/", h.Apply)
		authed(models.RoleTutor)(r).Get("/", h.MyApplications)
		authed(models.RoleStudent)(r).Patch("/{id}/approve", h.ApproveApplication)
		authed(models.RoleStudent, models.RoleAdmin)(r).Patch("/{id}/reject", h.RejectApplication)
		authed(models.RoleTutor)(r).Patch("/{id}/confirm", h.ConfirmApplication)
		authed()(r).Delete("/{id}", h.DeleteApplication)
	})

	authed()(router).Get("/my-tuitions", h.MyTuitions)
	authed(models.RoleStudent)(router).Post("/create-checkout-session", h.CreateCheckoutSession)
	authed()(router).Patch("/payment-success", h.PaymentSuccess)
	authed(models.RoleTutor)(router).Get("/revenue", h.TutorRevenue)
	authed(models.RoleStudent)(router).Get("/my-payments", h.StudentPayments)
	router.Get("/ws/updates", h.WSUpdates)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret), middleware.WithActor(h.users, models.RoleAdmin))
		r.Get("/overview", h.AdminOverview)
		r.Get("/users", h.AdminListUsers)
		r.Patch("/users/{id}/role", h.AdminUpdateRole)
		r.Delete("/users/{id}", h.AdminDeleteUser)
		r.Get("/tuitions", h.AdminListTuitions)
		r.Get("/payments", h.AdminPayments)
		r.Get("/audit", h.ListAuditLogs)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
