package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/orgfinance/internal/auth"
	"github.com/frahmantamala/orgfinance/internal/category"
	"github.com/frahmantamala/orgfinance/internal/finance"
	"github.com/frahmantamala/orgfinance/internal/invite"
	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/frahmantamala/orgfinance/internal/organization"
	"github.com/frahmantamala/orgfinance/internal/reimbursement"
	"github.com/frahmantamala/orgfinance/internal/stats"
	"github.com/frahmantamala/orgfinance/internal/transaction"
	"github.com/frahmantamala/orgfinance/internal/transport/middleware"
	"github.com/frahmantamala/orgfinance/internal/transport/swagger"
	"github.com/frahmantamala/orgfinance/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth          *auth.Handler
	User          *user.Handler
	Organization  *organization.Handler
	Membership    *membership.Handler
	Transaction   *transaction.Handler
	Finance       *finance.Handler
	Reimbursement *reimbursement.Handler
	Invite        *invite.Handler
	Category      *category.Handler
	Stats         *stats.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, handlers Handlers, tokenValidator middleware.TokenValidator, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.TraceID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Public landing-page counters
		if handlers.Stats != nil {
			r.Get("/stats/hero", handlers.Stats.Hero)
		}

		if handlers.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/signup", handlers.Auth.SignUp)
				sr.Post("/login", handlers.Auth.Login)
				sr.Post("/refresh", handlers.Auth.RefreshToken)
			})
		}

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(middleware.Authenticate(tokenValidator))

			if handlers.User != nil {
				pr.Get("/users/me", handlers.User.Me)
				pr.Patch("/users/me", handlers.User.UpdateProfile)
			}

			if handlers.Invite != nil {
				pr.Post("/join", handlers.Invite.Join)
			}

			if handlers.Organization != nil {
				pr.Route("/organizations", func(or chi.Router) {
					or.Post("/", handlers.Organization.CreateOrganization)
					or.Get("/", handlers.Organization.ListOrganizations)

					or.Route("/{orgID}", func(sr chi.Router) {
						sr.Get("/", handlers.Organization.GetOrganization)
						sr.Patch("/", handlers.Organization.UpdateOrganization)
						sr.Delete("/", handlers.Organization.DeleteOrganization)
						sr.Post("/transfer-ownership", handlers.Organization.TransferOwnership)

						if handlers.Finance != nil {
							sr.Get("/stats", handlers.Finance.GetOrganizationStats)
							sr.Put("/baselines", handlers.Finance.SetMemberBaseline)
						}

						if handlers.Membership != nil {
							sr.Route("/members", func(mr chi.Router) {
								mr.Get("/", handlers.Membership.ListMembers)
								mr.Patch("/role", handlers.Membership.UpdateRole)
								mr.Post("/deactivate", handlers.Membership.DeactivateMember)
								mr.Post("/reactivate", handlers.Membership.ReactivateMember)
							})
						}

						if handlers.Transaction != nil {
							sr.Route("/transactions", func(tr chi.Router) {
								tr.Get("/", handlers.Transaction.ListTransactions)
								tr.Post("/income", handlers.Transaction.AddIncome)
								tr.Post("/expenses", handlers.Transaction.AddExpense)
								tr.Post("/initial", handlers.Transaction.AddInitial)
								tr.Get("/{txID}", handlers.Transaction.GetTransaction)
								tr.Put("/{txID}", handlers.Transaction.UpdateTransaction)
								tr.Delete("/{txID}", handlers.Transaction.DeleteTransaction)
							})
						}

						if handlers.Reimbursement != nil {
							sr.Route("/reimbursements", func(rr chi.Router) {
								rr.Get("/", handlers.Reimbursement.ListReimbursements)
								rr.Post("/", handlers.Reimbursement.CreateRefund)
								rr.Delete("/{refundID}", handlers.Reimbursement.DeleteRefund)
							})
						}

						if handlers.Invite != nil {
							sr.Route("/invites", func(ir chi.Router) {
								ir.Get("/", handlers.Invite.ListInvites)
								ir.Post("/", handlers.Invite.CreateInvite)
								ir.Post("/{inviteID}/revoke", handlers.Invite.RevokeInvite)
							})
						}

						if handlers.Category != nil {
							sr.Get("/categories", handlers.Category.SearchCategories)
						}
					})
				})
			}
		})
	})
}
