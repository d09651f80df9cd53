package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/leaguehq/team-workspace/handlers"
	"github.com/leaguehq/team-workspace/middleware"
)

// SetupRoutes собирает маршрутизатор рабочего пространства. Публичны
// только витрина по слагу и Swagger; все остальное требует токен.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	teamHandler *handlers.TeamHandler,
	rosterHandler *handlers.RosterHandler,
	membershipHandler *handlers.MembershipHandler,
	mediaHandler *handlers.MediaHandler,
	suggestionHandler *handlers.SuggestionHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	// Публичная витрина команды
	router.Get("/teams/by-slug/{slug}", teamHandler.GetTeamBySlug)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Get("/me/teams", teamHandler.ListMyTeams)

		r.Post("/suggestions/identity", suggestionHandler.Suggest)
		r.Get("/suggestions/palette", suggestionHandler.SuggestPalette)

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", teamHandler.CreateTeam)

			r.Route("/{teamID}", func(r chi.Router) {
				r.Get("/", teamHandler.GetTeamByID)
				r.Patch("/", teamHandler.UpdateTeam)

				r.Route("/members", func(r chi.Router) {
					r.Get("/", rosterHandler.ListMembers)
					r.Post("/", rosterHandler.AddMember)
					r.Patch("/{memberID}", rosterHandler.UpdateMember)
					r.Delete("/{memberID}", rosterHandler.RemoveMember)
				})

				r.Route("/memberships", func(r chi.Router) {
					r.Get("/", membershipHandler.ListMemberships)
					r.Post("/invites", membershipHandler.InviteByEmail)
					r.Post("/invites/accept", membershipHandler.AcceptInvite)
					r.Delete("/{membershipID}", membershipHandler.RevokeMembership)
				})

				r.Route("/media", func(r chi.Router) {
					r.Get("/", mediaHandler.ListItems)
					r.Post("/", mediaHandler.CreateItem)
					r.Patch("/{itemID}", mediaHandler.UpdateItem)
					r.Delete("/{itemID}", mediaHandler.DeleteItem)
					r.Post("/{itemID}/image", mediaHandler.UploadImage)
				})
			})
		})

		r.Get("/ws/teams/{teamID}", webSocketHandler.ServeWs)
	})
}
