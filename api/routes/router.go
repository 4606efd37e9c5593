package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dnadiscipleship/dna-backend/api/controllers"
	"github.com/dnadiscipleship/dna-backend/api/middleware"
	"github.com/dnadiscipleship/dna-backend/internal/analytics"
	"github.com/dnadiscipleship/dna-backend/internal/assessments"
	"github.com/dnadiscipleship/dna-backend/internal/auditlog"
	"github.com/dnadiscipleship/dna-backend/internal/auth"
	"github.com/dnadiscipleship/dna-backend/internal/calendar"
	"github.com/dnadiscipleship/dna-backend/internal/calls"
	"github.com/dnadiscipleship/dna-backend/internal/churches"
	"github.com/dnadiscipleship/dna-backend/internal/documents"
	"github.com/dnadiscipleship/dna-backend/internal/launchguide"
	"github.com/dnadiscipleship/dna-backend/internal/leaders"
	"github.com/dnadiscipleship/dna-backend/internal/progress"
	"github.com/dnadiscipleship/dna-backend/pkg/config"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	pingers map[string]func(context.Context) error,
	authService auth.Service,
	churchService churches.Service,
	progressService progress.Service,
	callService calls.Service,
	documentService documents.Service,
	leaderService leaders.Service,
	assessmentService assessments.Service,
	launchGuideService launchguide.Service,
	auditService *auditlog.Service,
	analyticsService analytics.Service,
	calendarService calendar.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	authed := middleware.Session(cfg.Session, authService, logg)
	adminOnly := middleware.RequireAdmin(logg)
	staffOnly := middleware.RequireStaff(logg)
	churchScoped := middleware.RequireChurchAccess(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/magic-link", controllers.RequestMagicLink(authService, logg))
		r.Post("/verify", controllers.VerifyMagicLink(authService, cfg.Session, logg))
		r.Post("/admin/login", controllers.AdminLogin(authService, cfg.Session, logg))

		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Post("/logout", controllers.Logout(authService, cfg.Session, logg))
			r.Get("/me", controllers.Me(logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authed)

		r.Route("/churches", func(r chi.Router) {
			r.With(staffOnly).Get("/", controllers.ListChurches(churchService, logg))
			r.With(staffOnly).Post("/", controllers.CreateChurch(churchService, logg))
			r.With(adminOnly).Post("/bulk-transition", controllers.BulkTransitionChurches(churchService, logg))

			r.Route("/{churchID}", func(r chi.Router) {
				r.Use(churchScoped)

				r.Get("/", controllers.GetChurch(churchService, logg))
				r.With(staffOnly).Put("/", controllers.UpdateChurch(churchService, logg))
				r.With(adminOnly).Post("/transition", controllers.TransitionChurch(churchService, logg))
				r.With(staffOnly).Post("/phase", controllers.AdvanceChurchPhase(churchService, logg))
				r.With(staffOnly).Put("/phase-dates", controllers.SetChurchPhaseDates(churchService, logg))

				r.Route("/milestones", func(r chi.Router) {
					r.Get("/", controllers.GetProgressSummary(progressService, logg))
					r.Post("/{milestoneID}/toggle", controllers.ToggleMilestone(progressService, logg))
					r.Put("/{milestoneID}/target-date", controllers.SetMilestoneTargetDate(progressService, logg))
					r.Put("/{milestoneID}/notes", controllers.SetMilestoneNotes(progressService, logg))
				})

				r.Route("/calls", func(r chi.Router) {
					r.Get("/", controllers.ListCalls(callService, logg))
					r.Post("/", controllers.CreateCall(callService, logg))
					r.Patch("/{callID}", controllers.UpdateCall(callService, logg))
					r.Delete("/{callID}", controllers.DeleteCall(callService, logg))
				})

				r.Route("/documents", func(r chi.Router) {
					r.Get("/", controllers.ListDocuments(documentService, logg))
					r.With(staffOnly).Post("/", controllers.AddDocument(documentService, logg))
					r.With(staffOnly).Delete("/{documentID}", controllers.RemoveDocument(documentService, logg))
				})

				r.Route("/leaders", func(r chi.Router) {
					r.Get("/", controllers.ListChurchLeaders(leaderService, logg))
					r.Post("/invite", controllers.InviteChurchLeader(leaderService, logg))
					r.Put("/{leaderID}", controllers.UpdateChurchLeader(leaderService, logg))
				})

				r.Route("/dna-leaders", func(r chi.Router) {
					r.Get("/", controllers.ListDNALeaders(leaderService, logg))
					r.Post("/invite", controllers.InviteDNALeader(leaderService, logg))
					r.Put("/{leaderID}", controllers.UpdateDNALeader(leaderService, logg))
				})

				r.With(staffOnly).Post("/send-login-links", controllers.SendLoginLinks(leaderService, logg))

				r.Route("/groups", func(r chi.Router) {
					r.Get("/", controllers.ListGroups(leaderService, logg))
					r.Post("/", controllers.CreateGroup(leaderService, logg))
					r.Put("/{groupID}", controllers.UpdateGroup(leaderService, logg))
					r.Delete("/{groupID}", controllers.DeleteGroup(leaderService, logg))
				})
			})
		})

		r.Route("/assessments", func(r chi.Router) {
			r.Get("/", controllers.GetAssessment(assessmentService, logg))
			r.Put("/autosave", controllers.AutosaveAssessment(assessmentService, logg))
			r.Post("/complete", controllers.CompleteAssessment(assessmentService, logg))
			r.Get("/roadblocks", controllers.ListRoadblocks())
		})

		r.Route("/launch-guide/phases", func(r chi.Router) {
			r.Get("/", controllers.ListLaunchPhases(launchGuideService))
			r.Route("/{phaseNumber}", func(r chi.Router) {
				r.Get("/", controllers.GetLaunchPhase(launchGuideService, logg))
				r.Post("/checklist", controllers.ToggleLaunchChecklistItem(launchGuideService, logg))
				r.Post("/section-check", controllers.ToggleLaunchSectionCheck(launchGuideService, logg))
				r.Post("/user-data", controllers.SaveLaunchUserData(launchGuideService, logg))
				r.Post("/complete", controllers.CompleteLaunchPhase(launchGuideService, logg))
			})
		})

		r.Get("/resources", controllers.ListResources(documentService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(authed)
		r.Use(adminOnly)

		r.Get("/audit", controllers.ListActivityLog(auditService, logg))
		r.Get("/auth/tokens", controllers.TokenHistory(authService, logg))
		r.Get("/analytics/overview", controllers.AnalyticsOverview(analyticsService, logg))

		r.Route("/resources", func(r chi.Router) {
			r.Post("/", controllers.CreateResource(documentService, logg))
			r.Put("/{resourceID}", controllers.UpdateResource(documentService, logg))
			r.Delete("/{resourceID}", controllers.RemoveResource(documentService, logg))
		})

		r.Route("/calendar", func(r chi.Router) {
			r.Get("/connect", controllers.CalendarConnect(calendarService, logg))
			r.Get("/callback", controllers.CalendarCallback(calendarService, logg))
			r.Post("/sync", controllers.CalendarSync(calendarService, logg))
			r.Get("/runs", controllers.CalendarRuns(calendarService, logg))
			r.Get("/unmatched", controllers.ListUnmatchedEvents(calendarService, logg))
			r.Post("/unmatched/{eventID}/link", controllers.LinkUnmatchedEvent(calendarService, logg))
		})
	})

	return r
}
