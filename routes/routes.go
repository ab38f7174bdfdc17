package routes

import (
	"conference-management-api/controllers"
	"conference-management-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)
			public.POST("/refresh", controllers.RefreshToken)
			public.POST("/forgot-password", controllers.ForgotPassword)
			public.POST("/reset-password", controllers.ResetPassword)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Conference Management API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Auth management
			protected.POST("/logout", controllers.Logout)
			protected.POST("/logout-all", controllers.LogoutAllDevices)
			protected.GET("/sessions", controllers.GetActiveSessions)
			protected.DELETE("/sessions/:session_id", controllers.RevokeSession)

			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/profile", controllers.UpdateProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// User lookup (co-author and reviewer pickers)
			protected.GET("/users/search", controllers.SearchUsers)
			protected.GET("/users/:id", controllers.GetUser)

			// Conferences
			conferences := protected.Group("/conferences")
			{
				conferences.GET("", controllers.GetConferences)
				conferences.GET("/:id", controllers.GetConference)

				// Only admin can manage conferences
				conferences.POST("", middleware.RequireRole(3), controllers.CreateConference) // 3 = admin
				conferences.PUT("/:id", middleware.RequireRole(3), controllers.UpdateConference)

				conferences.POST("/:id/register", controllers.RegisterForConference)
				conferences.GET("/:id/registrations", middleware.RequireRole(3), controllers.GetConferenceRegistrations)
			}

			// Registrations
			registrations := protected.Group("/registrations")
			{
				registrations.GET("/my", controllers.GetMyRegistrations)
				registrations.PUT("/:registration_id/confirm", middleware.RequireRole(3), controllers.ConfirmRegistration)
				registrations.DELETE("/:registration_id", controllers.CancelRegistration)
			}

			// Submissions
			submissions := protected.Group("/submissions")
			{
				submissions.POST("", controllers.CreateSubmission)
				submissions.GET("", controllers.GetSubmissions)
				submissions.GET("/:id", controllers.GetSubmission)
				submissions.PUT("/:id", controllers.UpdateSubmissionDetails)
				submissions.PUT("/:id/classification", controllers.UpdateSubmissionClassification)
				submissions.DELETE("/:id", controllers.DeleteSubmission)
				submissions.GET("/:id/history", controllers.GetSubmissionStatusHistory)

				// Author roster
				submissions.POST("/:id/authors", controllers.AddCoAuthor)
				submissions.POST("/:id/sponsors", controllers.AddSponsor)
				submissions.DELETE("/:id/authors/:author_id", controllers.RemoveAuthor)
				submissions.PUT("/:id/presenters", controllers.SetPresenters)
				submissions.PUT("/:id/presenters/primary", controllers.SetPrimaryPresenter)

				// Review workflow; assignment-scoped checks live in the handlers
				submissions.POST("/:id/submit", controllers.SubmitForReview)
				submissions.POST("/:id/assign-editor", middleware.RequireRole(3), controllers.AssignEditor)
				submissions.POST("/:id/reviewers", controllers.AddReviewer)
				submissions.POST("/:id/reviewers/respond", controllers.RespondToReviewInvitation)
				submissions.POST("/:id/reviews", controllers.SubmitReview)
				submissions.POST("/:id/decision", controllers.MakeDecision)
				submissions.POST("/:id/revision", controllers.SubmitRevision)
				submissions.POST("/:id/resume-review", controllers.ResumeReview)
				submissions.POST("/:id/withdraw", controllers.WithdrawSubmission)
				submissions.POST("/:id/presented", middleware.RequireRole(3), controllers.MarkPresented)

				// Presenter availability
				submissions.GET("/:id/availability", controllers.GetAvailability)
				submissions.PUT("/:id/availability", controllers.UpdateAvailability)

				// Proceedings track
				submissions.POST("/:id/proceedings/invite", middleware.RequireRole(2, 3), controllers.InviteToProceedings)
				submissions.POST("/:id/proceedings/respond", controllers.RespondToProceedingsInvitation)
				submissions.POST("/:id/proceedings/paper", controllers.SubmitProceedingsPaper)
				submissions.POST("/:id/proceedings/assign-editor", middleware.RequireRole(3), controllers.AssignProceedingsEditor)
				submissions.POST("/:id/proceedings/revisions", controllers.AddProceedingsRevision)
				submissions.POST("/:id/proceedings/decision", controllers.MakeProceedingsDecision)
				submissions.POST("/:id/proceedings/publish", middleware.RequireRole(3), controllers.PublishProceedings)
				submissions.GET("/:id/proceedings", controllers.GetProceedingsStatus)

				// Paper files
				submissions.POST("/:id/documents", controllers.UploadSubmissionDocument)
				submissions.GET("/:id/documents", controllers.GetSubmissionDocuments)
			}

			// Reviewer inbox
			protected.GET("/reviews/assigned", controllers.GetAssignedReviews)

			// Documents
			documents := protected.Group("/documents")
			{
				documents.GET("/download/:document_id", controllers.DownloadDocument)
				documents.DELETE("/:document_id", controllers.DeleteDocument)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/counter", controllers.GetNotificationCounter)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}

			// Admin
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(3))
			{
				admin.GET("/users", controllers.GetUsers)
			}
		}
	}
}
