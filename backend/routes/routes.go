package routes

import (
	"lms/backend/config"
	"lms/backend/controllers"
	"lms/backend/middleware"
	"lms/backend/models"
	"lms/backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App, svc *services.Services, cfg *config.Config) {
	api := app.Group("/api")

	// Auth routes
	authController := controllers.NewAuthController(svc, cfg)
	api.Post("/register", authController.Register)
	api.Post("/login", authController.Login)

	// Public certificate check
	certificatesController := controllers.NewCertificatesController(svc)
	api.Get("/certificates/verify/:number", certificatesController.VerifyCertificate)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	instructorOnly := middleware.RequireRole(models.RoleInstructor)
	studentOnly := middleware.RequireRole(models.RoleStudent)

	// User routes
	userController := controllers.NewUserController(svc)
	api.Get("/user/profile", authMiddleware, userController.GetProfile)
	api.Put("/user/profile", authMiddleware, userController.UpdateProfile)

	// Courses routes
	coursesController := controllers.NewCoursesController(svc)
	dashboardController := controllers.NewDashboardController(svc)
	progressController := controllers.NewProgressController(svc)
	courses := api.Group("/courses", authMiddleware)
	courses.Get("/", coursesController.ListCourses)
	courses.Post("/", instructorOnly, coursesController.CreateCourse)
	courses.Get("/enrolled", studentOnly, coursesController.GetEnrolledCourses)
	courses.Get("/available", studentOnly, coursesController.GetAvailableCourses)
	courses.Get("/:id", coursesController.GetCourse)
	courses.Put("/:id", instructorOnly, coursesController.UpdateCourse)
	courses.Delete("/:id", instructorOnly, coursesController.DeleteCourse)
	courses.Post("/:id/enroll", studentOnly, coursesController.Enroll)
	courses.Get("/:id/progress", studentOnly, progressController.GetCourseProgress)
	courses.Get("/:id/certificate", studentOnly, progressController.GetCourseCertificate)
	courses.Get("/:id/analytics", instructorOnly, dashboardController.GetCourseAnalytics)

	// Lessons routes
	lessonsController := controllers.NewLessonsController(svc)
	lessons := api.Group("/lessons", authMiddleware)
	lessons.Get("/", lessonsController.ListLessons)
	lessons.Post("/", instructorOnly, lessonsController.CreateLesson)
	lessons.Get("/:id", lessonsController.GetLesson)
	lessons.Put("/:id", instructorOnly, lessonsController.UpdateLesson)
	lessons.Delete("/:id", instructorOnly, lessonsController.DeleteLesson)
	lessons.Post("/:id/mark-complete", studentOnly, lessonsController.MarkComplete)
	lessons.Post("/:id/reset", studentOnly, lessonsController.ResetCompletion)

	// Quizzes routes
	quizzesController := controllers.NewQuizzesController(svc)
	quizzes := api.Group("/quizzes", authMiddleware)
	quizzes.Post("/", instructorOnly, quizzesController.CreateQuiz)
	quizzes.Get("/:id", quizzesController.GetQuiz)
	quizzes.Post("/:id/questions", instructorOnly, quizzesController.AddQuestion)
	quizzes.Post("/:id/attempt", studentOnly, quizzesController.SubmitAttempt)
	quizzes.Get("/:id/history", studentOnly, quizzesController.GetHistory)

	// Dashboards
	api.Get("/instructor-dashboard", authMiddleware, instructorOnly, dashboardController.GetInstructorDashboard)
	api.Get("/student-dashboard", authMiddleware, studentOnly, dashboardController.GetStudentDashboard)
	api.Get("/activity", authMiddleware, dashboardController.GetActivity)

	// Reports
	reports := api.Group("/reports", authMiddleware, instructorOnly)
	reports.Get("/students", dashboardController.GetStudentReports)
	reports.Get("/students/:id", dashboardController.GetStudentReport)

	// Certificates
	certificates := api.Group("/certificates", authMiddleware)
	certificates.Get("/", certificatesController.ListCertificates)
	certificates.Get("/:id/download", certificatesController.DownloadCertificate)
}
