package router

import (
	"time"

	"feedesk/internal/access"
	"feedesk/internal/config"
	"feedesk/internal/handler"
	"feedesk/internal/infra"
	"feedesk/internal/middleware"
	"feedesk/internal/repository"
	"feedesk/internal/service"
	"feedesk/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the infrastructure handles built by the composition root.
type Deps struct {
	DB          *gorm.DB // nil with the in-memory store
	Stores      repository.Stores
	Queue       infra.Queue
	Revocations infra.RevocationStore
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// receipt numbers travel percent-encoded in the path
	r.UseRawPath = true
	r.UnescapePathValues = true

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	loc := cfg.Location()
	st := deps.Stores

	// ── Services ─────────────────────────────────────────────────────────────
	auditSvc := service.NewAuditService(st.Audit, loc)
	authSvc := service.NewAuthService(st.Users, deps.Revocations, auditSvc, cfg)

	// Worker dispatcher: the session service enqueues parent notifications through it
	dispatcher := worker.NewDispatcher(deps.Queue, st.Notifications, cfg.InstitutionName)

	sessionSvc := service.NewSessionService(st.Tx, st.Sessions, st.Ledger, st.Students, auditSvc, dispatcher,
		service.SessionConfig{Location: loc, ReceiptPrefix: cfg.ReceiptPrefix})
	receiptSvc := service.NewReceiptService(st.Ledger, auditSvc, cfg.InstitutionName)
	studentSvc := service.NewStudentService(st.Students, st.Ledger, st.Academic, auditSvc)
	academicSvc := service.NewAcademicService(st.Academic, auditSvc)
	feeStructureSvc := service.NewFeeStructureService(st.Academic, st.Students, auditSvc)
	reportSvc := service.NewReportService(st.Ledger, st.Students, st.Sessions, loc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	sessionsH := handler.NewSessionsHandler(sessionSvc)
	receiptsH := handler.NewReceiptsHandler(receiptSvc)
	studentsH := handler.NewStudentsHandler(studentSvc)
	reportsH := handler.NewReportsHandler(reportSvc, auditSvc)
	academicH := handler.NewAcademicHandler(academicSvc)
	feeStructureH := handler.NewFeeStructureHandler(feeStructureSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(deps.DB, deps.Queue))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes, each gated by an action of the access policy
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret, deps.Revocations))
	{
		v1.POST("/auth/logout", authH.Logout)

		me := v1.Group("/me")
		{
			me.GET("/capabilities", handler.Capabilities)
			me.GET("/resolve", handler.Resolve)
			me.POST("/password", authH.ChangePassword)
		}

		v1.GET("/dashboard", middleware.RequireAction(access.DashboardRead), reportsH.Dashboard)

		users := v1.Group("/users", middleware.RequireAction(access.UserManage))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}

		students := v1.Group("/students")
		{
			students.GET("", middleware.RequireAction(access.StudentRead), studentsH.List)
			students.GET("/:id", middleware.RequireAction(access.StudentRead), studentsH.Get)
			students.GET("/:id/receipts", middleware.RequireAction(access.StudentRead), receiptsH.ForStudent)
			students.POST("", middleware.RequireAction(access.StudentWrite), studentsH.Create)
			students.PUT("/:id", middleware.RequireAction(access.StudentWrite), studentsH.Update)
		}

		academic := v1.Group("/academic", middleware.RequireAction(access.AcademicManage))
		{
			academic.GET("/courses", academicH.ListCourses)
			academic.POST("/courses", academicH.CreateCourse)
			academic.PUT("/courses/:id", academicH.UpdateCourse)
			academic.DELETE("/courses/:id", academicH.DeactivateCourse)
			academic.GET("/sections", academicH.ListSections)
			academic.POST("/sections", academicH.CreateSection)
			academic.DELETE("/sections/:id", academicH.DeleteSection)
		}

		fees := v1.Group("/fee-structure", middleware.RequireAction(access.FeeStructureManage))
		{
			fees.GET("", feeStructureH.Get)
			fees.POST("/heads", feeStructureH.AddHead)
			fees.PUT("/heads/:id", feeStructureH.UpdateHead)
			fees.DELETE("/heads/:id", feeStructureH.DeleteHead)
			fees.POST("/apply", feeStructureH.Apply)
		}

		reports := v1.Group("/reports", middleware.RequireAction(access.ReportRead))
		{
			reports.GET("/mode-wise", reportsH.ModeWise)
			reports.GET("/daily", reportsH.Daily)
		}

		v1.GET("/audit-logs", middleware.RequireAction(access.AuditRead), reportsH.AuditLogs)

		collection := v1.Group("/collection", middleware.RequireAction(access.FeeCollect))
		{
			collection.GET("/students", studentsH.Lookup)
			collection.POST("/receipts", sessionsH.Record)
		}

		sessions := v1.Group("/sessions", middleware.RequireAction(access.SessionManage))
		{
			sessions.POST("/open", sessionsH.Open)
			sessions.POST("/close", sessionsH.Close)
			sessions.GET("/current", sessionsH.Current)
			sessions.GET("/history", sessionsH.History)
			sessions.GET("/:date", sessionsH.Get)
		}

		receipts := v1.Group("/receipts", middleware.RequireAction(access.ReceiptReprint))
		{
			receipts.GET("", receiptsH.Search)
			receipts.GET("/:no", receiptsH.Get)
			receipts.POST("/:no/reprint", receiptsH.Reprint)
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
