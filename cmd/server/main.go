package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"teamhub/internal/auth"
	"teamhub/internal/config"
	"teamhub/internal/domain/services"
	"teamhub/internal/handler"
	"teamhub/internal/handler/sse"
	"teamhub/internal/middleware"
	"teamhub/internal/permissions"
	"teamhub/internal/realtime"
	"teamhub/internal/repository/postgres"
	"teamhub/internal/service"
	serviceAuth "teamhub/internal/service/auth"
)

// hubBufferSize is how many events a realtime subscriber may lag before it is dropped
const hubBufferSize = 256

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"realtime_mode", cfg.RealtimeMode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Supabase-issued access tokens, verified against the project's JWKS
	jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	userPrefsRepo := postgres.NewUserPreferencesRepository(repoConfig)
	projectRepo := postgres.NewProjectRepository(repoConfig)
	memberRepo := postgres.NewMemberRepository(repoConfig)
	taskRepo := postgres.NewTaskRepository(repoConfig)
	depRepo := postgres.NewDependencyRepository(repoConfig)
	messageRepo := postgres.NewMessageRepository(repoConfig)
	notificationRepo := postgres.NewNotificationRepository(repoConfig)
	todoRepo := postgres.NewTodoRepository(repoConfig)
	suggestionRepo := postgres.NewSuggestionRepository(repoConfig)
	meetingRepo := postgres.NewMeetingRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Role policy
	roleRegistry, err := permissions.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load role policy: %v", err)
	}
	authorizer := serviceAuth.NewMembershipAuthorizer(projectRepo, memberRepo, userRepo, roleRegistry)

	// Realtime: services publish committed changes; the hub fans them out to
	// this instance's subscribers. In postgres mode every instance publishes
	// through NOTIFY and relays what it hears into its own hub.
	hub := realtime.NewHub(logger, hubBufferSize)
	defer hub.Close()

	var publisher services.ChangePublisher = hub
	if cfg.RealtimeMode == "postgres" {
		publisher = postgres.NewNotifyPublisher(pool, cfg.RealtimeChannel, logger)
		listener := postgres.NewChangeListener(pool, cfg.RealtimeChannel, hub, logger)
		go listener.Run(ctx)
		logger.Info("realtime relaying through postgres", "channel", cfg.RealtimeChannel)
	}

	// Services
	notificationService := service.NewNotificationService(notificationRepo, userPrefsRepo, publisher, logger)
	userService := service.NewUserService(userRepo, authorizer, logger)
	userPrefsService := service.NewUserPreferencesService(userPrefsRepo, logger)
	projectService := service.NewProjectService(projectRepo, memberRepo, txManager, authorizer, notificationService, publisher, logger)
	taskService := service.NewTaskService(taskRepo, depRepo, memberRepo, txManager, authorizer, notificationService, publisher, logger)
	messageService := service.NewMessageService(messageRepo, memberRepo, authorizer, notificationService, publisher, logger)
	todoService := service.NewTodoService(todoRepo, txManager, publisher, logger)
	suggestionService := service.NewSuggestionService(suggestionRepo, authorizer, notificationService, publisher, logger)
	meetingService := service.NewMeetingService(meetingRepo, memberRepo, txManager, authorizer, notificationService, publisher, logger)
	dashboardService := service.NewDashboardService(projectRepo, memberRepo, taskRepo, todoRepo, meetingRepo, notificationRepo, authorizer, logger)

	feed := realtime.NewFeed(hub, authorizer, messageService, logger)
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")

	// Handlers
	healthHandler := handler.NewHealthHandler(pool, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	userPrefsHandler := handler.NewUserPreferencesHandler(userPrefsService, logger)
	rolesHandler := handler.NewRolesHandler(roleRegistry)
	projectHandler := handler.NewProjectHandler(projectService, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	messageHandler := handler.NewMessageHandler(messageService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)
	todoHandler := handler.NewTodoHandler(todoService, logger)
	suggestionHandler := handler.NewSuggestionHandler(suggestionService, logger)
	meetingHandler := handler.NewMeetingHandler(meetingService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)
	realtimeHandler := handler.NewRealtimeHandler(ctx, feed, corsOrigins, sse.DefaultConfig(), logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.HealthCheck)

	// Users
	mux.HandleFunc("GET /api/users/me", userHandler.GetMe)
	mux.HandleFunc("PATCH /api/users/me", userHandler.UpdateMe)
	mux.HandleFunc("GET /api/users/me/preferences", userPrefsHandler.GetPreferences)
	mux.HandleFunc("PATCH /api/users/me/preferences", userPrefsHandler.UpdatePreferences)
	mux.HandleFunc("GET /api/users", userHandler.SearchUsers)
	mux.HandleFunc("PATCH /api/admin/users/{id}/role", userHandler.SetRole)
	mux.HandleFunc("GET /api/roles", rolesHandler.ListRoles)

	// Projects and members
	mux.HandleFunc("GET /api/projects", projectHandler.ListProjects)
	mux.HandleFunc("POST /api/projects", projectHandler.CreateProject)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.GetProject)
	mux.HandleFunc("PATCH /api/projects/{id}", projectHandler.UpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", projectHandler.DeleteProject)
	mux.HandleFunc("GET /api/projects/{id}/members", projectHandler.ListMembers)
	mux.HandleFunc("POST /api/projects/{id}/members", projectHandler.AddMember)
	mux.HandleFunc("PATCH /api/projects/{id}/members/{userId}", projectHandler.UpdateMemberRole)
	mux.HandleFunc("DELETE /api/projects/{id}/members/{userId}", projectHandler.RemoveMember)
	mux.HandleFunc("GET /api/projects/{id}/report", dashboardHandler.GetProjectReport)

	// Tasks and dependencies
	mux.HandleFunc("GET /api/projects/{id}/tasks", taskHandler.ListTasks)
	mux.HandleFunc("POST /api/projects/{id}/tasks", taskHandler.CreateTask)
	mux.HandleFunc("GET /api/projects/{id}/graph", taskHandler.GetDependencyGraph)
	mux.HandleFunc("GET /api/tasks/mine", taskHandler.ListMyTasks) // More specific than {id}
	mux.HandleFunc("GET /api/tasks/{id}", taskHandler.GetTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", taskHandler.UpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", taskHandler.DeleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/move", taskHandler.MoveTask)
	mux.HandleFunc("POST /api/tasks/{id}/dependencies", taskHandler.AddDependency)
	mux.HandleFunc("DELETE /api/tasks/{id}/dependencies/{dependsOnId}", taskHandler.RemoveDependency)

	// Chat
	mux.HandleFunc("GET /api/projects/{id}/messages", messageHandler.ListMessages)
	mux.HandleFunc("POST /api/projects/{id}/messages", messageHandler.SendMessage)
	mux.HandleFunc("PATCH /api/messages/{id}", messageHandler.EditMessage)
	mux.HandleFunc("DELETE /api/messages/{id}", messageHandler.DeleteMessage)

	// Notifications
	mux.HandleFunc("GET /api/notifications", notificationHandler.ListNotifications)
	mux.HandleFunc("GET /api/notifications/unread-count", notificationHandler.UnreadCount)
	mux.HandleFunc("POST /api/notifications/read-all", notificationHandler.MarkAllRead)
	mux.HandleFunc("POST /api/notifications/{id}/read", notificationHandler.MarkRead)
	mux.HandleFunc("DELETE /api/notifications/{id}", notificationHandler.DeleteNotification)

	// Personal to-dos
	mux.HandleFunc("GET /api/todos", todoHandler.ListTodos)
	mux.HandleFunc("POST /api/todos", todoHandler.CreateTodo)
	mux.HandleFunc("PATCH /api/todos/{id}", todoHandler.UpdateTodo)
	mux.HandleFunc("DELETE /api/todos/{id}", todoHandler.DeleteTodo)
	mux.HandleFunc("POST /api/todos/{id}/move", todoHandler.MoveTodo)

	// Suggestions
	mux.HandleFunc("GET /api/suggestions", suggestionHandler.ListSuggestions)
	mux.HandleFunc("POST /api/suggestions", suggestionHandler.CreateSuggestion)
	mux.HandleFunc("GET /api/suggestions/{id}", suggestionHandler.GetSuggestion)
	mux.HandleFunc("PATCH /api/suggestions/{id}", suggestionHandler.UpdateSuggestion)
	mux.HandleFunc("DELETE /api/suggestions/{id}", suggestionHandler.DeleteSuggestion)
	mux.HandleFunc("POST /api/suggestions/{id}/vote", suggestionHandler.ToggleVote)
	mux.HandleFunc("POST /api/suggestions/{id}/review", suggestionHandler.ReviewSuggestion)

	// Meetings
	mux.HandleFunc("GET /api/meetings", meetingHandler.ListMeetings)
	mux.HandleFunc("POST /api/meetings", meetingHandler.ScheduleMeeting)
	mux.HandleFunc("GET /api/meetings/{id}", meetingHandler.GetMeeting)
	mux.HandleFunc("PATCH /api/meetings/{id}", meetingHandler.UpdateMeeting)
	mux.HandleFunc("DELETE /api/meetings/{id}", meetingHandler.DeleteMeeting)
	mux.HandleFunc("POST /api/meetings/{id}/cancel", meetingHandler.CancelMeeting)
	mux.HandleFunc("POST /api/meetings/{id}/respond", meetingHandler.RespondToMeeting)

	// Dashboards
	mux.HandleFunc("GET /api/dashboard", dashboardHandler.GetDashboard)
	mux.HandleFunc("GET /api/admin/reports", dashboardHandler.GetAdminReport)

	// Realtime change feed
	mux.HandleFunc("GET /api/realtime/ws", realtimeHandler.ServeWS)
	mux.HandleFunc("GET /api/realtime/stream", realtimeHandler.ServeSSE)

	// Build middleware chain
	var handler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Logging → Recovery → Auth → Routes
	handler = middleware.AuthMiddleware(jwtVerifier)(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logging(logger)(handler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	handler = corsHandler.Handler(handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // Disabled to allow long-lived SSE streams
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
