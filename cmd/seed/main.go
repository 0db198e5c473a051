package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"teamhub/internal/auth"
	"teamhub/internal/config"
	"teamhub/internal/domain/services"
	"teamhub/internal/permissions"
	"teamhub/internal/realtime"
	"teamhub/internal/repository/postgres"
	"teamhub/internal/seed"
	"teamhub/internal/service"
	serviceAuth "teamhub/internal/service/auth"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed fixtures")
	clearData := flag.Bool("clear-data", false, "Empty every table (keep schema)")
	fixturesFile := flag.String("fixtures", "", "YAML fixtures file (defaults to the embedded development set)")
	createAuthUsers := flag.Bool("create-auth-users", false, "Recreate fixture accounts in Supabase Auth (needs SUPABASE_KEY)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: seeding empties every table, so production only allows -schema-only
	if cfg.IsProduction() && (*dropTables || *clearData || *createAuthUsers || !*schemaOnly) {
		log.Fatalf("🚫 BLOCKED: only -schema-only is allowed in production")
	}
	if *createAuthUsers && cfg.SupabaseKey == "" {
		log.Fatalf("-create-auth-users needs SUPABASE_KEY (service role key)")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Fixtures are checked before touching the database
	var fx *seed.Fixtures
	var err error
	if *fixturesFile != "" {
		data, readErr := os.ReadFile(*fixturesFile)
		if readErr != nil {
			log.Fatalf("Failed to read fixtures: %v", readErr)
		}
		fx, err = seed.Parse(data)
	} else {
		fx, err = seed.Default()
	}
	if err != nil {
		log.Fatalf("Invalid fixtures: %v", err)
	}

	switch {
	case *clearData:
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	case *schemaOnly:
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	default:
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		dropped, err := postgres.DropAllTables(ctx, pool, tables)
		if err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		for _, t := range dropped {
			log.Printf("  ✓ Dropped %s", t)
		}
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.RunSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		return
	}

	if *clearData {
		if err := postgres.ClearData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared")
		return
	}

	log.Println("⚠️  Clearing existing data...")
	if err := postgres.ClearData(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to clear data: %v", err)
	}

	// Fixture accounts get fresh auth ids; everything else keys off those
	ids := map[string]string{}
	if *createAuthUsers {
		admin := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey)
		for _, u := range fx.Users {
			if err := admin.DeleteUserByEmail(ctx, u.Email); err != nil {
				log.Fatalf("Failed to remove auth user %s: %v", u.Email, err)
			}
			id, err := admin.CreateUser(ctx, auth.NewAuthUser{Email: u.Email, Password: u.Password, FullName: u.FullName})
			if err != nil {
				log.Fatalf("Failed to create auth user %s: %v", u.Email, err)
			}
			ids[u.Email] = id
			log.Printf("  ✓ Auth user %s (%s)", u.Email, id)
		}
	}

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
	txManager := postgres.NewTransactionManager(pool, logger)

	roleRegistry, err := permissions.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load role policy: %v", err)
	}
	authorizer := serviceAuth.NewMembershipAuthorizer(projectRepo, memberRepo, userRepo, roleRegistry)

	// Running servers in postgres mode see seeded rows arrive live
	var publisher services.ChangePublisher
	if cfg.RealtimeMode == "postgres" {
		publisher = postgres.NewNotifyPublisher(pool, cfg.RealtimeChannel, logger)
	} else {
		hub := realtime.NewHub(logger, 1)
		defer hub.Close()
		publisher = hub
	}

	notificationService := service.NewNotificationService(notificationRepo, userPrefsRepo, publisher, logger)
	seeder := seed.NewSeeder(seed.Services{
		Users:       userRepo,
		Projects:    service.NewProjectService(projectRepo, memberRepo, txManager, authorizer, notificationService, publisher, logger),
		Tasks:       service.NewTaskService(taskRepo, depRepo, memberRepo, txManager, authorizer, notificationService, publisher, logger),
		Messages:    service.NewMessageService(messageRepo, memberRepo, authorizer, notificationService, publisher, logger),
		Todos:       service.NewTodoService(todoRepo, txManager, publisher, logger),
		Suggestions: service.NewSuggestionService(suggestionRepo, authorizer, notificationService, publisher, logger),
	}, logger)

	sum, err := seeder.Run(ctx, fx, ids)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("🎉 Seeding complete: %d users, %d projects, %d members, %d tasks, %d dependencies, %d messages, %d to-dos, %d suggestions",
		sum.Users, sum.Projects, sum.Members, sum.Tasks, sum.Dependencies, sum.Messages, sum.Todos, sum.Suggestions)
}
