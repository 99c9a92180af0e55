package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"school-quiz-service/internal/app"
	"school-quiz-service/internal/config"
	"school-quiz-service/internal/domain"
	"school-quiz-service/internal/infra/memory"
	pgstore "school-quiz-service/internal/infra/postgres"
	redisstore "school-quiz-service/internal/infra/redis"
	transport "school-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var (
		loader    memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
		results   app.ResultRepository
		materials app.MaterialRepository
	)
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
		results = pgstore.NewResultStore(pool)
		materials = pgstore.NewMaterialStore(pool)
	} else {
		results = memory.NewResultStore()
		materials = memory.NewMaterialStore(sampleMaterials())
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, cacheTTL)
		// atomic attempt reservation on top of whichever store backs results
		results = redisstore.NewResultStore(redisClient, results)
	} else {
		quizRepo = memory.NewQuizRepository(loader, cacheTTL)
	}

	defaultDuration := config.DurationSeconds(cfg.Quiz.DefaultDurationSeconds, app.DefaultDurationSeconds)
	service := app.NewQuizService(quizRepo, results, materials, defaultDuration)
	wsHandler := transport.NewWSHandler(service)
	apiHandler := transport.NewAPIHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting school quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds demo content when no Postgres is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"algebra-basics": {
			ID:              "algebra-basics",
			Title:           "Algebra Basics",
			SubjectType:     domain.SubjectCore,
			SubjectName:     "Mathematics",
			DurationSeconds: 300,
			Questions: []domain.Question{
				{
					Text:         "What is the value of x in 2x + 4 = 10?",
					Options:      []string{"2", "3", "4", "5"},
					CorrectIndex: 1,
				},
				{
					Text:         "Simplify: 3(a + 2) - 2a",
					Options:      []string{"a + 6", "5a + 2", "a + 2", "6a"},
					CorrectIndex: 0,
				},
				{
					Text:         "Which of these is a linear equation?",
					Options:      []string{"y = x^2", "y = 2x + 1", "y = 1/x", "y = x^3 - 1"},
					CorrectIndex: 1,
				},
				{
					Text:         "What is the slope of y = 4x - 7?",
					Options:      []string{"-7", "7", "4", "-4"},
					CorrectIndex: 2,
				},
			},
		},
		"intro-biology": {
			ID:              "intro-biology",
			Title:           "Introduction to Biology",
			SubjectType:     domain.SubjectElective,
			SubjectName:     "Biology",
			DurationSeconds: 240,
			Questions: []domain.Question{
				{
					Text:         "Which organelle is known as the powerhouse of the cell?",
					Options:      []string{"Nucleus", "Ribosome", "Mitochondrion", "Golgi body"},
					CorrectIndex: 2,
				},
				{
					Text:         "What molecule carries genetic information?",
					Options:      []string{"RNA only", "DNA", "ATP", "Glucose"},
					CorrectIndex: 1,
				},
			},
		},
	}
}

func sampleMaterials() []domain.Material {
	now := time.Now()
	return []domain.Material{
		{
			ID:          "mat-algebra-1",
			Title:       "Solving Linear Equations",
			SubjectType: domain.SubjectCore,
			SubjectName: "Mathematics",
			Content:     "Step-by-step notes on isolating variables and checking solutions.",
			CreatedAt:   now,
		},
		{
			ID:          "mat-bio-1",
			Title:       "Cell Structure Overview",
			SubjectType: domain.SubjectElective,
			SubjectName: "Biology",
			Content:     "Diagrams and descriptions of organelles and their functions.",
			CreatedAt:   now,
		},
	}
}
