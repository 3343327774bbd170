package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "github.com/marula-ai/marula/internal/server/middleware"
	"github.com/marula-ai/marula/internal/util"
	"github.com/marula-ai/marula/pkg/graph"
	"github.com/marula-ai/marula/pkg/llm"
	"github.com/marula-ai/marula/pkg/logger"
	"github.com/marula-ai/marula/pkg/query"
	storepgx "github.com/marula-ai/marula/pkg/store/pgx"

	"github.com/go-playground/validator"
	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	oai "github.com/marula-ai/marula/pkg/ai/ollama"
	gai "github.com/marula-ai/marula/pkg/ai/openai"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	runMigrations(databaseURL)

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		logger.Fatal("Failed to parse database config", "err", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	conn, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	chatClient := gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
		ChatModel: util.GetEnvString("LLM_MODEL", "gpt-3.5-turbo"),
		ChatURL:   util.GetEnvString("OPENAI_API_BASE", "https://api.openai.com/v1"),
		ChatKey:   util.GetEnv("OPENAI_API_KEY"),

		MaxConcurrentRequests: int64(util.GetEnvInt("AI_PARALLEL_REQ", 8)),
	})

	embedClient, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
		EmbeddingModel: util.GetEnvString("EMBEDDING_MODEL", "bge"),
		BaseURL:        util.GetEnvString("OLLAMA_API", "http://localhost:11434"),
		ApiKey:         util.GetEnv("OLLAMA_API_KEY"),

		MaxConcurrentRequests: int64(util.GetEnvInt("AI_PARALLEL_REQ", 8)),
	})
	if err != nil {
		logger.Fatal("Failed to create embedding client", "err", err)
	}

	embedder := llm.NewEmbedder(llm.NewEmbedderParams{
		Client:    embedClient,
		Dimension: util.GetEnvInt("AI_EMBED_DIM", 768),
	})
	extractor := llm.NewExtractor(llm.NewExtractorParams{
		Client: chatClient,
	})

	storage := storepgx.NewGraphDBStorageWithConnection(conn)

	chunker := graph.Chunker{
		Strategy:     graph.Strategy(util.GetEnvString("CHUNK_STRATEGY", "separator")),
		Separator:    util.GetEnvString("CHUNK_SEPARATOR", "\n\n"),
		MaxChunkSize: util.GetEnvInt("MAX_CHUNK_SIZE", 500),
		WindowSize:   util.GetEnvInt("CHUNK_WINDOW_SIZE", 12),
		StepSize:     util.GetEnvInt("CHUNK_STEP_SIZE", 10),
		TokenEncoder: util.GetEnvString("CHUNK_TOKEN_ENCODER", "o200k_base"),
		MaxTokens:    util.GetEnvInt("MAX_CHUNK_TOKENS", 500),
	}

	processor := graph.NewProcessor(graph.NewProcessorParams{
		Embedder:  embedder,
		Extractor: extractor,
		Storage:   storage,
		Chunker:   chunker,

		ParallelChunks:    util.GetEnvInt("PARALLEL_CHUNKS", 4),
		ExtractRelations:  util.GetEnvBool("RELATION_EXTRACTION", false),
		VersionOnReupload: util.GetEnvBool("VERSION_ON_REUPLOAD", true),
	})

	engine := query.NewEngine(query.NewEngineParams{
		Embedder:  embedder,
		Extractor: extractor,
		Storage:   storage,
		TopK:      util.GetEnvInt("QUERY_TOP_K", 1),
	})

	uploadDir := util.GetEnvString("UPLOAD_DIR", "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		logger.Fatal("Failed to create upload directory", "dir", uploadDir, "err", err)
	}

	app := &mid.App{
		DBConn:    conn,
		Storage:   storage,
		Processor: processor,
		Engine:    engine,
		AiClient:  chatClient,
		UploadDir: uploadDir,
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("32M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

func runMigrations(databaseURL string) {
	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize migrations", "err", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to apply migrations", "err", err)
	}
	logger.Info("Database schema up to date")
}
