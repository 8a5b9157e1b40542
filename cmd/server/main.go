package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "student-import-service/docs"
	"student-import-service/internal/cleanup"
	"student-import-service/internal/config"
	"student-import-service/internal/database"
	"student-import-service/internal/handlers"
	"student-import-service/internal/repository"
	"student-import-service/internal/storage"
	"student-import-service/internal/worker"
)

// @title Student Import Service API
// @version 1.0
// @description Asynchronous bulk import of student enrollment records from CSV uploads.
// @BasePath /api/v1
func main() {
	// Load .env file if present; real environments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := config.Load()

	database.ConnectDatabase()
	db := database.GetDB()

	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize upload store: %v", err)
	}

	router := gin.Default()

	v1 := router.Group("/api/v1")
	handlers.NewStudentHandler(store).RegisterRoutes(v1)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Background import workers consuming the job queue.
	jobs := repository.NewJobRepository(db)
	students := repository.NewStudentRepository(db)
	pool := worker.NewPool(jobs, students, store, worker.Config{
		Workers:      cfg.WorkerCount,
		PollInterval: cfg.WorkerPollInterval,
	})
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	pool.Start(workerCtx)

	// Janitor sweeping uploaded files of finished jobs.
	janitor := cleanup.NewJanitor(db, store, cfg.CleanupRetention)
	if err := janitor.Start(cfg.CleanupSchedule); err != nil {
		log.Fatalf("Failed to start cleanup janitor: %v", err)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Student import service listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	stopWorkers()
	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
