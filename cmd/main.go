package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gradebook/internal/config"
	"gradebook/internal/database"
	"gradebook/internal/handler"
	"gradebook/internal/service"
)

func main() {
	logger := log.New(os.Stdout, "GRADEBOOK : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		logger.Fatalf("loading config: %v", err)
	}

	// Initialize database
	db, err := database.Open(conf.Database, conf.LogLevel)
	if err != nil {
		logger.Fatalf("opening database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatalf("database handle: %v", err)
	}
	defer sqlDB.Close()

	// Initialize services
	recordService := service.NewRecordService(db)
	importService := service.NewImportService(db, logger)

	// Create uploads directory
	if err := os.MkdirAll(conf.UploadDir, os.ModePerm); err != nil {
		logger.Fatalf("creating uploads directory: %v", err)
	}

	router := handler.NewRouter(handler.Options{
		Records:        recordService,
		Imports:        importService,
		UploadDir:      conf.UploadDir,
		AllowedOrigins: conf.AllowedOrigins,
		Logger:         logger,
		AccessLog:      os.Stdout,
	})

	// cancelled on shutdown so open SSE streams return
	baseCtx, stopStreams := context.WithCancel(context.Background())
	server := &http.Server{
		Addr:         conf.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(stopStreams)

	go func() {
		logger.Printf("Server running on %s (db: %s)", conf.Addr, conf.Database.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
	logger.Println("Server stopped.")
}
