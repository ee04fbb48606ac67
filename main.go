package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"trail-inspect/api"
	"trail-inspect/config"
	"trail-inspect/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config error: ", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongodb := storage.NewMongoInspectionDB(logger)
	if err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB); err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongodb.Close(context.Background())

	localStorage := &storage.LocalPhotoStorage{
		Directory: cfg.UploadDir,
		BaseURL:   "/uploads",
		Log:       logger,
	}

	handlers := &api.InspectionHandlers{
		Storage:     localStorage,
		Db:          mongodb,
		Log:         logger,
		SecretKey:   cfg.SecretKey,
		AdminPWHash: cfg.AdminPWHash,
	}

	router := handlers.Routes()
	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
