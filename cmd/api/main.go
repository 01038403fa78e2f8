package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hireloop/interview-backend-go/internal/config"
	appHTTP "github.com/hireloop/interview-backend-go/internal/handler/http"
	"github.com/hireloop/interview-backend-go/internal/handler/ws"
	"github.com/hireloop/interview-backend-go/internal/pkg/cron"
	"github.com/hireloop/interview-backend-go/internal/pkg/database"
	"github.com/hireloop/interview-backend-go/internal/pkg/email"
	"github.com/hireloop/interview-backend-go/internal/repository/postgresql"
	sessionService "github.com/hireloop/interview-backend-go/internal/service/session"
	"github.com/hireloop/interview-backend-go/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	if err := database.Migrate(cfg.DatabaseURL(), migrations.FS); err != nil {
		log.Fatal("Failed to apply migrations: ", err)
	}

	db, err := database.NewPostgreSQLDB(cfg.Database)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	sessionRepo := postgresql.NewSessionRepository(db)
	invitationRepo := postgresql.NewInvitationRepository(db)
	interviewRepo := postgresql.NewInterviewRepository(db)
	txManager := postgresql.NewTransactionManager(db)

	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email service: ", err)
	}

	sessionSvc := sessionService.NewSessionService(
		sessionRepo,
		invitationRepo,
		interviewRepo,
		txManager,
		emailService,
		cfg.App.JoinBaseURL,
	)

	// Periodic lifecycle evaluators
	scheduler := cron.NewScheduler()
	sessionJobs := cron.NewSessionJobs(sessionSvc)
	sessionJobs.RegisterJobs(scheduler)
	scheduler.Start()

	sessionHandler := appHTTP.NewSessionHandler(sessionSvc)
	liveHandler := ws.NewLiveHandler(sessionSvc, cfg.App.FrontendURL)

	router := appHTTP.NewRouter(sessionHandler, liveHandler, cfg.App.FrontendURL, cfg.App.Env)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error: ", err)
		}
	}()

	// Graceful shutdown: stop the evaluators first so no tick is cut off
	// mid-record, then drain the HTTP server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Println("Server shutdown error:", err)
	}

	db.Close()
}
