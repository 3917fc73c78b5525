package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"denticare/config"
	"denticare/cron"
	"denticare/database"
	appointmentRepo "denticare/database/repository/appointment"
	errorlogRepo "denticare/database/repository/errorlog"
	"denticare/handlers"
	"denticare/routes"
	"denticare/services/annealing"
	"denticare/services/booking"
	"denticare/services/conversation"
	ai "denticare/services/intelligence"
	"denticare/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())

	// repositories.
	apptRepo := appointmentRepo.NewMongoAppointmentRepo()
	if err := apptRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure appointment indexes: %v", err)
	}
	errRepo := errorlogRepo.NewMongoErrorLogRepo()
	if err := errRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure error log indexes: %v", err)
	}

	// services.
	retention := time.Duration(config.AppConfig.SessionRetentionHours) * time.Hour
	sessionStore := conversation.NewRedisSessionStore(utils.GetSessionCacheClient(), retention)
	sessionService := conversation.NewService(sessionStore, time.Local)

	calendar := booking.NewSlotCalendar(config.AppConfig.Providers, apptRepo)
	bookingStore := booking.NewStore(apptRepo)
	recorder := annealing.NewRecorder(errRepo)

	orchestrator := booking.NewOrchestrator(
		sessionService,
		calendar,
		bookingStore,
		recorder,
		config.AppConfig.DefaultProviderID,
		config.AppConfig.AppointmentDurationMinutes,
		time.Local,
	)

	analyzer := annealing.NewAnalyzer(
		errRepo,
		config.AppConfig.AnnealingMinOccurrences,
		time.Duration(config.AppConfig.AnnealingWindowDays)*24*time.Hour,
	)
	monitor := annealing.NewHealthMonitor(apptRepo, errRepo, sessionService, analyzer)
	monitor.StartRefresh(context.Background(), time.Minute)

	aiSvc, err := ai.NewGeminiService(config.AppConfig.GeminiAPIKey)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize AI service: %v", err)
	}

	// handlers.
	chatHandler := handlers.NewChatHandler(aiSvc, orchestrator, recorder, config.AppConfig.IntentConfidenceFloor)
	voiceHandler := handlers.NewVoiceHandler(chatHandler)
	bookingHandler := handlers.NewBookingHandler(
		bookingStore,
		calendar,
		config.AppConfig.DefaultProviderID,
		config.AppConfig.AppointmentDurationMinutes,
		time.Local,
	)
	diagnosticsHandler := handlers.NewDiagnosticsHandler(monitor, analyzer)

	handlerBundle := &handlers.HandlerBundle{
		ChatHandler:        chatHandler.HandleChat,
		ChatConfirmHandler: chatHandler.HandleConfirm,
		VoiceHandler:       voiceHandler.HandleVoice,

		ListBookingsHandler: bookingHandler.ListBookings,
		AvailabilityHandler: bookingHandler.Availability,

		HealthHandler:      diagnosticsHandler.Health,
		AnnealingHandler:   diagnosticsHandler.Analyze,
		DiagnosticsHandler: diagnosticsHandler.Diagnostics,
	}

	routes.SetupRoutes(router, handlerBundle, config.AppConfig.MaxRequestsPerMin)

	// Start the background maintenance worker.
	cron.InitMaintenanceWorker(analyzer, sessionService)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting %s scheduling server on %s...", config.AppConfig.ClinicName, srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
