package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SafeHerAPI/internal/alert"
	"SafeHerAPI/internal/config"
	"SafeHerAPI/internal/database"
	"SafeHerAPI/internal/detect"
	"SafeHerAPI/internal/handler"
	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/mqtt"
	"SafeHerAPI/internal/repository"
	"SafeHerAPI/internal/server"
	"SafeHerAPI/internal/service"
	"SafeHerAPI/internal/websocket"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		// Fallback logger since main logger isn't ready
		panic("Failed to load configuration: " + err.Error())
	}

	// 2. Initialize Logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Mode:        cfg.Logging.Mode,
		LogFilePath: cfg.Logging.FilePath,
		UseColors:   cfg.Logging.UseColors,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration validation failed: %v", err)
	}

	cfg.Print()
	log.Info("Starting SafeHer API Server")

	// 3. Database Connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Info("Database connected successfully")

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	if err := db.Health(runCtx); err != nil {
		log.Fatal("Database health check failed: %v", err)
	}

	// 4. Initialize Repositories
	contactRepo := repository.NewContactRepository(db.DB)
	alertRepo := repository.NewAlertRepository(db.DB)
	reportRepo := repository.NewReportRepository(db.DB)
	zoneRepo := repository.NewZoneRepository(db.DB)
	locationRepo := repository.NewLocationRepository(db.DB)
	settingsRepo := repository.NewSettingsRepository(db.DB)

	// 5. WebSocket Hub
	hub := websocket.NewHub(log)
	go hub.Run(runCtx)

	// 6. Initialize MQTT Client
	mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
		MQTT:   &cfg.MQTT,
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create MQTT client: %v", err)
	}
	defer func(mqttClient *mqtt.Client) {
		err := mqttClient.Disconnect()
		if err != nil {
			log.Error("Failed to disconnect MQTT: %v", err)
		}
	}(mqttClient)

	if err := mqttClient.Connect(); err != nil {
		log.Fatal("Failed to connect to MQTT broker: %v", err)
	}

	// 7. Detection and alert pipeline
	analyzer := detect.NewAnalyzer(cfg.Safety.ScreamTokens)

	session := alert.NewSession(alert.SessionConfig{
		SafeResetDelay:    5 * time.Second,
		SentDisplayWindow: 3 * time.Second,
		CancelClearDelay:  3 * time.Second,
		TriggerCooldown:   cfg.Safety.CooldownWindow,
	}, log, func(snap alert.Snapshot) {
		hub.Broadcast(websocket.TypeSession, snap)
		// Devices mirror the session too, so a companion device knows
		// an alert is pending or sent.
		err := mqttClient.BroadcastCommand(mqtt.Command{
			Type:    mqtt.CommandSessionSync,
			Payload: map[string]interface{}{"state": snap.State},
		})
		if err != nil {
			log.Debug("Session sync broadcast failed: %v", err)
		}
	})

	voiceStream := service.NewVoiceStream(mqttClient, log)

	// The listener's fragment callback is wired after the safety
	// service exists; both need each other.
	var safetyService *service.SafetyService
	listener := detect.NewListener(voiceStream, settingsRepo, detect.ListenerConfig{
		EndBackoff:   cfg.Safety.EndRestartBackoff,
		ErrorBackoff: cfg.Safety.ErrorRestartBackoff,
		Cooldown:     cfg.Safety.CooldownWindow,
	}, log, func(text string) {
		if safetyService != nil {
			safetyService.HandleFragment(text)
		}
	})

	locationService := service.NewLocationService(locationRepo, hub, log)
	geocoder := service.NewNominatimGeocoder(cfg.Safety.GeocoderBaseURL, log)
	opener := service.NewHubLinkOpener(hub, log)
	recorder := service.NewBroadcastRecorder(alertRepo, hub)

	dispatcher := alert.NewDispatcher(locationService, geocoder, opener, contactRepo, recorder, alert.DispatcherConfig{
		PositionTimeout:    cfg.Safety.PositionTimeout,
		EmergencyNumbers:   cfg.Safety.EmergencyNumbers,
		CountryCallingCode: cfg.Safety.CountryCallingCode,
		MapsBaseURL:        cfg.Safety.MapsBaseURL,
	}, log)

	safetyService = service.NewSafetyService(analyzer, listener, session, dispatcher, voiceStream, cfg.Safety.ThreatThreshold, log)

	// 8. Remaining services
	contactService := service.NewContactService(contactRepo, hub, log)
	reportService := service.NewReportService(reportRepo, hub, log)
	zoneService := service.NewZoneService(zoneRepo, hub, log)
	settingsService := service.NewSettingsService(settingsRepo, contactRepo, reportRepo, zoneRepo, locationRepo, alertRepo, safetyService, mqttClient, log)
	exportService := service.NewExportService(alertRepo, log)

	// 9. MQTT Subscriptions
	if err := mqttClient.Subscribe(cfg.MQTT.TranscriptTopic, safetyService.HandleTranscript); err != nil {
		log.Fatal("Failed to subscribe to transcript topic: %v", err)
	}
	if err := mqttClient.Subscribe(cfg.MQTT.VoiceTopic, safetyService.HandleVoiceStatus); err != nil {
		log.Fatal("Failed to subscribe to voice status topic: %v", err)
	}
	if err := mqttClient.Subscribe(cfg.MQTT.LocationTopic, locationService.HandleLocation); err != nil {
		log.Fatal("Failed to subscribe to location topic: %v", err)
	}

	log.Info("MQTT subscriptions active")

	// 10. Voice detection honors the persisted opt-out.
	if err := safetyService.StartVoiceDetection(runCtx); err != nil {
		switch {
		case errors.Is(err, detect.ErrDetectionDisabled):
			log.Info("Voice detection disabled by user preference")
		case errors.Is(err, detect.ErrUnsupported):
			log.Warn("Voice detection unavailable: %v", err)
		default:
			log.Error("Voice detection failed to start: %v", err)
		}
	}

	// 11. Initialize Handlers
	sosHandler := handler.NewSOSHandler(safetyService, log)
	contactHandler := handler.NewContactHandler(contactService, log)
	reportHandler := handler.NewReportHandler(reportService, log)
	zoneHandler := handler.NewZoneHandler(zoneService, log)
	alertHandler := handler.NewAlertHandler(alertRepo, exportService, log)
	locationHandler := handler.NewLocationHandler(locationService, log)
	settingsHandler := handler.NewSettingsHandler(settingsService, log)
	healthHandler := handler.NewHealthHandler(db, mqttClient, log)

	// 12. Start HTTP Server
	srv := server.New(cfg, log)
	srv.RegisterHandlers(sosHandler, contactHandler, reportHandler, zoneHandler, alertHandler, locationHandler, settingsHandler, healthHandler, hub)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("Server failed: %v", err)
		}
	}()

	log.Info("API server ready on http://%s:%d", cfg.Server.Host, cfg.Server.Port)

	// 13. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("Shutdown signal received")

	listener.Stop()
	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error: %v", err)
	}

	log.Info("Shutdown complete")
}
