// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/voxbridgeai/api/call-api/config"
	internal_callrecord "github.com/voxbridgeai/api/call-api/internal/callrecord"
	internal_crm "github.com/voxbridgeai/api/call-api/internal/crm"
	internal_dispatch "github.com/voxbridgeai/api/call-api/internal/dispatch"
	internal_session "github.com/voxbridgeai/api/call-api/internal/session"
	internal_speech_openai "github.com/voxbridgeai/api/call-api/internal/speech/openai"
	internal_transcript "github.com/voxbridgeai/api/call-api/internal/transcript"
	internal_twilio_telephony "github.com/voxbridgeai/api/call-api/internal/telephony/twilio"
	call_routers "github.com/voxbridgeai/api/call-api/router"
	"github.com/voxbridgeai/pkg/commons"
	"github.com/voxbridgeai/pkg/connectors"
	"github.com/voxbridgeai/pkg/utils"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("failed to init config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("failed to load application config: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	postgres, err := connectors.NewPostgresConnector(cfg.PostgresConfig, logger)
	if err != nil {
		logger.Errorf("postgres unavailable: %v", err)
		os.Exit(1)
	}
	defer postgres.Close()

	redisConn, err := connectors.NewRedisConnector(cfg.RedisConfig, logger)
	if err != nil {
		logger.Errorf("redis unavailable: %v", err)
		os.Exit(1)
	}
	defer redisConn.Close()

	if err := postgres.DB(context.Background()).AutoMigrate(
		&internal_callrecord.CallRecord{},
		&internal_transcript.TurnRecord{},
	); err != nil {
		logger.Errorf("migration failed: %v", err)
		os.Exit(1)
	}

	transcripts := internal_transcript.NewStore(postgres, logger)
	records := internal_callrecord.NewStore(postgres, logger)
	manager := internal_session.NewManager(logger, transcripts)

	telephony, err := internal_twilio_telephony.NewTwilio(logger, internal_twilio_telephony.Credential{
		AccountSid: cfg.TwilioAccountSid,
		AuthToken:  cfg.TwilioAuthToken,
		FromNumber: cfg.TwilioFromNumber,
	})
	if err != nil {
		logger.Errorf("telephony setup failed: %v", err)
		os.Exit(1)
	}

	transcriber := internal_speech_openai.NewTranscriber(logger,
		internal_speech_openai.DefaultApiHost, cfg.OpenaiApiKey)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// CRM sync and outbound dispatch run only when a CRM is configured.
	if cfg.CrmHost != "" {
		crmClient := internal_crm.NewClient(logger, cfg.CrmHost, cfg.CrmApiKey)
		queue := internal_dispatch.NewQueue(redisConn, logger)
		syncer := internal_crm.NewSyncer(logger, crmClient, queue,
			time.Duration(cfg.CrmSyncIntervalSec)*time.Second)
		worker := internal_dispatch.NewWorker(logger, queue, telephony, records, crmClient,
			internal_dispatch.WebhookURLs{
				Voice:     fmt.Sprintf("https://%s/v1/call/twilio/voice", cfg.PublicHost),
				Status:    fmt.Sprintf("https://%s/v1/call/twilio/status", cfg.PublicHost),
				Recording: fmt.Sprintf("https://%s/v1/call/twilio/recording", cfg.PublicHost),
			}, cfg.TwilioFromNumber)

		go syncer.Run(rootCtx)
		go worker.Run(rootCtx)
	}

	if utils.FromEnvironmentStr(cfg.Environment) == utils.PRODUCTION {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	call_routers.HealthCheckRoute(cfg, engine)
	call_routers.CallApiRoute(cfg, engine, logger, manager, transcripts, records, telephony, transcriber)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: engine,
	}

	go func() {
		logger.Infof("call-api listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("server failed: %v", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown failed: %v", err)
	}

	// Flush in-flight transcript sessions before the process exits; anything
	// that cannot be committed stays recoverable by callId.
	manager.Teardown(shutdownCtx)
}
