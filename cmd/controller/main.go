package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/open-teleop/swerve/domain/diagnostic"
	"github.com/open-teleop/swerve/domain/teleop"
	"github.com/open-teleop/swerve/pkg/api"
	"github.com/open-teleop/swerve/pkg/config"
	"github.com/open-teleop/swerve/pkg/hardware"
	customlog "github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/pkg/robot"
	"github.com/open-teleop/swerve/pkg/telemetry"
	"github.com/open-teleop/swerve/pkg/vision"
	"github.com/open-teleop/swerve/pkg/zeromq"
	"github.com/open-teleop/swerve/services"
)

func main() {
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "./config"
	}

	// No logger exists until the bootstrap config is read
	bootstrapCfg, err := config.LoadBootstrapConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load bootstrap config from %s: %v", configDir, err)
	}

	logger, err := customlog.NewLogrusLogger(bootstrapCfg.Logging.Level, bootstrapCfg.Logging.LogPath)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Infof("Swerve controller starting (config dir %s)", configDir)

	robotCfgPath := bootstrapCfg.RobotConfigPath()
	robotCfg, err := config.LoadRobotConfig(robotCfgPath)
	if err != nil {
		logger.Fatalf("Failed to load robot config: %v", err)
	}
	configService, err := services.NewRobotConfigService(robotCfgPath, robotCfg, logger.WithField("component", "config"))
	if err != nil {
		logger.Fatalf("Failed to create config service: %v", err)
	}

	registry := hardware.NewRegistry()
	hw, err := registry.New(robotCfg)
	if err != nil {
		logger.Fatalf("Failed to build hardware (variants: %v): %v", registry.Variants(), err)
	}

	zmqService, err := zeromq.NewZeroMQService(bootstrapCfg.ZeroMQ, logger)
	if err != nil {
		logger.Fatalf("Failed to create ZeroMQ service: %v", err)
	}

	camera := vision.NewLatestFrameCamera(robotCfg.Vision.CameraName)
	var frameListener *zeromq.FrameListener
	if bootstrapCfg.ZeroMQ.VisionConnectAddress != "" {
		frameListener, err = zeromq.NewFrameListener(zmqService.Context(), bootstrapCfg.ZeroMQ, camera, logger.WithField("component", "frames"))
		if err != nil {
			logger.Fatalf("Failed to create frame listener: %v", err)
		}
	} else {
		logger.Warnf("zeromq.vision_connect_address not set, vision fusion will see no frames")
	}

	publisher := telemetry.NewPublisher(
		bootstrapCfg.Telemetry.Topic,
		bootstrapCfg.Telemetry.Workers,
		bootstrapCfg.Telemetry.QueueSize,
		zmqService,
		logger,
	)

	bot, err := robot.New(robotCfg, hw, robot.Options{
		Camera: camera,
		Sink:   publisher,
		RunID:  publisher.RunID().String(),
	}, logger.WithField("component", "robot"))
	if err != nil {
		logger.Fatalf("Failed to create robot: %v", err)
	}

	zeromq.RegisterHandlers(zmqService, configService, bot, logger)
	if err := zmqService.Start(); err != nil {
		logger.Fatalf("Failed to start ZeroMQ service: %v", err)
	}
	publisher.Start()
	if frameListener != nil {
		frameListener.Start()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	period := time.Duration(robotCfg.Platform.TickPeriodMs) * time.Millisecond
	loopDone := runControlLoop(ctx, bot, period, logger)

	var frames diagnostic.FrameStats
	if frameListener != nil {
		frames = frameListener
	}
	diagnosticService := diagnostic.NewDiagnosticService(bot, frames, publisher, period)
	teleopService := teleop.NewTeleopService(bot, logger)

	app := fiber.New(fiber.Config{
		AppName:               "Swerve Controller",
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "online",
			"service":  "swerve controller",
			"robot_id": robotCfg.RobotID,
			"run_id":   publisher.RunID().String(),
		})
	})
	app.Get("/health", diagnosticService.HealthHandler)
	app.Get("/api/v1/status", diagnosticService.GetStatusHandler)
	app.Post("/api/teleop/command", teleopService.CommandHandler)
	api.RegisterConfigRoutes(app, configService, logger)
	api.RegisterModeRoutes(app, bot, logger)
	api.RegisterControlRoutes(app, logger, teleopService)

	go func() {
		addr := fmt.Sprintf(":%d", bootstrapCfg.Server.HTTPPort)
		logger.Infof("HTTP server starting on %s", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	<-loopDone
	// The loop has exited, so the drive can be touched from here
	bot.Drive().Stop()

	if frameListener != nil {
		frameListener.Stop()
	}
	publisher.Stop()
	zmqService.Stop()

	logger.Infof("Controller exited properly")
}

// runControlLoop calls Tick once per period until ctx is cancelled.
func runControlLoop(ctx context.Context, bot *robot.Robot, period time.Duration, logger customlog.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		logger.Infof("Control loop running every %v", period)
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				bot.Tick(now)
				if elapsed := time.Since(now); elapsed > period {
					logger.Warnf("Control loop overrun: tick took %v, period %v", elapsed, period)
				}
			}
		}
	}()
	return done
}

// Custom error handler
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
