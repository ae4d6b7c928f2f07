package main

import (
	"log"
	"time"

	"gymcheckin/config"
	"gymcheckin/constants"
	"gymcheckin/controllers"
	"gymcheckin/jobs"
	"gymcheckin/routes"
	"gymcheckin/services"
	"gymcheckin/services/attendance"
	"gymcheckin/services/logger"
	"gymcheckin/services/membership"
	"gymcheckin/services/notification"
	"gymcheckin/services/qrtoken"
	"gymcheckin/utils"
)

func main() {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logOut, logFile, err := utils.LogWriter(cfg.LogDir, time.Now())
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()
	appLogger := logger.New(log.New(logOut, "", log.LstdFlags), logger.ParseLevel(cfg.LogLevel))

	router, m, c, err := config.InitApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Failed to load timezone: %v", err)
	}

	codec, err := qrtoken.NewCodec([]byte(cfg.CheckinSecret),
		qrtoken.WithMaxAge(cfg.CheckinMaxAge),
		qrtoken.WithClockSkew(cfg.CheckinClockSkew),
	)
	if err != nil {
		log.Fatalf("Failed to build check-in codec: %v", err)
	}
	sessionTokens, err := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatalf("Failed to build session tokens: %v", err)
	}

	validator := membership.NewValidator(membership.ValidatorOptions{
		DB:       config.DB,
		Location: loc,
		Logger:   appLogger,
	})
	members := membership.NewCachedValidator(validator, membership.CacheOptions{
		Redis:  config.RedisClient,
		TTL:    cfg.MembershipCacheTTL,
		Logger: appLogger,
	})
	ledger := attendance.NewLedger(attendance.LedgerOptions{
		DB:       config.DB,
		Location: loc,
		Logger:   appLogger,
	})
	feed := notification.NewMelodyService(m, constants.RoleAdmin, constants.RoleStaff)

	scans := services.NewCheckInService(services.CheckInServiceOptions{
		Tokens:    codec,
		Members:   members,
		Ledger:    ledger,
		Publisher: feed,
		Location:  loc,
		Logger:    appLogger,
	})
	memberTokens := services.NewCheckInTokenService(services.CheckInTokenServiceOptions{
		Codec:   codec,
		Members: members,
		Logger:  appLogger,
	})
	auth := services.NewAuthService(services.AuthServiceOptions{
		DB:     config.DB,
		Tokens: sessionTokens,
		Logger: appLogger,
	})

	closer := jobs.NewAutoCloser(ledger, time.Now, appLogger)
	if err := jobs.InitCronJobs(c, cfg.AutoCloseSchedule, closer, appLogger); err != nil {
		log.Fatalf("Failed to initialize cron jobs: %v", err)
	}
	defer c.Stop()

	routes.SetupRoutes(router, sessionTokens, routes.Controllers{
		Auth: controllers.NewAuthController(auth),
		CheckIn: controllers.NewCheckInController(controllers.CheckInControllerOptions{
			Scans:    scans,
			Ledger:   ledger,
			Tokens:   memberTokens,
			Location: loc,
			Logger:   appLogger,
		}),
		LiveFeed: controllers.NewLiveFeedController(m, appLogger),
	})

	log.Println("Server starting on port " + cfg.Port + "...")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
