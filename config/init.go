package config

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	"github.com/robfig/cron/v3"
)

func InitApp(cfg *Config) (*gin.Engine, *melody.Melody, *cron.Cron, error) {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	configCors := cors.DefaultConfig()
	configCors.AddAllowHeaders("Authorization", "X-Request-ID")
	configCors.AllowCredentials = true
	configCors.AllowAllOrigins = false
	configCors.AllowOriginFunc = func(origin string) bool {
		return true
	}
	router.Use(cors.New(configCors))

	router.SetTrustedProxies(nil)

	if err := initComponents(cfg); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	m := melody.New()

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, nil, err
	}
	c := cron.New(cron.WithLocation(loc))

	return router, m, c, nil
}

func initComponents(cfg *Config) error {
	var err error
	DB, err = ConnectDB(cfg)
	if err != nil {
		return err
	}

	RedisClient = ConnectRedis(cfg)

	log.Println("All components initialized successfully")
	return nil
}
