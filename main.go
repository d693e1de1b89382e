package main

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"victoweb/api"
	"victoweb/config"
	"victoweb/domain"
	"victoweb/hub"
	"victoweb/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	base, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	var rc *redis.Client
	if cfg.RedisConn != "" {
		rc = redis.NewClient(redisOptions(cfg.RedisConn))
	}
	store := storage.NewCache(base, rc, cfg.CacheTTL)

	if err := seedAdmin(context.Background(), base, cfg); err != nil {
		log.Fatalf("seed: %v", err)
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	logger := log.New()
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	auth := api.NewAuth(store, cfg.SessionSecret, cfg.SessionTTL)
	api.Register(e, store, hub.New(), auth, logger, api.Options{
		HeartbeatInterval: cfg.StreamHeartbeat,
	})

	e.Logger.Fatal(e.Start(cfg.ListenAddr))
}

// redisOptions accepts a redis URL or an Azure-style "host:port,k=v" string.
func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

// seedAdmin bootstraps a staff account when the users table is empty, so a
// fresh deployment has someone who can reach the admin hub.
func seedAdmin(ctx context.Context, store *storage.Store, cfg *config.Config) error {
	count, err := store.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.AdminPassword == "" {
		log.Warn("users table is empty and ADMIN_PASSWORD is unset; skipping bootstrap account")
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user, err := store.CreateUser(ctx, domain.User{
		Username:     cfg.AdminUsername,
		FullName:     "Portal Administrator",
		AdminRole:    domain.RoleDevAdmin,
		IsStaff:      true,
		PasswordHash: string(hash),
	})
	if err != nil {
		return err
	}
	log.WithField("username", user.Username).Info("bootstrap admin account created")
	return nil
}
