package main

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/boltayevjahongir/local-chat/internal/auth"
	"github.com/boltayevjahongir/local-chat/internal/config"
	"github.com/boltayevjahongir/local-chat/internal/db"
	clog "github.com/boltayevjahongir/local-chat/internal/log"
	"github.com/boltayevjahongir/local-chat/internal/server"
	"github.com/boltayevjahongir/local-chat/internal/store"
	"github.com/boltayevjahongir/local-chat/internal/ws"
)

func main() {
	// main 负责加载配置、初始化日志、连接数据库并启动 Gin 服务。
	cfg := config.Load()
	clog.Init(cfg.Env)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validate")
	}

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	if err := db.SeedGlobalGroup(gdb); err != nil {
		log.Fatal().Err(err).Msg("db seed global group")
	}

	reg := ws.NewRegistry()
	st := store.New(gdb)
	authFn := func(token string) (uuid.UUID, error) {
		return auth.ParseAccessToken(token, cfg.JWTSecret)
	}

	r := server.SetupRouter(cfg, reg, st, authFn)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
