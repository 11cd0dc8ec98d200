package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/boltayevjahongir/local-chat/internal/config"
	"github.com/boltayevjahongir/local-chat/internal/metrics"
	"github.com/boltayevjahongir/local-chat/internal/mw"
	"github.com/boltayevjahongir/local-chat/internal/ws"
)

// SetupRouter 统一初始化 Gin 中间件、运维端点与 WebSocket 接入点。
func SetupRouter(cfg config.Config, reg *ws.Registry, store ws.Store, authFn ws.Authenticator) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	// 限制单个 IP 的握手频率，局域网环境也挡住失控客户端。
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 当前在线用户快照，供客户端初始渲染在线列表。
	r.GET("/api/v1/online", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_ids": reg.OnlineUserIDs()})
	})

	r.GET("/ws", ws.Serve(reg, store, authFn, cfg))
	return r
}
