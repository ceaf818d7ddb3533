package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"golang.org/x/sync/errgroup"

	"mamamind/internal/whatsapp"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(LoggerMiddleware)

	e.POST("/webhook", s.webhookHandler)
	e.GET("/health", s.healthHandler)
	e.GET("/status", s.statusHandler)

	return e
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}

// requestLogger returns the request-scoped logger set by LoggerMiddleware.
func requestLogger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get("logger").(*zerolog.Logger); ok {
		return logger
	}
	return &log.Logger
}

/* ====================================================================
                   		Webhook Handler
==================================================================== */

// webhookHandler receives inbound WhatsApp messages from Twilio. With live
// Twilio credentials the reply chunks go out through the REST API so each
// chunk arrives as its own message; without credentials they are returned
// inline as TwiML, which is what the Twilio sandbox and local curl expect.
func (s *Server) webhookHandler(c echo.Context) error {
	logger := requestLogger(c)
	ctx := c.Request().Context()

	inbound, err := whatsapp.ParseInbound(c.Request())
	if err != nil {
		logger.Warn().Err(err).Msg("rejected malformed webhook payload")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	replies := s.engine.HandleMessage(ctx, logger, inbound.From, inbound.Body)

	if !s.sender.Debug() {
		for _, chunk := range replies {
			if err := s.sender.SendMessage(ctx, inbound.From, chunk); err != nil {
				logger.Error().Err(err).Str("to", inbound.From).Msg("failed to send outbound message")
			}
		}
		return c.XMLBlob(http.StatusOK, []byte(whatsapp.TwiML(nil)))
	}

	return c.XMLBlob(http.StatusOK, []byte(whatsapp.TwiML(replies)))
}

/* ====================================================================
                   		Health & Status Handlers
==================================================================== */

func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.db.Health())
}

// statusHandler reports service statistics alongside host metrics. The
// database counters are gathered in parallel.
func (s *Server) statusHandler(c echo.Context) error {
	ctx := c.Request().Context()
	logger := requestLogger(c)

	var totalUsers, totalPlans int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totalUsers, err = s.db.Queries().CountUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		totalPlans, err = s.db.Queries().CountPlans(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to gather service statistics")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "statistics unavailable"})
	}

	// Host metrics, same shape the ops dashboard scrapes.
	v, _ := mem.VirtualMemory()
	cpuPercent, _ := cpu.Percent(time.Second, false)
	d, _ := disk.Usage("/")
	hInfo, _ := host.Info()

	cpuUsage := "n/a"
	if len(cpuPercent) > 0 {
		cpuUsage = fmt.Sprintf("%.2f%%", cpuPercent[0])
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "online",
		"service": map[string]interface{}{
			"total_users": totalUsers,
			"total_plans": totalPlans,
			"database":    s.db.Health(),
		},
		"runtime": map[string]interface{}{
			"uptime":     time.Since(startTime).String(),
			"start_time": startTime.Format(time.RFC3339),
			"os":         hInfo.OS,
			"platform":   hInfo.Platform,
			"hostname":   hInfo.Hostname,
		},
		"cpu": map[string]interface{}{
			"usage_percent": cpuUsage,
			"cores":         hInfo.Procs,
		},
		"memory": map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
		},
		"disk": map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(d.Total)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", d.UsedPercent),
		},
	})
}
