package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shinyyama/bargain-backend/internal/config"
	"github.com/shinyyama/bargain-backend/internal/events"
	"github.com/shinyyama/bargain-backend/internal/handler"
	appmw "github.com/shinyyama/bargain-backend/internal/middleware"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"github.com/shinyyama/bargain-backend/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	Config    *config.Config
	Log       *zap.Logger
	Publisher events.Publisher
	Auth      *appmw.AuthMiddleware
	SHA       string
	BuildTime string
}

// dbSetter is implemented by every repository and the transaction runner.
type dbSetter interface {
	SetDB(db *gorm.DB)
}

type Server struct {
	e       *echo.Echo
	log     *zap.Logger
	setters []dbSetter
	sweeper *service.ExpirySweeper
	ready   bool
}

// New wires repositories, services and routes. db may be nil and injected
// later with SetDB; until then repositories answer ErrDBNotReady.
func New(db *gorm.DB, opts Options) *Server {
	cfg := opts.Config
	log := opts.Log
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(appmw.RequestID())
	e.Use(appmw.RequestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.DevUserHeader},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin,
	}))

	txr := repository.NewTxRunner(db)
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	bargainRepo := repository.NewBargainRepository(db)
	settingsRepo := repository.NewBargainSettingsRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cartRepo := repository.NewCartRepository(db)
	notifyRepo := repository.NewNotificationRepository(db)

	notifySvc := service.NewNotificationService(notifyRepo, opts.Publisher, log)
	walletSvc := service.NewWalletService(txr, userRepo, walletRepo, log)
	bargainSvc := service.NewBargainService(txr, bargainRepo, productRepo, settingsRepo, notifySvc, log, service.BargainOptions{
		TTL:          cfg.BargainTTL,
		AutoResponse: cfg.AutoResponseEnabled,
	})
	settleSvc := service.NewSettlementService(txr, bargainRepo, productRepo, userRepo, orderRepo, cartRepo, walletSvc, notifySvc, log)
	orderSvc := service.NewOrderService(txr, orderRepo, productRepo, walletSvc, log)
	settingsSvc := service.NewBargainSettingsService(settingsRepo, userRepo)
	productSvc := service.NewProductService(productRepo)

	productHandler := handler.NewProductHandler(productSvc, log)
	bargainHandler := handler.NewBargainHandler(bargainSvc, notifySvc, log)
	settleHandler := handler.NewSettlementHandler(settleSvc, log)
	settingsHandler := handler.NewBargainSettingsHandler(settingsSvc, log)
	walletHandler := handler.NewWalletHandler(walletSvc, log)
	orderHandler := handler.NewOrderHandler(orderSvc, log)
	notifyHandler := handler.NewNotificationHandler(notifySvc, log)
	userHandler := handler.NewUserHandler(userRepo, log)

	s := &Server{
		e:   e,
		log: log,
		setters: []dbSetter{
			txr, productRepo, userRepo, walletRepo, bargainRepo,
			settingsRepo, orderRepo, cartRepo, notifyRepo,
		},
		sweeper: service.NewExpirySweeper(bargainRepo, bargainSvc, log, cfg.SweepInterval, cfg.SweepBatchSize),
		ready:   db != nil,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"ok":         true,
			"db_ready":   s.ready,
			"git_sha":    opts.SHA,
			"build_time": opts.BuildTime,
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)
	api.GET("/users/:uid/public", userHandler.GetPublic)

	authed := api.Group("", opts.Auth.RequireAuth)
	authed.GET("/me", userHandler.Me)
	authed.POST("/bargains", bargainHandler.Create)
	authed.GET("/me/bargains", bargainHandler.ListMine)
	authed.GET("/me/received-bargains", bargainHandler.ListReceived)
	authed.GET("/bargains/:id", bargainHandler.Get)
	authed.POST("/bargains/:id/respond", bargainHandler.Respond)
	authed.POST("/bargains/:id/messages", bargainHandler.AddMessage)
	authed.POST("/bargains/:id/settle", settleHandler.Settle)
	authed.POST("/bargains/:id/cart", settleHandler.AddToCart)
	authed.GET("/me/bargain-settings", settingsHandler.Get)
	authed.PUT("/me/bargain-settings", settingsHandler.Update)
	authed.GET("/me/wallet", walletHandler.Get)
	authed.POST("/me/wallet/deposit", walletHandler.Deposit)
	authed.GET("/me/orders", orderHandler.ListMine)
	authed.GET("/orders/:number", orderHandler.Get)
	authed.POST("/orders/:number/process", orderHandler.Process)
	authed.POST("/orders/:number/cancel", orderHandler.Cancel)
	authed.GET("/me/notifications", notifyHandler.List)
	authed.POST("/me/notifications/read", notifyHandler.MarkAllRead)

	return s
}

func allowOrigin(origin string) (bool, error) {
	low := strings.ToLower(origin)
	if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
		strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
		return true, nil
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false, nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, nil
	}
	if strings.HasSuffix(u.Hostname(), "vercel.app") {
		return true, nil
	}
	return false, nil
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Sweeper() *service.ExpirySweeper {
	return s.sweeper
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// SetDB must be called before the server starts taking traffic.
func (s *Server) SetDB(db *gorm.DB) {
	for _, st := range s.setters {
		st.SetDB(db)
	}
	s.ready = db != nil
}
