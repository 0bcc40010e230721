package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"foodpos/internal/config"
	"foodpos/internal/database"
	"foodpos/internal/handler"
	"foodpos/internal/logging"
	"foodpos/internal/metrics"
	"foodpos/internal/mw"
	"foodpos/internal/service"
	"foodpos/internal/worker"
)

const menuCacheTTL = 5 * time.Minute

func main() {
	cfg := config.New()
	log := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewDB(ctx, cfg.DatabaseURI)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to DB")
	}
	defer database.CloseDB(db, log)

	if err := database.InitSchema(ctx, db); err != nil {
		log.WithError(err).Fatal("failed to init DB schema")
	}

	menuCache := service.ConnectMenuCache(ctx, cfg.RedisAddr, menuCacheTTL, log)

	// Services
	catalogSvc := service.NewCatalogService(db, menuCache, log)
	checkoutSvc := service.NewCheckoutService(db, menuCache, log)
	orderSvc := service.NewOrderService(db, menuCache, log)
	expenseSvc := service.NewExpenseService(db, log)
	reportSvc := service.NewReportService(db, log)
	settingsSvc := service.NewSettingsService(db, log)
	dashboardSvc := service.NewDashboardService(db, settingsSvc)
	userSvc := service.NewUserService(db, log)

	// Worker
	closingWorker, err := worker.NewClosingWorker(reportSvc, cfg.ClosingSchedule, log)
	if err != nil {
		log.WithError(err).Fatal("invalid closing schedule")
	}

	loginLimiter := mw.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst, log)
	loginLimiter.StartCleanup(10*time.Minute, ctx.Done())

	compressor := middleware.NewCompressor(5, "application/json", "text/plain")
	compressor.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})

	// Router
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logging.NewRequestFormatter(log)))
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(compressor.Handler)

	// Public routes
	r.Get("/health", handler.HealthHandler(db))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/api", func(r chi.Router) {
		r.With(loginLimiter.Handler).Post("/user/login", handler.LoginHandler(userSvc, cfg.JWTSecret, log))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(mw.AuthMiddleware(cfg.JWTSecret))

			r.Get("/user/me", handler.MeHandler(userSvc, log))
			r.Get("/categories", handler.ListCategoriesHandler(catalogSvc, log))
			r.Get("/menus", handler.ListMenusHandler(catalogSvc, log))
			r.Get("/menus/active", handler.ListActiveMenusHandler(catalogSvc, log))
			r.Get("/menus/{id}", handler.GetMenuHandler(catalogSvc, log))
			r.Get("/menus/{id}/variations", handler.ListVariationsHandler(catalogSvc, log))
			r.Get("/orders", handler.ListOrdersHandler(orderSvc, log))
			r.Get("/orders/{id}", handler.GetOrderHandler(orderSvc, log))
			r.Get("/kitchen/queue", handler.KitchenQueueHandler(orderSvc, log))
			r.Patch("/orders/{id}/items/{itemID}/status", handler.UpdateItemStatusHandler(orderSvc, log))
			r.Patch("/orders/{id}/items/status", handler.UpdateAllItemsHandler(orderSvc, log))
			r.Get("/settings", handler.GetSettingsHandler(settingsSvc, log))

			// Front of house
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(string(service.RoleAdmin), string(service.RoleCashier)))

				r.Post("/cart/quote", handler.QuoteHandler(checkoutSvc, log))
				r.Post("/checkout", handler.CheckoutHandler(checkoutSvc, log))
				r.Post("/orders/{id}/pay", handler.PayOrderHandler(orderSvc, log))
				r.Post("/orders/{id}/cancel", handler.CancelOrderHandler(orderSvc, log))
				r.Get("/dashboard", handler.DashboardHandler(dashboardSvc, log))
			})

			// Back office
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(string(service.RoleAdmin)))

				r.Post("/categories", handler.CreateCategoryHandler(catalogSvc, log))
				r.Put("/categories/{id}", handler.RenameCategoryHandler(catalogSvc, log))
				r.Delete("/categories/{id}", handler.DeleteCategoryHandler(catalogSvc, log))

				r.Post("/menus", handler.CreateMenuHandler(catalogSvc, log))
				r.Put("/menus/{id}", handler.UpdateMenuHandler(catalogSvc, log))
				r.Patch("/menus/{id}/active", handler.SetMenuActiveHandler(catalogSvc, log))
				r.Patch("/menus/{id}/stock", handler.UpdateStockHandler(catalogSvc, log))
				r.Delete("/menus/{id}", handler.DeleteMenuHandler(catalogSvc, log))
				r.Post("/menus/{id}/variations", handler.CreateVariationHandler(catalogSvc, log))
				r.Put("/variations/{id}", handler.UpdateVariationHandler(catalogSvc, log))
				r.Delete("/variations/{id}", handler.DeleteVariationHandler(catalogSvc, log))

				r.Get("/expenses", handler.ListExpensesHandler(expenseSvc, log))
				r.Post("/expenses", handler.CreateExpenseHandler(expenseSvc, log))
				r.Put("/expenses/{id}", handler.UpdateExpenseHandler(expenseSvc, log))
				r.Delete("/expenses/{id}", handler.DeleteExpenseHandler(expenseSvc, log))

				r.Get("/reports/sales", handler.SalesReportHandler(reportSvc, log))
				r.Get("/reports/closings", handler.ListClosingsHandler(reportSvc, log))
				r.Post("/reports/closings", handler.CloseDayHandler(reportSvc, log))

				r.Get("/users", handler.ListUsersHandler(userSvc, log))
				r.Post("/users", handler.CreateUserHandler(userSvc, log))
				r.Patch("/users/{id}/role", handler.UpdateUserRoleHandler(userSvc, log))
				r.Delete("/users/{id}", handler.DeleteUserHandler(userSvc, log))

				r.Put("/settings", handler.UpdateSettingsHandler(settingsSvc, log))
			})
		})
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	workerDone := make(chan struct{})
	go func() {
		closingWorker.Start(ctx)
		close(workerDone)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	log.WithField("addr", cfg.RunAddress).Info("starting server")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server failed")
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	log.Info("shutting down...")

	cancel() // stop worker
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
	<-workerDone

	log.Info("server stopped")
}
