package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/estrategista/sistema-saques/src/config"
	"github.com/estrategista/sistema-saques/src/database"
	"github.com/estrategista/sistema-saques/src/handlers"
	"github.com/estrategista/sistema-saques/src/logger"
	"github.com/estrategista/sistema-saques/src/services"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	saqueService := services.NewSaqueService(database.DB)
	configService := services.NewConfigService(database.DB)
	cotacaoService := services.NewCotacaoService(database.DB, configService,
		config.Cfg.HTTPClientTimeout, config.Cfg.QuoteCacheTTL)
	csvService := services.NewCSVService(saqueService)

	saqueHandler := handlers.NewSaqueHandler(saqueService, csvService)
	configHandler := handlers.NewConfigHandler(configService)
	cotacaoHandler := handlers.NewCotacaoHandler(cotacaoService)
	syncHandler := handlers.NewSyncHandler(saqueService)
	solicitacaoHandler := handlers.NewSolicitacaoHandler(saqueService, configService, cotacaoService)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.Cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(rateLimitMiddleware(rate.NewLimiter(rate.Every(100*time.Millisecond), 30)))

	// Method checks live inside the handlers so wrong-verb requests still get
	// the standard JSON envelope instead of a bare 405.
	r.HandleFunc("/api/saques", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			saqueHandler.HandleCreate(w, req)
			return
		}
		saqueHandler.HandleList(w, req)
	})
	r.HandleFunc("/api/saque", saqueHandler.HandleGet)
	r.HandleFunc("/api/saque/recibo", solicitacaoHandler.HandleRecibo)
	r.HandleFunc("/api/solicitacao/processar", solicitacaoHandler.HandleProcessar)
	r.HandleFunc("/api/saques/delete", saqueHandler.HandleDelete)
	r.HandleFunc("/api/saques/export", saqueHandler.HandleExportCSV)
	r.HandleFunc("/api/saques/import", saqueHandler.HandleImportCSV)
	r.HandleFunc("/api/config", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			configHandler.HandleSave(w, req)
			return
		}
		configHandler.HandleGet(w, req)
	})
	r.HandleFunc("/api/cotacao", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			cotacaoHandler.HandleSave(w, req)
			return
		}
		cotacaoHandler.HandleGet(w, req)
	})
	r.HandleFunc("/api/cotacao/atualizar", cotacaoHandler.HandleRefresh)
	r.HandleFunc("/api/sync", syncHandler.HandleSync)
	r.HandleFunc("/api/test", handlers.HandleTestConnection)

	server := &http.Server{
		Addr:         ":" + config.Cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("starting server", "port", config.Cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.L.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("graceful shutdown failed", "error", err)
	}
	if err := database.DB.Close(); err != nil {
		logger.L.Error("failed to close database", "error", err)
	}
	logger.L.Info("server stopped")
}

func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
