package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/application/usecase"
	infrapdf "github.com/jhoicas/stockmaster-api/internal/infrastructure/pdf"
	"github.com/jhoicas/stockmaster-api/internal/infrastructure/store"
	"github.com/jhoicas/stockmaster-api/internal/infrastructure/ws"
	httpRouter "github.com/jhoicas/stockmaster-api/internal/interfaces/http"
	"github.com/jhoicas/stockmaster-api/pkg/config"
	"github.com/jhoicas/stockmaster-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.DB.Driver).
		Dur("lock_timeout", cfg.Ledger.LockTimeout).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	backend, err := store.Open(ctx, cfg, log.Component("store"))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer backend.Close()

	catalog := inventory.NewRepositoryCatalog(backend.Products, backend.Warehouses)
	ledgerQuery := inventory.NewLedgerQuery(backend.Ledger, catalog)

	// Hub WebSocket: recibe los eventos confirmados del libro
	hub := ws.NewHub(ledgerQuery, 256, log.Component("ws"))
	go hub.Run(ctx)

	engine := inventory.NewEngine(backend.Runner, backend.Ledger, catalog,
		inventory.WithEvents(hub),
		inventory.WithLogger(log.Component("engine")),
	)
	projector := inventory.NewProjector(backend.Runner, backend.Ledger, backend.Stock, hub, log.Component("projector"))

	// La vista de stock debe coincidir con el libro antes de aceptar escrituras.
	if cfg.Ledger.VerifyOnStart {
		drifts, err := projector.Verify(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("verificar vista de stock")
		}
		if len(drifts) > 0 {
			n, err := projector.Rebuild(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("reconstruir vista de stock")
			}
			log.Warn().Int("drifts", len(drifts)).Int("pairs", n).Msg("vista de stock reconstruida al arrancar")
		}
	}

	reportGen := infrapdf.NewMarotoStockReport(cfg.App.Name)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.App.SwaggerFile != "" {
		if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.App.SwaggerFile,
				Path:     "docs",
				Title:    cfg.App.Name,
			}))
		} else {
			log.Warn().Str("file", cfg.App.SwaggerFile).Msg("swagger.json no encontrado, /docs deshabilitado")
		}
	}

	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: la identidad se toma de la cabecera X-User-ID")
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:   usecase.NewProductUseCase(backend.Products),
		WarehouseUC: usecase.NewWarehouseUseCase(backend.Warehouses),
		Engine:      engine,
		Query:       ledgerQuery,
		Projector:   projector,
		Warehouses:  inventory.NewWarehouseService(backend.Stock, backend.Warehouses, catalog, reportGen),
		Dashboard:   inventory.NewDashboardService(backend.Products, backend.Stock, backend.Ledger, cfg.Ledger.LowStockThreshold),
		Catalog:     catalog,
		Hub:         hub,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
		Log:         log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	stop()

	log.Info().Msg("aplicación detenida")
}
