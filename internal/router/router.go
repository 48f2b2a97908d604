package router

import (
	"context"
	"time"

	"almacenpos/internal/cache"
	"almacenpos/internal/config"
	"almacenpos/internal/handler"
	"almacenpos/internal/infra"
	"almacenpos/internal/middleware"
	"almacenpos/internal/model"
	"almacenpos/internal/repository"
	"almacenpos/internal/service"
	"almacenpos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

var (
	todos      = []string{model.RolCajero, model.RolSupervisor, model.RolAdministrador}
	encargados = []string{model.RolSupervisor, model.RolAdministrador}
	soloAdmin  = []string{model.RolAdministrador}
	purgeEvery = 5 * time.Minute
	apiLimit   = 1000
	apiWindow  = time.Minute
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// ctx bounds the background goroutines started here (rate-limit purge).
// rdb may be nil: audit entries are then written synchronously and change
// events are dropped.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	loginLimiter := middleware.NewLoginLimiter()
	apiLimiter := middleware.NewAPILimiter(apiLimit, apiWindow)
	go loginLimiter.RunPurge(ctx, purgeEvery)
	go apiLimiter.RunPurge(ctx, purgeEvery)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(apiLimiter.Handler())

	// ── Infrastructure ───────────────────────────────────────────────────────
	memo := cache.New()
	eventos := infra.NewEventBus(rdb, infra.NewCircuitBreaker(infra.DefaultCBConfig()))

	var (
		colaAuditoria service.Encolador
		colaEmail     service.EmailEncolador
		pub           service.Publicador
	)
	if rdb != nil {
		dispatcher := worker.NewDispatcher(rdb)
		colaAuditoria, colaEmail, pub = dispatcher, dispatcher, eventos
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	reposicionRepo := repository.NewReposicionRepository(db)
	salidaRepo := repository.NewSalidaRepository(db)
	auditoriaRepo := repository.NewAuditoriaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	auditoriaSvc := service.NewAuditoriaService(auditoriaRepo, colaAuditoria)
	authSvc := service.NewAuthService(usuarioRepo, cfg, memo, auditoriaSvc)
	productoSvc := service.NewProductoService(productoRepo, memo, auditoriaSvc, pub)
	clienteSvc := service.NewClienteService(clienteRepo, memo, auditoriaSvc, pub)
	cajaSvc := service.NewCajaService(cajaRepo, productoRepo, clienteRepo, memo, auditoriaSvc, pub, colaEmail, service.CajaConfig{
		NegocioNombre:  cfg.NegocioNombre,
		CierreEmailTo:  cfg.CierreEmailTo,
		PDFStoragePath: cfg.PDFStoragePath,
	})
	reposicionSvc := service.NewReposicionService(reposicionRepo, productoRepo, memo, auditoriaSvc, pub)
	salidaSvc := service.NewSalidaService(salidaRepo, productoRepo, memo, auditoriaSvc, pub)
	reporteSvc := service.NewReporteService(cajaRepo, reposicionRepo, productoRepo, memo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	stockH := handler.NewStockHandler(productoSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	cajasH := handler.NewCajasHandler(cajaSvc)
	reposicionesH := handler.NewReposicionesHandler(reposicionSvc)
	salidasH := handler.NewSalidasHandler(salidaSvc)
	reportesH := handler.NewReportesHandler(reporteSvc)
	auditoriaH := handler.NewAuditoriaHandler(auditoriaSvc)
	eventosH := handler.NewEventosHandler(eventos)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, eventos))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", loginLimiter.Handler(), authH.Login)
		auth.POST("/refresh", loginLimiter.Handler(), authH.Refresh)
	}

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(todos...))
	{
		v1.GET("/stock", stockH.Listar)
		v1.GET("/stock/alertas", stockH.Alertas)
		v1.GET("/stock/barcode/:codigo", stockH.ObtenerPorBarcode)
		v1.GET("/stock/:id", stockH.ObtenerPorID)
		stock := v1.Group("/stock", middleware.RequireRole(encargados...))
		{
			stock.POST("", stockH.Crear)
			stock.PUT("/:id", stockH.Actualizar)
			stock.DELETE("/:id", stockH.Eliminar)
		}

		clientes := v1.Group("/clientes")
		{
			clientes.GET("", clientesH.Listar)
			clientes.POST("", clientesH.Crear)
			clientes.GET("/:id", clientesH.ObtenerPorID)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.DELETE("/:id", middleware.RequireRole(encargados...), clientesH.Eliminar)
		}

		cajas := v1.Group("/cajas")
		{
			cajas.POST("/abrir", cajasH.Abrir)
			cajas.GET("/activa", cajasH.Activa)
			cajas.GET("", middleware.RequireRole(encargados...), cajasH.Listar)
			cajas.GET("/:id", cajasH.ObtenerPorID)
			cajas.POST("/:id/ventas", cajasH.RegistrarVenta)
			cajas.DELETE("/:id/ventas/:venta_id", middleware.RequireRole(encargados...), cajasH.EliminarVenta)
			cajas.POST("/:id/cerrar", cajasH.Cerrar)
			cajas.GET("/:id/ticket", cajasH.Ticket)
		}

		reps := v1.Group("/reposiciones", middleware.RequireRole(encargados...))
		{
			reps.GET("", reposicionesH.Listar)
			reps.POST("", reposicionesH.Crear)
			reps.GET("/:id", reposicionesH.ObtenerPorID)
			reps.DELETE("/:id", reposicionesH.Eliminar)
		}

		salidas := v1.Group("/salidas", middleware.RequireRole(encargados...))
		{
			salidas.GET("", salidasH.Listar)
			salidas.POST("", salidasH.Crear)
			salidas.GET("/:id", salidasH.ObtenerPorID)
			salidas.DELETE("/:id", salidasH.Eliminar)
		}

		reportes := v1.Group("/reportes", middleware.RequireRole(encargados...))
		{
			reportes.GET("", reportesH.Generar)
			reportes.GET("/exportar", reportesH.Exportar)
			reportes.GET("/resumen", reportesH.Resumen)
		}

		v1.GET("/auditoria", middleware.RequireRole(encargados...), auditoriaH.Listar)

		usuarios := v1.Group("/usuarios", middleware.RequireRole(soloAdmin...))
		{
			usuarios.GET("", authH.ListarUsuarios)
			usuarios.POST("", authH.CrearUsuario)
			usuarios.PUT("/:id", authH.ActualizarUsuario)
			usuarios.DELETE("/:id", authH.DesactivarUsuario)
		}

		v1.GET("/eventos/:coleccion", eventosH.Stream)
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
