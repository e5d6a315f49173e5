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
	"github.com/jhoicas/OficinaContable-api/internal/application/auth"
	"github.com/jhoicas/OficinaContable-api/internal/application/modules"
	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/application/usecase"
	infraai "github.com/jhoicas/OficinaContable-api/internal/infrastructure/ai"
	"github.com/jhoicas/OficinaContable-api/internal/infrastructure/cache"
	"github.com/jhoicas/OficinaContable-api/internal/infrastructure/mail"
	"github.com/jhoicas/OficinaContable-api/internal/infrastructure/messaging"
	infrapdf "github.com/jhoicas/OficinaContable-api/internal/infrastructure/pdf"
	"github.com/jhoicas/OficinaContable-api/internal/infrastructure/postgres"
	"github.com/jhoicas/OficinaContable-api/internal/infrastructure/scheduler"
	"github.com/jhoicas/OficinaContable-api/internal/infrastructure/storage"
	"github.com/jhoicas/OficinaContable-api/internal/infrastructure/watcher"
	httpRouter "github.com/jhoicas/OficinaContable-api/internal/interfaces/http"
	"github.com/jhoicas/OficinaContable-api/pkg/config"
	"github.com/jhoicas/OficinaContable-api/pkg/crypto"
	"github.com/jhoicas/OficinaContable-api/pkg/logger"
)

const mailTimeout = 30 * time.Second

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
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		applied, err := postgres.Migrate(ctx, pool, log)
		if err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Strs("applied", applied).Msg("migraciones al día")
	}

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	moduleRepo := postgres.NewModuleRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Servicios opcionales: si no hay configuración, la funcionalidad queda deshabilitada.
	var permCache ports.PermissionCache
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, permisos sin caché")
		} else {
			defer rdb.Close()
			permCache = cache.NewPermissionCache(rdb, cfg.Redis.PermTTL)
		}
	}

	// Registro de módulos: module.json en disco -> catálogo en DB.
	registry := modules.NewRegistry(os.DirFS(cfg.Modules.Dir), moduleRepo, txRunner, cfg.Modules.CacheTTL, log).
		WithPermissionCache(permCache)
	if report, err := registry.Sync(ctx); err != nil {
		log.Error().Err(err).Str("dir", cfg.Modules.Dir).Msg("sincronización inicial de módulos")
	} else {
		log.Info().
			Int("discovered", report.Discovered).
			Int("invalid", len(report.Invalid)).
			Msg("módulos sincronizados")
	}

	var publisher ports.NotificationPublisher
	if cfg.AMQP.Enabled() {
		rabbit, err := messaging.NewRabbitPublisher(cfg.AMQP)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq no disponible, notificaciones sin publicar")
		} else {
			defer rabbit.Close()
			publisher = rabbit
		}
	}

	var objects ports.ObjectStorage
	if cfg.MinIO.Enabled() {
		minioStorage, err := storage.NewMinioStorage(cfg.MinIO)
		if err == nil {
			err = minioStorage.EnsureBucket(ctx)
		}
		if err != nil {
			log.Warn().Err(err).Msg("minio no disponible, íconos de clientes deshabilitados")
		} else {
			objects = minioStorage
		}
	}

	key, err := cfg.Crypto.Key()
	if err != nil {
		log.Fatal().Err(err).Msg("clave de cifrado")
	}
	box, err := crypto.NewBox(key)
	if err != nil {
		log.Fatal().Err(err).Msg("clave de cifrado")
	}

	notificationUC := usecase.NewNotificationUseCase(postgres.NewNotificationRepository(pool), publisher, log)
	moduleSvc := usecase.NewModuleService(usecase.ModuleServiceDeps{
		Catalog:     registry,
		Companies:   companyRepo,
		Users:       userRepo,
		Access:      postgres.NewCompanyModuleRepository(pool),
		Permissions: postgres.NewUserPermissionRepository(pool),
		Tx:          txRunner,
		Cache:       permCache,
		Notifier:    notificationUC,
		Log:         log,
	})

	companyUC := usecase.NewCompanyUseCase(companyRepo, moduleSvc, log)
	employeeUC := usecase.NewEmployeeUseCase(userRepo, moduleSvc)
	clientUC := usecase.NewClientUseCase(
		clientRepo,
		postgres.NewClientFieldRepository(pool),
		postgres.NewClientIconRepository(pool),
		objects, cfg.MinIO.URLExpiry, log,
	)
	offerUC := usecase.NewOfferUseCase(
		txRunner,
		postgres.NewLeadRepository(pool),
		postgres.NewOfferRepository(pool),
		clientRepo, companyRepo,
		infrapdf.NewMarotoPDFGenerator(),
	)
	taskUC := usecase.NewTaskUseCase(taskRepo, userRepo, clientRepo, notificationUC, log)
	timeEntryUC := usecase.NewTimeEntryUseCase(postgres.NewTimeEntryRepository(pool), clientRepo, taskRepo)
	emailUC := usecase.NewEmailUseCase(
		postgres.NewEmailConfigRepository(pool), box,
		mail.NewSMTPSender(mailTimeout), mail.NewIMAPReader(mailTimeout),
	)
	aiUC := usecase.NewAIUseCase(postgres.NewAIRepository(pool), infraai.NewFactory(cfg.AI), box, cfg.AI.RequestTimeout)
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, moduleSvc, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // las respuestas del agente IA pueden tardar
		IdleTimeout:  time.Second * 60,
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: cfg.HTTP.SwaggerFile,
		Path:     "docs",
		Title:    "Oficina Contable API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		CompanyUC:      companyUC,
		EmployeeUC:     employeeUC,
		Registry:       registry,
		Modules:        moduleSvc,
		ClientUC:       clientUC,
		OfferUC:        offerUC,
		TimeEntryUC:    timeEntryUC,
		TaskUC:         taskUC,
		EmailUC:        emailUC,
		AIUC:           aiUC,
		NotificationUC: notificationUC,
		JWTSecret:      cfg.JWT.Secret,
	})

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(scheduler.Options{
			ModulesSyncInterval:   cfg.Modules.SyncInterval,
			TaskReminderInterval:  cfg.Scheduler.TaskReminderInterval,
			NotificationRetention: cfg.Scheduler.NotificationRetention,
		}, registry, taskUC, notificationUC, log)
		if err != nil {
			log.Fatal().Err(err).Msg("scheduler")
		}
		sched.Start()
		log.Info().Strs("jobs", sched.Jobs()).Msg("scheduler iniciado")
	}

	var modWatcher *watcher.ModulesWatcher
	if cfg.Modules.Watch {
		modWatcher, err = watcher.NewModulesWatcher(cfg.Modules.Dir, registry, log)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.Modules.Dir).Msg("no se pudo vigilar el directorio de módulos")
		} else {
			modWatcher.Start(ctx)
		}
	}

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
	if modWatcher != nil {
		if err := modWatcher.Stop(); err != nil {
			log.Error().Err(err).Msg("apagado del watcher de módulos")
		}
	}
	if sched != nil {
		if err := sched.Stop(); err != nil {
			log.Error().Err(err).Msg("apagado del scheduler")
		}
	}

	log.Info().Msg("aplicación detenida")
}
