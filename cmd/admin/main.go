// Comando admin: tareas de operación sobre la base de datos (migraciones,
// sincronización del catálogo de módulos y alta del administrador de plataforma).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/OficinaContable-api/internal/application/auth"
	"github.com/jhoicas/OficinaContable-api/internal/application/modules"
	"github.com/jhoicas/OficinaContable-api/internal/infrastructure/cache"
	"github.com/jhoicas/OficinaContable-api/internal/infrastructure/postgres"
	"github.com/jhoicas/OficinaContable-api/pkg/config"
	"github.com/jhoicas/OficinaContable-api/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	timeout    time.Duration
	modulesDir string

	adminEmail    string
	adminPassword string
	adminName     string
)

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Herramientas de operación de Oficina Contable",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// migrateCmd aplica las migraciones SQL embebidas que falten.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica las migraciones pendientes",
	RunE:  runMigrate,
}

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Catálogo de módulos",
}

// modulesSyncCmd sincroniza los module.json del disco con la tabla modules.
var modulesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sincroniza el catálogo con los module.json del disco",
	RunE:  runModulesSync,
}

// seedAdminCmd crea o reactiva el administrador de plataforma.
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Crea o reactiva un administrador de plataforma",
	Long: `Crea un usuario con rol admin sin empresa asociada.
Si el email ya existe como admin, se actualiza la contraseña y se reactiva.`,
	RunE: runSeedAdmin,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Tiempo máximo de la operación")

	modulesSyncCmd.Flags().StringVar(&modulesDir, "dir", "", "Directorio de módulos (por defecto MODULES_DIR)")
	modulesCmd.AddCommand(modulesSyncCmd)

	seedAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Email del administrador")
	seedAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Contraseña (mínimo 8 caracteres)")
	seedAdminCmd.Flags().StringVar(&adminName, "name", "", "Nombre visible")
	_ = seedAdminCmd.MarkFlagRequired("email")
	_ = seedAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(seedAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env carga configuración, logger y pool para un subcomando.
type env struct {
	cfg  *config.Config
	log  *logger.Logger
	pool *pgxpool.Pool
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	return &env{cfg: cfg, log: log, pool: pool}, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.pool.Close()

	applied, err := postgres.Migrate(ctx, e.pool, e.log)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "sin migraciones pendientes")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintln(cmd.OutOrStdout(), "aplicada:", name)
	}
	return nil
}

func runModulesSync(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.pool.Close()

	dir := modulesDir
	if dir == "" {
		dir = e.cfg.Modules.Dir
	}
	registry := modules.NewRegistry(os.DirFS(dir), postgres.NewModuleRepository(e.pool), postgres.NewTxRunner(e.pool), 0, e.log)
	if e.cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, e.cfg.Redis)
		if err != nil {
			e.log.Warn().Err(err).Msg("redis no disponible, los permisos cacheados vencerán por TTL")
		} else {
			defer rdb.Close()
			registry.WithPermissionCache(cache.NewPermissionCache(rdb, e.cfg.Redis.PermTTL))
		}
	}
	report, err := registry.Sync(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "descubiertos: %d, creados: %d, actualizados: %d, desactivados: %d\n",
		report.Discovered, report.Created, report.Updated, report.Deactivated)
	for _, inv := range report.Invalid {
		fmt.Fprintf(out, "inválido %s: %s\n", inv.Path, inv.Reason)
	}
	return nil
}

func runSeedAdmin(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.pool.Close()

	uc := auth.NewAuthUseCase(
		postgres.NewUserRepository(e.pool),
		postgres.NewCompanyRepository(e.pool),
		nil,
		auth.JWTConfig{Secret: e.cfg.JWT.Secret, ExpMinutes: e.cfg.JWT.Expiration, Issuer: e.cfg.JWT.Issuer},
	)
	user, created, err := uc.SeedAdmin(ctx, adminEmail, adminPassword, adminName)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "administrador creado: %s (%s)\n", user.Email, user.ID)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "administrador actualizado: %s (%s)\n", user.Email, user.ID)
	}
	return nil
}
