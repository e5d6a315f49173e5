package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	AMQP      AMQPConfig
	Modules   ModulesConfig
	Scheduler SchedulerConfig
	Crypto    CryptoConfig
	AI        AIConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool // aplica migraciones pendientes al arrancar la API
	ForceIPv4   bool // marca el dial en tcp4 (contenedores sin IPv6)
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host        string
	Port        int
	SwaggerFile string
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig caché de decisiones de permisos. Addr vacío = sin caché.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PermTTL  time.Duration
}

// Enabled indica si hay Redis configurado.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// MinIOConfig almacenamiento de íconos de clientes. Endpoint vacío = deshabilitado.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	URLExpiry time.Duration
}

// Enabled indica si hay almacenamiento de objetos configurado.
func (c MinIOConfig) Enabled() bool { return c.Endpoint != "" }

// AMQPConfig publicación de eventos de notificaciones. URL vacía = no se publica.
type AMQPConfig struct {
	URL        string
	Exchange   string
	Queue      string
	RoutingKey string
}

// Enabled indica si hay broker configurado.
func (c AMQPConfig) Enabled() bool { return c.URL != "" }

// ModulesConfig registro de módulos (descubrimiento de module.json).
type ModulesConfig struct {
	Dir          string
	CacheTTL     time.Duration
	SyncInterval time.Duration
	Watch        bool
}

// SchedulerConfig tareas periódicas.
type SchedulerConfig struct {
	Enabled               bool
	TaskReminderInterval  time.Duration
	NotificationRetention time.Duration
}

// CryptoConfig clave para cifrar secretos en reposo (contraseñas de buzón, API keys).
type CryptoConfig struct {
	Secret string // 32 bytes en hex (64 caracteres) o texto plano de 32 bytes
}

// Key devuelve la clave de 32 bytes o nil si no está configurada.
func (c CryptoConfig) Key() ([]byte, error) {
	if c.Secret == "" {
		return nil, nil
	}
	if len(c.Secret) == 64 {
		if b, err := hex.DecodeString(c.Secret); err == nil {
			return b, nil
		}
	}
	if len(c.Secret) == 32 {
		return []byte(c.Secret), nil
	}
	return nil, fmt.Errorf("config: CRYPTO_SECRET debe tener 32 bytes (o 64 caracteres hex)")
}

// AIConfig claves de servidor para los proveedores LLM (fallback si la empresa no tiene la suya).
type AIConfig struct {
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	RequestTimeout  time.Duration
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, DB_PORT, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "oficina-contable"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "oficina_contable"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
			AutoMigrate: getBool(v, "DB_AUTO_MIGRATE", false),
			ForceIPv4:   getBool(v, "DB_FORCE_IPV4", false),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "oficina-contable"),
		},
		HTTP: HTTPConfig{
			Host:        getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:        getInt(v, "HTTP_PORT", 8080),
			SwaggerFile: getString(v, "SWAGGER_FILE", "./docs/swagger.json"),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			PermTTL:  getDuration(v, "REDIS_PERMISSION_TTL", time.Minute),
		},
		MinIO: MinIOConfig{
			Endpoint:  getString(v, "MINIO_ENDPOINT", ""),
			AccessKey: getString(v, "MINIO_ACCESS_KEY", ""),
			SecretKey: getString(v, "MINIO_SECRET_KEY", ""),
			UseSSL:    getBool(v, "MINIO_USE_SSL", false),
			Bucket:    getString(v, "MINIO_BUCKET", "client-icons"),
			URLExpiry: getDuration(v, "MINIO_URL_EXPIRY", time.Hour),
		},
		AMQP: AMQPConfig{
			URL:        getString(v, "AMQP_URL", ""),
			Exchange:   getString(v, "AMQP_EXCHANGE", "notifications"),
			Queue:      getString(v, "AMQP_QUEUE", "notifications.created"),
			RoutingKey: getString(v, "AMQP_ROUTING_KEY", "notification.created"),
		},
		Modules: ModulesConfig{
			Dir:          getString(v, "MODULES_DIR", "./modules"),
			CacheTTL:     getDuration(v, "MODULES_CACHE_TTL", 5*time.Minute),
			SyncInterval: getDuration(v, "MODULES_SYNC_INTERVAL", 15*time.Minute),
			Watch:        getBool(v, "MODULES_WATCH", true),
		},
		Scheduler: SchedulerConfig{
			Enabled:               getBool(v, "SCHEDULER_ENABLED", true),
			TaskReminderInterval:  getDuration(v, "TASK_REMINDER_INTERVAL", 15*time.Minute),
			NotificationRetention: getDuration(v, "NOTIFICATION_RETENTION", 30*24*time.Hour),
		},
		Crypto: CryptoConfig{
			Secret: getString(v, "CRYPTO_SECRET", ""),
		},
		AI: AIConfig{
			AnthropicAPIKey: getString(v, "ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getString(v, "ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
			GeminiAPIKey:    getString(v, "GEMINI_API_KEY", ""),
			GeminiModel:     getString(v, "GEMINI_MODEL", "gemini-1.5-flash"),
			RequestTimeout:  getDuration(v, "AI_REQUEST_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate comprueba los valores que la aplicación no puede suplir con un default.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET es obligatorio")
	}
	if _, err := c.Crypto.Key(); err != nil {
		return err
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

// getDuration acepta "90s", "5m" o un entero (segundos).
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := v.GetString(key)
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
