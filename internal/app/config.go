package app

import (
	"os"
	"strings"

	"github.com/thandzin/ordering/internal/storage/objectstore"
)

// Каналы передачи заказа.
const (
	OrderChannelWhatsApp   = "whatsapp"
	OrderChannelCollection = "collection"
)

// Драйверы хранилища корзин и заказов.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска сервиса заказов.
type Config struct {
	APIAddr     string
	MetricsAddr string

	MenuURL     string
	CORSOrigins []string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	KafkaBrokers string
	KafkaGroupID string

	AuthSecret string

	OrderChannel          string
	WhatsAppPhone         string
	RestaurantName        string
	WhatsAppImageEndpoint string

	Archive objectstore.Config
}

// DefaultConfig возвращает базовые настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		APIAddr:        ":8080",
		MetricsAddr:    ":9090",
		StorageDriver:  StorageDriverMemory,
		KafkaGroupID:   "ordering-widget",
		AuthSecret:     "dev-secret",
		OrderChannel:   OrderChannelWhatsApp,
		RestaurantName: "Thandzin-at-Service",
	}
}

// FromEnv формирует конфигурацию, позволяя переопределить значения
// по умолчанию через переменные окружения.
func FromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("ORDERING_API_ADDR"); v != "" {
		cfg.APIAddr = v
	}
	if v := os.Getenv("ORDERING_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("ORDERING_MENU_URL"); v != "" {
		cfg.MenuURL = v
	}
	if v := os.Getenv("ORDERING_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("ORDERING_STORAGE_DRIVER"); v != "" {
		cfg.StorageDriver = v
	}
	if v := os.Getenv("ORDERING_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("ORDERING_POSTGRES_AUTO_MIGRATE"); v == "true" || v == "1" {
		cfg.PostgresAutoMigrate = true
	}
	if v := os.Getenv("ORDERING_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := os.Getenv("ORDERING_KAFKA_GROUP_ID"); v != "" {
		cfg.KafkaGroupID = v
	}
	if v := os.Getenv("ORDERING_AUTH_SECRET"); v != "" {
		cfg.AuthSecret = v
	}
	if v := os.Getenv("ORDERING_ORDER_CHANNEL"); v != "" {
		cfg.OrderChannel = v
	}
	if v := os.Getenv("ORDERING_WHATSAPP_PHONE"); v != "" {
		cfg.WhatsAppPhone = v
	}
	if v := os.Getenv("ORDERING_RESTAURANT_NAME"); v != "" {
		cfg.RestaurantName = v
	}
	if v := os.Getenv("ORDERING_WHATSAPP_IMAGE_ENDPOINT"); v != "" {
		cfg.WhatsAppImageEndpoint = v
	}
	cfg.Archive = objectstore.Config{
		Endpoint:  os.Getenv("ORDERING_S3_ENDPOINT"),
		AccessKey: os.Getenv("ORDERING_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("ORDERING_S3_SECRET_KEY"),
		Bucket:    os.Getenv("ORDERING_S3_BUCKET"),
		BaseURL:   os.Getenv("ORDERING_S3_BASE_URL"),
	}
	return cfg
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}
