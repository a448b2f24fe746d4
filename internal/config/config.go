package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Analysis inputs.
	Regions   []string
	Variables []domain.Variable
	RasterCRS domain.CRS

	// Boundary (AOI) service.
	BoundaryURL       string
	BoundaryTimeout   time.Duration
	BoundaryCacheSize int

	// Climate normals service.
	NormalsURL     string
	NormalsTimeout time.Duration

	// Point dataset, read as <dir>/<layer>.geojson.
	PointsDir   string
	PointsLayer string

	// Optional Kafka result publication.
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool

	// Optional PNG previews, disabled when empty.
	PlotsDir string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	boundaryTimeout, err := parseDuration("BOUNDARY_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	normalsTimeout, err := parseDuration("NORMALS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	variables, err := parseVariables(envOrDefault("VARIABLES", ""))
	if err != nil {
		return nil, err
	}

	rasterCRS, err := parseCRS(envOrDefault("RASTER_CRS", "4326"))
	if err != nil {
		return nil, err
	}

	brokers := splitAndTrim(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Regions:   splitAndTrim(os.Getenv("AOI_REGIONS")),
		Variables: variables,
		RasterCRS: rasterCRS,

		BoundaryURL:       os.Getenv("BOUNDARY_URL"),
		BoundaryTimeout:   boundaryTimeout,
		BoundaryCacheSize: parseCacheSize(),

		NormalsURL:     os.Getenv("NORMALS_URL"),
		NormalsTimeout: normalsTimeout,

		PointsDir:   envOrDefault("POINTS_DIR", "data"),
		PointsLayer: envOrDefault("POINTS_LAYER", "sites"),

		KafkaBrokers:   brokers,
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "climate-normal-results"),
		KafkaEnabled:   kafkaEnabled,

		PlotsDir: os.Getenv("PLOTS_DIR"),
	}

	if len(cfg.Regions) == 0 {
		return nil, errors.New("AOI_REGIONS is required")
	}
	if cfg.BoundaryURL == "" {
		return nil, errors.New("BOUNDARY_URL is required")
	}
	if cfg.NormalsURL == "" {
		return nil, errors.New("NORMALS_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseVariables(s string) ([]domain.Variable, error) {
	if s == "" {
		return domain.DefaultVariables, nil
	}
	var out []domain.Variable
	for _, part := range splitAndTrim(s) {
		v, err := domain.ParseVariable(part)
		if err != nil {
			return nil, fmt.Errorf("VARIABLES: %w", err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("VARIABLES must name at least one variable")
	}
	return out, nil
}

func parseCRS(s string) (domain.CRS, error) {
	code, err := strconv.Atoi(strings.TrimPrefix(s, "EPSG:"))
	if err != nil {
		return 0, fmt.Errorf("invalid RASTER_CRS %q", s)
	}
	crs := domain.CRS(code)
	if crs != domain.CRSWGS84 && crs != domain.CRSWebMercator {
		return 0, fmt.Errorf("unsupported RASTER_CRS %q", s)
	}
	return crs, nil
}

func parseCacheSize() int {
	if s := os.Getenv("BOUNDARY_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 100
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
