package metric

import (
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/Meesho/BharatMLStack/predator-probe/pkg/config"
	"github.com/rs/zerolog/log"
)

const (
	ApiRequestCount           = "api_request_count"
	ApiRequestLatency         = "api_request_latency"
	ExternalApiRequestCount   = "external_api_request_count"
	ExternalApiRequestLatency = "external_api_request_latency"
	ProbeRunCount             = "probe_run_count"
	ProbeOutputCount          = "probe_output_count"
	ProbeStatsRecordCount     = "probe_stats_record_count"
)

var (
	// safe to use from multiple goroutines
	statsDClient statsd.ClientInterface = &statsd.NoOpClient{}
	samplingRate                        = 1.0
	appName                             = ""
	initialized                         = false
	once                                sync.Once
)

// Init initializes the metrics client. With metrics disabled every call is a no-op.
func Init(cfg *config.Configs) error {
	if initialized {
		log.Debug().Msgf("Metrics already initialized!")
		return nil
	}
	var initErr error
	once.Do(func() {
		samplingRate = cfg.AppMetricSamplingRate
		appName = cfg.AppName
		if !cfg.MetricsEnabled {
			initialized = true
			log.Debug().Msg("Metrics disabled, using no-op statsd client")
			return
		}
		globalTags := getGlobalTags(cfg)
		client, err := statsd.New(
			cfg.TelegrafAddress,
			statsd.WithTags(globalTags),
		)
		if err != nil {
			initErr = err
			return
		}
		statsDClient = client
		log.Info().Msgf("Metrics client initialized with telegraf address - %s, global tags - %v, and "+
			"sampling rate - %f", cfg.TelegrafAddress, globalTags, samplingRate)
		initialized = true
	})
	return initErr
}

// Close flushes buffered metrics
func Close() {
	if err := statsDClient.Close(); err != nil {
		log.Warn().Err(err).Msg("Error occurred while closing statsd client")
	}
}

func getGlobalTags(cfg *config.Configs) []string {
	if len(cfg.AppEnv) == 0 {
		log.Warn().Msg("APP_ENV is not set")
	}
	if len(cfg.AppName) == 0 {
		log.Warn().Msg("APP_NAME is not set")
	}
	return []string{
		TagAsString(TagEnv, cfg.AppEnv),
		TagAsString(TagService, cfg.AppName),
	}
}

// Timing sends timing information
func Timing(name string, value time.Duration, tags []string) {
	tags = append(tags, TagAsString(TagService, appName))
	if err := statsDClient.Timing(name, value, tags, samplingRate); err != nil {
		log.Warn().AnErr("Error occurred while doing statsd timing", err)
	}
}

// Count Increases metric counter by value
func Count(name string, value int64, tags []string) {
	tags = append(tags, TagAsString(TagService, appName))
	if err := statsDClient.Count(name, value, tags, samplingRate); err != nil {
		log.Warn().AnErr("Error occurred while doing statsd count", err)
	}
}

// Incr Increases metric counter by 1
func Incr(name string, tags []string) {
	Count(name, 1, tags)
}

func Gauge(name string, value float64, tags []string) {
	tags = append(tags, TagAsString(TagService, appName))
	if err := statsDClient.Gauge(name, value, tags, samplingRate); err != nil {
		log.Warn().AnErr("Error occurred while doing statsd gauge", err)
	}
}
