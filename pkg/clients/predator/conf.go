package predator

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/config"
	"github.com/spf13/viper"
)

const (
	V1Prefix = "PREDATOR_HTTP_CLIENT_V1_"

	DefaultURL        = "localhost:8000"
	DefaultBinaryData = true

	CompressionNone    = ""
	CompressionGzip    = "gzip"
	CompressionDeflate = "deflate"
)

type Config struct {
	// URL is host:port with an optional base path, without scheme
	URL     string
	Verbose bool
	SSL     bool
	// InsecureSkipVerify disables server certificate verification when SSL is set
	InsecureSkipVerify bool
	// Headers are sent with every request, per-call headers override them
	Headers             map[string]string
	BinaryData          bool
	RequestCompression  string
	ResponseCompression string
	// Timeout of zero means no client side timeout
	Timeout time.Duration
}

var clientEnvKeys = []string{
	"URL", "VERBOSE", "SSL", "INSECURE", "BINARY_DATA",
	"REQUEST_COMPRESSION", "RESPONSE_COMPRESSION", "TIMEOUT_MS",
}

// GetClientConfigs reads and validates a client config from env keys under prefix
func GetClientConfigs(prefix string) (*Config, error) {
	conf, err := ReadClientConfigs(prefix)
	if err != nil {
		return nil, err
	}
	if _, _, err := validateConfig(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// ReadClientConfigs reads a client config from env keys under prefix without validating
// it, for callers that apply their own overrides first
func ReadClientConfigs(prefix string) (*Config, error) {
	config.InitEnv()
	for _, key := range clientEnvKeys {
		if err := viper.BindEnv(prefix + key); err != nil {
			return nil, fmt.Errorf("%w: failed to bind %s: %v", ErrInvalidConfig, prefix+key, err)
		}
	}
	viper.SetDefault(prefix+"URL", DefaultURL)
	viper.SetDefault(prefix+"BINARY_DATA", DefaultBinaryData)

	conf := &Config{
		URL:                 viper.GetString(prefix + "URL"),
		Verbose:             viper.GetBool(prefix + "VERBOSE"),
		SSL:                 viper.GetBool(prefix + "SSL"),
		InsecureSkipVerify:  viper.GetBool(prefix + "INSECURE"),
		BinaryData:          viper.GetBool(prefix + "BINARY_DATA"),
		RequestCompression:  viper.GetString(prefix + "REQUEST_COMPRESSION"),
		ResponseCompression: viper.GetString(prefix + "RESPONSE_COMPRESSION"),
		Timeout:             time.Duration(viper.GetInt64(prefix+"TIMEOUT_MS")) * time.Millisecond,
	}
	return conf, nil
}

// validateConfig checks conf and returns the host:port and base path of the endpoint
func validateConfig(conf *Config) (string, string, error) {
	if conf == nil {
		return "", "", fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if len(conf.URL) == 0 {
		return "", "", fmt.Errorf("%w: url is empty", ErrInvalidConfig)
	}
	if strings.Contains(conf.URL, "://") {
		return "", "", fmt.Errorf("%w: url should not include the scheme, got %q", ErrInvalidConfig, conf.URL)
	}
	hostPort, basePath, _ := strings.Cut(conf.URL, "/")
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(host) == 0 {
		return "", "", fmt.Errorf("%w: host is empty in %q", ErrInvalidConfig, conf.URL)
	}
	if strings.ContainsAny(host, " \t") {
		return "", "", fmt.Errorf("%w: invalid host %q", ErrInvalidConfig, host)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum <= 0 || portNum > 65535 {
		return "", "", fmt.Errorf("%w: invalid port %q in %q", ErrInvalidConfig, port, conf.URL)
	}
	if conf.Timeout < 0 {
		return "", "", fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	if !isSupportedCompression(conf.RequestCompression) {
		return "", "", fmt.Errorf("%w: unsupported request compression %q", ErrInvalidConfig, conf.RequestCompression)
	}
	if !isSupportedCompression(conf.ResponseCompression) {
		return "", "", fmt.Errorf("%w: unsupported response compression %q", ErrInvalidConfig, conf.ResponseCompression)
	}
	return hostPort, strings.Trim(basePath, "/"), nil
}

func isSupportedCompression(algorithm string) bool {
	switch algorithm {
	case CompressionNone, CompressionGzip, CompressionDeflate:
		return true
	default:
		return false
	}
}
