package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Meesho/BharatMLStack/predator-probe/internal/probe"
	"github.com/Meesho/BharatMLStack/predator-probe/pkg/config"
	"github.com/Meesho/BharatMLStack/predator-probe/pkg/logger"
	"github.com/Meesho/BharatMLStack/predator-probe/pkg/metric"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	appName = "predator-probe"

	envURL        = "PROBE_URL"
	envVerbose    = "PROBE_VERBOSE"
	envSSL        = "PROBE_SSL"
	envBinaryData = "PROBE_BINARY_DATA"

	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n%s", appName, flags.FlagUsages())
	}
	flags.BoolP("verbose", "v", false, "Enable verbose output")
	useCustomModel := flags.BoolP("use_custom_model", "c", false, "Use custom model")
	flags.StringP("url", "u", probe.DefaultURL, "Inference server URL. Default is localhost:8000.")
	flags.BoolP("ssl", "s", false, "Enable encrypted link to the server using HTTPS")
	rawHeaders := flags.StringArrayP("http-header", "H", nil, `HTTP headers to add to inference server requests. Format is -H"Header:Value".`)
	flags.Bool("binary-data", true, "Send and receive tensors with the binary data extension")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return probe.ExitSuccess
		}
		return exitUsage
	}

	headers, err := probe.ParseHeaders(*rawHeaders)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		flags.Usage()
		return exitUsage
	}

	viper.SetDefault(envBinaryData, true)
	if err := config.BindFlags(flags, map[string]string{
		envURL:        "url",
		envVerbose:    "verbose",
		envSSL:        "ssl",
		envBinaryData: "binary-data",
	}); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return exitUsage
	}

	cfg, err := config.Load(appName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return probe.ExitFailure
	}
	verbose := viper.GetBool(envVerbose)
	if verbose {
		cfg.AppLogLevel = "DEBUG"
	}
	if err := logger.Init(cfg, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return probe.ExitFailure
	}
	if err := metric.Init(cfg); err != nil {
		log.Warn().Err(err).Msg("Metrics client initialization failed, continuing without metrics")
	}
	defer metric.Close()

	// an empty URL leaves the endpoint to PREDATOR_HTTP_CLIENT_V1_URL
	url := ""
	if viper.IsSet(envURL) {
		url = viper.GetString(envURL)
	}
	opts := probe.Options{
		URL:            url,
		Verbose:        verbose,
		UseCustomModel: *useCustomModel,
		SSL:            viper.GetBool(envSSL),
		Headers:        headers,
		BinaryData:     viper.GetBool(envBinaryData),
	}
	return probe.Run(context.Background(), opts, nil, os.Stdout)
}
