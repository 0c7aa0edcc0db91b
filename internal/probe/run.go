package probe

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/metric"
	"github.com/rs/zerolog/log"
)

const (
	ExitSuccess = 0
	ExitFailure = 1

	msgChannelCreationFailed = "channel creation failed: "
	msgStatisticsFailed      = "FAILED: Inference Statistics"
)

// Run executes the probe once and returns the process exit code. Results and failure
// messages are printed to out.
func Run(ctx context.Context, opts Options, rng Float32Source, out io.Writer) int {
	code := run(ctx, opts, rng, out)
	result := "success"
	if code != ExitSuccess {
		result = "failure"
	}
	metric.Incr(metric.ProbeRunCount, metric.BuildTag(
		metric.NewTag(metric.TagModelName, ModelName),
		metric.NewTag(metric.TagResult, result),
	))
	return code
}

func run(ctx context.Context, opts Options, rng Float32Source, out io.Writer) int {
	if opts.UseCustomModel {
		log.Debug().Msg("use_custom_model is set, it has no effect")
	}

	client, err := Connect(opts)
	if err != nil {
		log.Error().Err(err).Msg("Client creation failed")
		fmt.Fprintln(out, msgChannelCreationFailed+errors.Unwrap(err).Error())
		return ExitFailure
	}
	defer client.Close()

	req, err := BuildRequest(rng, opts.BinaryData)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build inference request")
		fmt.Fprintln(out, err.Error())
		return ExitFailure
	}

	result, err := Infer(ctx, client, req, opts.Headers)
	if err != nil {
		return fail(out, err)
	}

	outputs, err := ExtractOutputs(result, OutputNames)
	if err != nil {
		return fail(out, err)
	}
	metric.Count(metric.ProbeOutputCount, int64(len(outputs)), metric.BuildTag(metric.NewTag(metric.TagModelName, ModelName)))
	log.Info().Str("model", result.ModelName).Str("version", result.ModelVersion).Int("outputs", len(outputs)).Msg("Inference succeeded")

	stats, err := GetStatistics(ctx, client, ModelName, opts.Headers)
	if err != nil {
		return fail(out, err)
	}
	fmt.Fprintln(out, string(stats.Raw))
	metric.Gauge(metric.ProbeStatsRecordCount, float64(len(stats.ModelStats)), metric.BuildTag(metric.NewTag(metric.TagModelName, ModelName)))

	if !ValidateStatistics(stats, ExpectedStat) {
		err := &ValidationError{Model: ModelName, Expected: ExpectedStat, Actual: len(stats.ModelStats)}
		log.Error().Err(err).Msg("Statistics validation failed")
		fmt.Fprintln(out, msgStatisticsFailed)
		return ExitFailure
	}
	return ExitSuccess
}

func fail(out io.Writer, err error) int {
	log.Error().Err(err).Msg("Probe failed")
	fmt.Fprintln(out, err.Error())
	return ExitFailure
}
