package probe

import (
	"context"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/clients/predator"
	"github.com/Meesho/BharatMLStack/predator-probe/pkg/datatypeconverter"
	"github.com/rs/zerolog/log"
)

const (
	ModelName    = "retinanet_rn50fpn"
	InputName    = "input_1"
	InputType    = datatypeconverter.DataTypeFP32
	DefaultURL   = predator.DefaultURL
	ExpectedStat = 1
)

var (
	InputShape  = []int64{1, 3, 1280, 1280}
	OutputNames = []string{
		"box_1", "box_2", "box_3", "box_4", "box_5",
		"score_1", "score_2", "score_3", "score_4", "score_5",
	}
)

// Float32Source yields values in [0, 1). *rand.Rand from math/rand and math/rand/v2 both satisfy it.
type Float32Source interface {
	Float32() float32
}

type Options struct {
	// URL overrides PREDATOR_HTTP_CLIENT_V1_URL when set
	URL     string
	Verbose bool
	// UseCustomModel is accepted for command line compatibility and has no effect
	UseCustomModel bool
	SSL            bool
	Headers        map[string]string
	BinaryData     bool
}

// ClientConfig starts from the PREDATOR_HTTP_CLIENT_V1_ env config and applies the options
// on top. SSL from the options skips certificate verification.
func (o Options) ClientConfig() (*predator.Config, error) {
	conf, err := predator.ReadClientConfigs(predator.V1Prefix)
	if err != nil {
		return nil, err
	}
	if len(o.URL) > 0 {
		conf.URL = o.URL
	}
	conf.Verbose = conf.Verbose || o.Verbose
	if o.SSL {
		conf.SSL = true
		conf.InsecureSkipVerify = true
	}
	conf.BinaryData = o.BinaryData
	return conf, nil
}

// Connect builds a client bound to opts.URL
func Connect(opts Options) (predator.Client, error) {
	conf, err := opts.ClientConfig()
	if err != nil {
		return nil, &ConnectionError{URL: opts.URL, Err: err}
	}
	client, err := predator.NewClient(predator.Version1, conf)
	if err != nil {
		return nil, &ConnectionError{URL: conf.URL, Err: err}
	}
	return client, nil
}

// BuildRequest produces the fixed request with input data drawn from rng.
// A nil rng uses a time seeded source.
func BuildRequest(rng Float32Source, binaryData bool) (*predator.InferRequest, error) {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	values := make([]float32, datatypeconverter.ElementCount(InputShape))
	for i := range values {
		values[i] = rng.Float32()
	}

	input := predator.NewInferInput(InputName, append([]int64(nil), InputShape...), InputType)
	if err := input.SetDataFromFloat32(values, binaryData); err != nil {
		return nil, err
	}

	outputs := make([]*predator.InferRequestedOutput, 0, len(OutputNames))
	for _, name := range OutputNames {
		outputs = append(outputs, predator.NewInferRequestedOutput(name, binaryData))
	}

	return &predator.InferRequest{
		ModelName: ModelName,
		Inputs:    []*predator.InferInput{input},
		Outputs:   outputs,
	}, nil
}

// Infer sends req and waits for the response. There is no retry.
func Infer(ctx context.Context, client predator.Client, req *predator.InferRequest, headers map[string]string) (*predator.InferResult, error) {
	result, err := client.Infer(ctx, req, headers)
	if err != nil {
		return nil, &ServerError{Op: "infer", Err: err}
	}
	return result, nil
}

// ExtractOutputs decodes every named output. All missing names are reported together.
func ExtractOutputs(result *predator.InferResult, names []string) (map[string][]float32, error) {
	outputs := make(map[string][]float32, len(names))
	var missing []string
	for _, name := range names {
		if _, ok := result.Output(name); !ok {
			missing = append(missing, name)
			continue
		}
		values, err := result.AsFloat32(name)
		if err != nil {
			return nil, err
		}
		outputs[name] = values
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingOutputError{Names: missing}
	}
	log.Debug().Int("outputs", len(outputs)).Msg("Decoded inference outputs")
	return outputs, nil
}

func GetStatistics(ctx context.Context, client predator.Client, modelName string, headers map[string]string) (*predator.InferenceStatistics, error) {
	stats, err := client.GetInferenceStatistics(ctx, modelName, "", headers)
	if err != nil {
		return nil, &ServerError{Op: "get inference statistics", Err: err}
	}
	return stats, nil
}

// ValidateStatistics reports whether stats holds exactly expected model records
func ValidateStatistics(stats *predator.InferenceStatistics, expected int) bool {
	if stats == nil {
		return false
	}
	return len(stats.ModelStats) == expected
}
