package probe

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/clients/predator"
	"github.com/Meesho/BharatMLStack/predator-probe/pkg/datatypeconverter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	for _, binary := range []bool{true, false} {
		t.Run(fmt.Sprintf("binary=%v", binary), func(t *testing.T) {
			req, err := BuildRequest(rand.New(rand.NewPCG(1, 2)), binary)
			require.NoError(t, err)
			assert.Equal(t, ModelName, req.ModelName)
			assert.Empty(t, req.ModelVersion)

			require.Len(t, req.Inputs, 1)
			input := req.Inputs[0]
			assert.Equal(t, InputName, input.Name)
			assert.Equal(t, []int64{1, 3, 1280, 1280}, input.Shape)
			assert.Equal(t, datatypeconverter.DataTypeFP32, input.Datatype)
			assert.Equal(t, binary, input.IsBinary())

			values := input.Data()
			require.Len(t, values, 1*3*1280*1280)
			for _, v := range values {
				if v < 0 || v >= 1 {
					t.Fatalf("value %v out of [0, 1)", v)
				}
			}

			names := make([]string, 0, len(req.Outputs))
			for _, output := range req.Outputs {
				names = append(names, output.Name)
				assert.Equal(t, binary, output.BinaryData)
			}
			assert.Equal(t, OutputNames, names)
		})
	}
}

func TestBuildRequest_Deterministic(t *testing.T) {
	first, err := BuildRequest(rand.New(rand.NewPCG(7, 7)), true)
	require.NoError(t, err)
	second, err := BuildRequest(rand.New(rand.NewPCG(7, 7)), true)
	require.NoError(t, err)
	assert.Equal(t, first.Inputs[0].Data()[:64], second.Inputs[0].Data()[:64])

	third, err := BuildRequest(rand.New(rand.NewPCG(8, 8)), true)
	require.NoError(t, err)
	assert.NotEqual(t, first.Inputs[0].Data()[:64], third.Inputs[0].Data()[:64])
}

func TestBuildRequest_DefaultSource(t *testing.T) {
	req, err := BuildRequest(nil, true)
	require.NoError(t, err)
	assert.Len(t, req.Inputs[0].Data(), 4915200)
	// the fixed shape must not be shared with the request
	req.Inputs[0].Shape[0] = 2
	assert.Equal(t, int64(1), InputShape[0])
}

// resultWith builds a JSON infer result carrying the given outputs
func resultWith(t *testing.T, names []string) *predator.InferResult {
	t.Helper()
	outputs := make([]string, 0, len(names))
	for _, name := range names {
		outputs = append(outputs, fmt.Sprintf(`{"name":%q,"datatype":"FP32","shape":[1,2],"data":[0.1,0.9]}`, name))
	}
	body := `{"model_name":"` + ModelName + `","model_version":"1","outputs":[` + strings.Join(outputs, ",") + `]}`
	result, err := (&predator.Adapter{}).MapBodyToInferResult([]byte(body), -1)
	require.NoError(t, err)
	return result
}

func TestExtractOutputs_AllPresent(t *testing.T) {
	outputs, err := ExtractOutputs(resultWith(t, OutputNames), OutputNames)
	require.NoError(t, err)
	require.Len(t, outputs, len(OutputNames))
	for _, name := range OutputNames {
		assert.Equal(t, []float32{0.1, 0.9}, outputs[name])
	}
}

func TestExtractOutputs_EveryMissingSubset(t *testing.T) {
	for mask := 1; mask < 1<<len(OutputNames); mask++ {
		var present, missing []string
		for i, name := range OutputNames {
			if mask&(1<<i) != 0 {
				missing = append(missing, name)
			} else {
				present = append(present, name)
			}
		}
		_, err := ExtractOutputs(resultWith(t, present), OutputNames)

		var missingErr *MissingOutputError
		require.True(t, errors.As(err, &missingErr), "mask %b", mask)
		sort.Strings(missing)
		require.Equal(t, missing, missingErr.Names, "mask %b", mask)
	}
}

func TestValidateStatistics(t *testing.T) {
	tests := []struct {
		name     string
		stats    *predator.InferenceStatistics
		expected bool
	}{
		{name: "nil", stats: nil, expected: false},
		{name: "zero records", stats: &predator.InferenceStatistics{}, expected: false},
		{name: "one record", stats: &predator.InferenceStatistics{ModelStats: make([]predator.ModelStatistics, 1)}, expected: true},
		{name: "two records", stats: &predator.InferenceStatistics{ModelStats: make([]predator.ModelStatistics, 2)}, expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateStatistics(tt.stats, ExpectedStat))
		})
	}
}

func TestConnect(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "default", url: DefaultURL},
		{name: "unreachable host is not checked", url: "10.255.255.1:8000"},
		{name: "scheme", url: "http://localhost:8000", wantErr: true},
		{name: "no port", url: "localhost", wantErr: true},
		{name: "empty falls back to env default", url: ""},
		{name: "garbage", url: "not a url::", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := Connect(Options{URL: tt.url})
			if !tt.wantErr {
				require.NoError(t, err)
				client.Close()
				return
			}
			var connErr *ConnectionError
			require.True(t, errors.As(err, &connErr))
			assert.Equal(t, tt.url, connErr.URL)
			assert.ErrorIs(t, err, predator.ErrInvalidConfig)
			assert.Nil(t, client)
		})
	}
}

func TestOptions_ClientConfig(t *testing.T) {
	conf, err := Options{URL: "h:1", SSL: true, Verbose: true, BinaryData: true}.ClientConfig()
	require.NoError(t, err)
	assert.Equal(t, "h:1", conf.URL)
	assert.True(t, conf.SSL)
	assert.True(t, conf.InsecureSkipVerify)
	assert.True(t, conf.Verbose)
	assert.True(t, conf.BinaryData)

	conf, err = Options{URL: "h:1"}.ClientConfig()
	require.NoError(t, err)
	assert.False(t, conf.SSL)
	assert.False(t, conf.InsecureSkipVerify)
	assert.False(t, conf.BinaryData)
}

func TestOptions_ClientConfigFromEnv(t *testing.T) {
	t.Setenv(predator.V1Prefix+"URL", "triton.svc:9000")
	t.Setenv(predator.V1Prefix+"TIMEOUT_MS", "1500")
	t.Setenv(predator.V1Prefix+"REQUEST_COMPRESSION", "gzip")
	t.Setenv(predator.V1Prefix+"RESPONSE_COMPRESSION", "gzip")

	conf, err := Options{BinaryData: true}.ClientConfig()
	require.NoError(t, err)
	assert.Equal(t, "triton.svc:9000", conf.URL)
	assert.Equal(t, 1500*time.Millisecond, conf.Timeout)
	assert.Equal(t, predator.CompressionGzip, conf.RequestCompression)
	assert.Equal(t, predator.CompressionGzip, conf.ResponseCompression)

	// the URL flag wins over the env
	conf, err = Options{URL: "localhost:8001"}.ClientConfig()
	require.NoError(t, err)
	assert.Equal(t, "localhost:8001", conf.URL)
	assert.Equal(t, 1500*time.Millisecond, conf.Timeout)
}

func TestConnect_EnvURL(t *testing.T) {
	t.Setenv(predator.V1Prefix+"URL", "triton.svc:9000/gateway")
	client, err := Connect(Options{})
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "http://triton.svc:9000/gateway", client.(*predator.ClientV1).BaseURL())

	t.Setenv(predator.V1Prefix+"URL", "http://triton.svc:9000")
	_, err = Connect(Options{})
	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, "http://triton.svc:9000", connErr.URL)
}

func TestServerError(t *testing.T) {
	err := &ServerError{Op: "infer", Err: &predator.InferenceServerError{StatusCode: 400, Message: "bad input"}}
	assert.Equal(t, "bad input", err.Message())
	assert.Equal(t, 400, err.StatusCode())
	assert.Equal(t, "infer failed: bad input", err.Error())

	transport := &ServerError{Op: "infer", Err: errors.New("connection refused")}
	assert.Equal(t, "connection refused", transport.Message())
	assert.Zero(t, transport.StatusCode())
}
