package predator

import (
	"fmt"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/datatypeconverter"
)

const (
	// HeaderInferenceContentLength carries the byte length of the JSON header when
	// binary tensor data follows it in the body
	HeaderInferenceContentLength = "Inference-Header-Content-Length"

	ParamBinaryData     = "binary_data"
	ParamBinaryDataSize = "binary_data_size"
	ParamClassification = "classification"
)

// InferInput is one named input tensor of a request
type InferInput struct {
	Name     string
	Shape    []int64
	Datatype string

	values []float32
	binary bool
}

func NewInferInput(name string, shape []int64, datatype string) *InferInput {
	return &InferInput{Name: name, Shape: shape, Datatype: datatype}
}

// SetDataFromFloat32 sets the tensor contents. The number of values must match the shape.
// With binary set the tensor travels as raw little-endian bytes after the JSON header.
func (i *InferInput) SetDataFromFloat32(values []float32, binary bool) error {
	if i.Datatype != datatypeconverter.DataTypeFP32 && i.Datatype != datatypeconverter.DataTypeFP16 {
		return fmt.Errorf("%w: input %s has datatype %s, float32 data requires FP32 or FP16",
			datatypeconverter.ErrUnsupportedDatatype, i.Name, i.Datatype)
	}
	expected := datatypeconverter.ElementCount(i.Shape)
	if expected < 0 || int64(len(values)) != expected {
		return fmt.Errorf("input %s expects %d elements for shape %v, got %d", i.Name, expected, i.Shape, len(values))
	}
	i.values = values
	i.binary = binary
	return nil
}

// Data returns the values set with SetDataFromFloat32
func (i *InferInput) Data() []float32 {
	return i.values
}

func (i *InferInput) IsBinary() bool {
	return i.binary
}

// InferRequestedOutput names an output tensor the server should return
type InferRequestedOutput struct {
	Name       string
	BinaryData bool
	ClassCount int
}

func NewInferRequestedOutput(name string, binaryData bool) *InferRequestedOutput {
	return &InferRequestedOutput{Name: name, BinaryData: binaryData}
}

type InferRequest struct {
	ModelName    string
	ModelVersion string
	RequestID    string
	Inputs       []*InferInput
	Outputs      []*InferRequestedOutput
	Parameters   map[string]interface{}
}

// Wire format of the v2 inference protocol

type RequestInput struct {
	Name       string                 `json:"name"`
	Shape      []int64                `json:"shape"`
	Datatype   string                 `json:"datatype"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Data       []float32              `json:"data,omitempty"`
}

type RequestOutput struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

type InferRequestHeader struct {
	ID         string                 `json:"id,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Inputs     []RequestInput         `json:"inputs"`
	Outputs    []RequestOutput        `json:"outputs,omitempty"`
}

type TensorParameters struct {
	BinaryDataSize int64 `json:"binary_data_size,omitempty"`
	BinaryData     bool  `json:"binary_data,omitempty"`
	Classification int   `json:"classification,omitempty"`
}

// WireInput is the server side view of a request input
type WireInput struct {
	Name       string           `json:"name"`
	Shape      []int64          `json:"shape"`
	Datatype   string           `json:"datatype"`
	Parameters TensorParameters `json:"parameters"`
	Data       []interface{}    `json:"data,omitempty"`
}

type WireOutputRequest struct {
	Name       string           `json:"name"`
	Parameters TensorParameters `json:"parameters"`
}

// WireRequest is the server side view of a request header
type WireRequest struct {
	ID      string              `json:"id,omitempty"`
	Inputs  []WireInput         `json:"inputs"`
	Outputs []WireOutputRequest `json:"outputs,omitempty"`
}

type ResponseOutput struct {
	Name       string            `json:"name"`
	Datatype   string            `json:"datatype"`
	Shape      []int64           `json:"shape"`
	Parameters *TensorParameters `json:"parameters,omitempty"`
	Data       []interface{}     `json:"data,omitempty"`
}

type InferResponseHeader struct {
	ModelName    string                 `json:"model_name"`
	ModelVersion string                 `json:"model_version,omitempty"`
	ID           string                 `json:"id,omitempty"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
	Outputs      []ResponseOutput       `json:"outputs"`
}

// OutputTensor is one decoded output of a response
type OutputTensor struct {
	Name     string
	Datatype string
	Shape    []int64
	// Raw holds the binary tensor data, nil when the output came back as JSON
	Raw  []byte
	Data []interface{}
}

// AsFloat32 converts the tensor contents to float32 regardless of the wire encoding
func (o *OutputTensor) AsFloat32() ([]float32, error) {
	if o.Raw != nil {
		return datatypeconverter.BytesToFloat32Slice(o.Raw, o.Datatype)
	}
	return datatypeconverter.NumbersToFloat32Slice(o.Data)
}

// InferResult is the decoded response of an infer call
type InferResult struct {
	ModelName    string
	ModelVersion string
	ID           string

	outputs map[string]*OutputTensor
	order   []string
	header  []byte
	body    []byte
}

// Output returns the named output tensor
func (r *InferResult) Output(name string) (*OutputTensor, bool) {
	out, ok := r.outputs[name]
	return out, ok
}

// OutputNames lists outputs in response order
func (r *InferResult) OutputNames() []string {
	return append([]string(nil), r.order...)
}

// AsFloat32 returns the named output as a flat float32 array
func (r *InferResult) AsFloat32(name string) ([]float32, error) {
	out, ok := r.outputs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputNotFound, name)
	}
	values, err := out.AsFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to decode output %s: %w", name, err)
	}
	return values, nil
}

// GetResponse returns the JSON header of the response as a generic map
func (r *InferResult) GetResponse() (map[string]interface{}, error) {
	resp := make(map[string]interface{})
	if err := json.Unmarshal(r.header, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response header: %w", err)
	}
	return resp, nil
}

// ResponseBody returns the body as received, after decompression
func (r *InferResult) ResponseBody() []byte {
	return r.body
}

type StatDuration struct {
	Count uint64 `json:"count"`
	Ns    uint64 `json:"ns"`
}

type InferStatistics struct {
	Success       StatDuration `json:"success"`
	Fail          StatDuration `json:"fail"`
	Queue         StatDuration `json:"queue"`
	ComputeInput  StatDuration `json:"compute_input"`
	ComputeInfer  StatDuration `json:"compute_infer"`
	ComputeOutput StatDuration `json:"compute_output"`
	CacheHit      StatDuration `json:"cache_hit"`
	CacheMiss     StatDuration `json:"cache_miss"`
}

type InferBatchStatistics struct {
	BatchSize     uint64       `json:"batch_size"`
	ComputeInput  StatDuration `json:"compute_input"`
	ComputeInfer  StatDuration `json:"compute_infer"`
	ComputeOutput StatDuration `json:"compute_output"`
}

type ModelStatistics struct {
	Name           string                 `json:"name"`
	Version        string                 `json:"version"`
	LastInference  uint64                 `json:"last_inference"`
	InferenceCount uint64                 `json:"inference_count"`
	ExecutionCount uint64                 `json:"execution_count"`
	InferenceStats InferStatistics        `json:"inference_stats"`
	BatchStats     []InferBatchStatistics `json:"batch_stats"`
}

type InferenceStatistics struct {
	ModelStats []ModelStatistics `json:"model_stats"`
	// Raw is the response body the statistics were decoded from
	Raw []byte `json:"-"`
}
