package predator

import (
	"bytes"
	"fmt"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/datatypeconverter"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type IAdapter interface {
	MapInferRequestToBody(req *InferRequest) ([]byte, int, error)
	MapBodyToInferResult(body []byte, headerLength int) (*InferResult, error)
	MapBodyToStatistics(body []byte) (*InferenceStatistics, error)
}

type Adapter struct{}

// MapInferRequestToBody builds the request body. The returned header length is the
// size of the JSON part when binary input data follows it, and -1 for a pure JSON body.
func (a *Adapter) MapInferRequestToBody(req *InferRequest) ([]byte, int, error) {
	header := InferRequestHeader{
		ID:         req.RequestID,
		Parameters: req.Parameters,
		Inputs:     make([]RequestInput, 0, len(req.Inputs)),
		Outputs:    make([]RequestOutput, 0, len(req.Outputs)),
	}

	var binaryData bytes.Buffer
	for _, input := range req.Inputs {
		if input == nil {
			return nil, 0, fmt.Errorf("request for model %s contains a nil input", req.ModelName)
		}
		wireInput := RequestInput{
			Name:     input.Name,
			Shape:    input.Shape,
			Datatype: input.Datatype,
		}
		if input.binary {
			raw, err := datatypeconverter.Float32SliceToBytes(input.values, input.Datatype)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to encode input %s: %w", input.Name, err)
			}
			wireInput.Parameters = map[string]interface{}{ParamBinaryDataSize: len(raw)}
			binaryData.Write(raw)
		} else {
			wireInput.Data = input.values
		}
		header.Inputs = append(header.Inputs, wireInput)
	}

	for _, output := range req.Outputs {
		if output == nil {
			return nil, 0, fmt.Errorf("request for model %s contains a nil output", req.ModelName)
		}
		wireOutput := RequestOutput{Name: output.Name}
		params := make(map[string]interface{})
		if output.BinaryData {
			params[ParamBinaryData] = true
		}
		if output.ClassCount > 0 {
			params[ParamClassification] = output.ClassCount
		}
		if len(params) > 0 {
			wireOutput.Parameters = params
		}
		header.Outputs = append(header.Outputs, wireOutput)
	}

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal infer request header: %w", err)
	}
	if binaryData.Len() == 0 {
		return headerBytes, -1, nil
	}
	body := make([]byte, 0, len(headerBytes)+binaryData.Len())
	body = append(body, headerBytes...)
	body = append(body, binaryData.Bytes()...)
	return body, len(headerBytes), nil
}

// MapBodyToInferResult splits body into the JSON header and the binary section and
// attaches each binary chunk to its output in order. headerLength < 0 means the whole
// body is JSON.
func (a *Adapter) MapBodyToInferResult(body []byte, headerLength int) (*InferResult, error) {
	headerBytes, binarySection, err := SplitBody(body, headerLength)
	if err != nil {
		return nil, err
	}

	var header InferResponseHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("failed to decode infer response: %w", err)
	}

	result := &InferResult{
		ModelName:    header.ModelName,
		ModelVersion: header.ModelVersion,
		ID:           header.ID,
		outputs:      make(map[string]*OutputTensor, len(header.Outputs)),
		order:        make([]string, 0, len(header.Outputs)),
		header:       headerBytes,
		body:         body,
	}

	offset := int64(0)
	for _, output := range header.Outputs {
		tensor := &OutputTensor{
			Name:     output.Name,
			Datatype: output.Datatype,
			Shape:    output.Shape,
			Data:     output.Data,
		}
		if output.Parameters != nil && output.Parameters.BinaryDataSize > 0 {
			size := output.Parameters.BinaryDataSize
			if offset+size > int64(len(binarySection)) {
				return nil, fmt.Errorf("output %s declares %d bytes of binary data but only %d remain",
					output.Name, size, int64(len(binarySection))-offset)
			}
			tensor.Raw = binarySection[offset : offset+size]
			offset += size
		}
		result.outputs[output.Name] = tensor
		result.order = append(result.order, output.Name)
	}
	return result, nil
}

func (a *Adapter) MapBodyToStatistics(body []byte) (*InferenceStatistics, error) {
	stats := &InferenceStatistics{}
	if err := json.Unmarshal(body, stats); err != nil {
		return nil, fmt.Errorf("failed to decode inference statistics: %w", err)
	}
	stats.Raw = body
	return stats, nil
}

// SplitBody separates the JSON header from the trailing binary tensor data
func SplitBody(body []byte, headerLength int) ([]byte, []byte, error) {
	if headerLength < 0 {
		return body, nil, nil
	}
	if headerLength > len(body) {
		return nil, nil, fmt.Errorf("%s %d exceeds body length %d", HeaderInferenceContentLength, headerLength, len(body))
	}
	return body[:headerLength], body[headerLength:], nil
}
