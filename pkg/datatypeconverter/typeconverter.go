package datatypeconverter

import (
	"encoding/binary"
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"
	"github.com/x448/float16"
)

// Float32SliceToBytes encodes values as little-endian FP32 or FP16
func Float32SliceToBytes(values []float32, datatype string) ([]byte, error) {
	switch datatype {
	case DataTypeFP32:
		buf := make([]byte, len(values)*4)
		for i, v := range values {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		return buf, nil
	case DataTypeFP16:
		buf := make([]byte, len(values)*2)
		for i, v := range values {
			binary.LittleEndian.PutUint16(buf[i*2:], float16.Fromfloat32(v).Bits())
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode float32 values as %s", ErrUnsupportedDatatype, datatype)
	}
}

// BytesToFloat32Slice decodes a little-endian tensor of the given datatype into float32 values
func BytesToFloat32Slice(data []byte, datatype string) ([]float32, error) {
	size := GetElementSize(datatype)
	if size == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDatatype, datatype)
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("invalid byte length %d for %s, expected a multiple of %d", len(data), datatype, size)
	}
	n := len(data) / size
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		b := data[i*size : (i+1)*size]
		switch datatype {
		case DataTypeFP32:
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b))
		case DataTypeFP16:
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(b)).Float32()
		case DataTypeFP64:
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
		case DataTypeInt8:
			out[i] = float32(int8(b[0]))
		case DataTypeInt16:
			out[i] = float32(int16(binary.LittleEndian.Uint16(b)))
		case DataTypeInt32:
			out[i] = float32(int32(binary.LittleEndian.Uint32(b)))
		case DataTypeInt64:
			out[i] = float32(int64(binary.LittleEndian.Uint64(b)))
		case DataTypeUint8:
			out[i] = float32(b[0])
		case DataTypeUint16:
			out[i] = float32(binary.LittleEndian.Uint16(b))
		case DataTypeUint32:
			out[i] = float32(binary.LittleEndian.Uint32(b))
		case DataTypeUint64:
			out[i] = float32(binary.LittleEndian.Uint64(b))
		case DataTypeBool:
			if b[0] != 0 {
				out[i] = 1
			}
		}
	}
	return out, nil
}

// NumbersToFloat32Slice converts the "data" array of a JSON encoded tensor.
// Nested arrays are flattened in row-major order.
func NumbersToFloat32Slice(values []interface{}) ([]float32, error) {
	out := make([]float32, 0, len(values))
	var walk func(vs []interface{}) error
	walk = func(vs []interface{}) error {
		for _, v := range vs {
			switch t := v.(type) {
			case float64:
				out = append(out, float32(t))
			case float32:
				out = append(out, t)
			case int:
				out = append(out, float32(t))
			case int64:
				out = append(out, float32(t))
			case jsoniter.Number:
				f, err := t.Float64()
				if err != nil {
					return fmt.Errorf("invalid number %q: %w", string(t), err)
				}
				out = append(out, float32(f))
			case bool:
				if t {
					out = append(out, 1)
				} else {
					out = append(out, 0)
				}
			case []interface{}:
				if err := walk(t); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: non numeric tensor element %v (%T)", ErrUnsupportedDatatype, v, v)
			}
		}
		return nil
	}
	if err := walk(values); err != nil {
		return nil, err
	}
	return out, nil
}
