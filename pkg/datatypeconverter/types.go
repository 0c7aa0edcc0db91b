package datatypeconverter

import "errors"

// Tensor datatypes of the v2 inference protocol
const (
	DataTypeBool   = "BOOL"
	DataTypeUint8  = "UINT8"
	DataTypeUint16 = "UINT16"
	DataTypeUint32 = "UINT32"
	DataTypeUint64 = "UINT64"
	DataTypeInt8   = "INT8"
	DataTypeInt16  = "INT16"
	DataTypeInt32  = "INT32"
	DataTypeInt64  = "INT64"
	DataTypeFP16   = "FP16"
	DataTypeFP32   = "FP32"
	DataTypeFP64   = "FP64"
	DataTypeBytes  = "BYTES"
)

var ErrUnsupportedDatatype = errors.New("unsupported datatype")

var elementSizeMap = map[string]int{
	DataTypeFP64:   8,
	DataTypeFP32:   4,
	DataTypeFP16:   2,
	DataTypeUint64: 8,
	DataTypeUint32: 4,
	DataTypeUint16: 2,
	DataTypeUint8:  1,
	DataTypeInt64:  8,
	DataTypeInt32:  4,
	DataTypeInt16:  2,
	DataTypeInt8:   1,
	DataTypeBool:   1,
}

// GetElementSize returns the fixed byte width of one element, 0 for BYTES and unknown types
func GetElementSize(datatype string) int {
	if size, ok := elementSizeMap[datatype]; ok {
		return size
	}
	return 0
}

// ElementCount returns the number of elements described by shape.
// A negative dimension yields -1.
func ElementCount(shape []int64) int64 {
	count := int64(1)
	for _, dim := range shape {
		if dim < 0 {
			return -1
		}
		count *= dim
	}
	return count
}
