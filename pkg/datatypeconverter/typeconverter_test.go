package datatypeconverter

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float32ToBytes(f float32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
	return buf
}

func TestGetElementSize(t *testing.T) {
	assert.Equal(t, 4, GetElementSize(DataTypeFP32))
	assert.Equal(t, 2, GetElementSize(DataTypeFP16))
	assert.Equal(t, 8, GetElementSize(DataTypeInt64))
	assert.Equal(t, 1, GetElementSize(DataTypeBool))
	assert.Equal(t, 0, GetElementSize(DataTypeBytes))
	assert.Equal(t, 0, GetElementSize("FP8"))
}

func TestElementCount(t *testing.T) {
	assert.Equal(t, int64(4915200), ElementCount([]int64{1, 3, 1280, 1280}))
	assert.Equal(t, int64(1), ElementCount(nil))
	assert.Equal(t, int64(0), ElementCount([]int64{0, 4}))
	assert.Equal(t, int64(-1), ElementCount([]int64{-1, 4}))
}

func TestFloat32SliceToBytes(t *testing.T) {
	tests := []struct {
		name     string
		values   []float32
		datatype string
		expected []byte
		wantErr  bool
	}{
		{
			name:     "fp32",
			values:   []float32{1, 2},
			datatype: DataTypeFP32,
			expected: []byte{0, 0, 128, 63, 0, 0, 0, 64},
		},
		{
			name:     "fp16",
			values:   []float32{1, 2},
			datatype: DataTypeFP16,
			expected: []byte{0, 60, 0, 64},
		},
		{
			name:     "empty",
			values:   []float32{},
			datatype: DataTypeFP32,
			expected: []byte{},
		},
		{
			name:     "unsupported",
			values:   []float32{1},
			datatype: DataTypeInt32,
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Float32SliceToBytes(tt.values, tt.datatype)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedDatatype)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBytesToFloat32Slice(t *testing.T) {
	fp32 := append(float32ToBytes(0.25), float32ToBytes(-3.5)...)
	fp64 := make([]byte, 8)
	binary.LittleEndian.PutUint64(fp64, math.Float64bits(1.5))
	int32s := []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}

	tests := []struct {
		name     string
		data     []byte
		datatype string
		expected []float32
		wantErr  bool
	}{
		{name: "fp32", data: fp32, datatype: DataTypeFP32, expected: []float32{0.25, -3.5}},
		{name: "fp16", data: []byte{0, 60, 0, 64}, datatype: DataTypeFP16, expected: []float32{1, 2}},
		{name: "fp64", data: fp64, datatype: DataTypeFP64, expected: []float32{1.5}},
		{name: "int32", data: int32s, datatype: DataTypeInt32, expected: []float32{1, -1}},
		{name: "int8", data: []byte{0xfe, 3}, datatype: DataTypeInt8, expected: []float32{-2, 3}},
		{name: "uint8", data: []byte{0xfe, 3}, datatype: DataTypeUint8, expected: []float32{254, 3}},
		{name: "bool", data: []byte{0, 1, 7}, datatype: DataTypeBool, expected: []float32{0, 1, 1}},
		{name: "empty", data: []byte{}, datatype: DataTypeFP32, expected: []float32{}},
		{name: "truncated", data: []byte{0, 0, 128}, datatype: DataTypeFP32, wantErr: true},
		{name: "bytes", data: []byte("abc"), datatype: DataTypeBytes, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BytesToFloat32Slice(tt.data, tt.datatype)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	values := []float32{0, 0.5, 0.999, 123.25}
	data, err := Float32SliceToBytes(values, DataTypeFP32)
	require.NoError(t, err)
	got, err := BytesToFloat32Slice(data, DataTypeFP32)
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestNumbersToFloat32Slice(t *testing.T) {
	got, err := NumbersToFloat32Slice([]interface{}{1.5, []interface{}{2.0, true}, false})
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, 2, 1, 0}, got)

	_, err = NumbersToFloat32Slice([]interface{}{"abc"})
	assert.ErrorIs(t, err, ErrUnsupportedDatatype)
}
