package dummy

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/clients/predator"
	"github.com/Meesho/BharatMLStack/predator-probe/pkg/datatypeconverter"
	"github.com/Meesho/BharatMLStack/predator-probe/pkg/httpframework"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultModelVersion = "1"
	defaultOutputName   = "output"
	DefaultNumScores    = 10
)

type Options struct {
	// Models the server knows about
	Models    []string
	NumScores int
	// DropOutputs are omitted from infer responses even when requested
	DropOutputs []string
	// StatsRecords forces the number of records returned by the stats endpoint when >= 0
	StatsRecords int
}

// DefaultOptions serves the given models with natural statistics
func DefaultOptions(models ...string) Options {
	return Options{Models: models, NumScores: DefaultNumScores, StatsRecords: -1}
}

// Server is a deterministic stand-in for a v2 protocol inference server
type Server struct {
	opts   Options
	drop   map[string]struct{}
	ledger *Ledger
}

func NewServer(opts Options) *Server {
	if opts.NumScores <= 0 {
		opts.NumScores = DefaultNumScores
	}
	drop := make(map[string]struct{}, len(opts.DropOutputs))
	for _, name := range opts.DropOutputs {
		drop[name] = struct{}{}
	}
	return &Server{opts: opts, drop: drop, ledger: NewLedger(opts.Models)}
}

func (s *Server) Ledger() *Ledger {
	return s.ledger
}

// Register adds the v2 protocol routes to router
func (s *Server) Register(router gin.IRoutes) {
	router.GET("/v2/health/live", s.health)
	router.GET("/v2/health/ready", s.health)
	router.GET("/v2/models/stats", s.stats)
	router.POST("/v2/models/:model/infer", s.infer)
	router.POST("/v2/models/:model/versions/:version/infer", s.infer)
	router.GET("/v2/models/:model/stats", s.stats)
	router.GET("/v2/models/:model/versions/:version/stats", s.stats)
}

// Handler returns a standalone engine serving the routes
func (s *Server) Handler() http.Handler {
	engine := httpframework.New()
	s.Register(engine)
	return engine
}

func (s *Server) health(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (s *Server) stats(c *gin.Context) {
	model := c.Param("model")
	if len(model) > 0 && !s.ledger.Has(model) {
		writeError(c, http.StatusBadRequest, fmt.Sprintf("requested model '%s' is not available", model))
		return
	}
	records := s.ledger.Snapshot(model)
	if s.opts.StatsRecords >= 0 {
		records = resizeRecords(records, model, s.opts.StatsRecords)
	}
	c.JSON(http.StatusOK, gin.H{"model_stats": records})
}

// resizeRecords pads or truncates records to exactly n entries
func resizeRecords(records []predator.ModelStatistics, model string, n int) []predator.ModelStatistics {
	if len(records) >= n {
		return records[:n]
	}
	out := append([]predator.ModelStatistics{}, records...)
	for i := len(records); i < n; i++ {
		out = append(out, predator.ModelStatistics{Name: model, Version: strconv.Itoa(i + 1)})
	}
	return out
}

func (s *Server) infer(c *gin.Context) {
	startTime := time.Now()
	model := c.Param("model")
	if !s.ledger.Has(model) {
		writeError(c, http.StatusBadRequest, fmt.Sprintf("requested model '%s' is not available", model))
		return
	}

	body, err := readBody(c.Request)
	if err != nil {
		s.ledger.RecordFailure(model, time.Since(startTime))
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	headerLength := -1
	if value := c.GetHeader(predator.HeaderInferenceContentLength); len(value) > 0 {
		headerLength, err = strconv.Atoi(value)
		if err != nil || headerLength < 0 {
			s.ledger.RecordFailure(model, time.Since(startTime))
			writeError(c, http.StatusBadRequest, fmt.Sprintf("invalid %s header %q", predator.HeaderInferenceContentLength, value))
			return
		}
	}

	queued := time.Now()
	req, inputs, err := decodeRequest(body, headerLength)
	if err != nil {
		s.ledger.RecordFailure(model, time.Since(startTime))
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	decoded := time.Now()

	hash := hashInputs(inputs)
	requested := req.Outputs
	if len(requested) == 0 {
		requested = []predator.WireOutputRequest{{Name: defaultOutputName, Parameters: predator.TensorParameters{BinaryData: true}}}
	}

	header := predator.InferResponseHeader{
		ModelName:    model,
		ModelVersion: defaultModelVersion,
		ID:           req.ID,
		Outputs:      make([]predator.ResponseOutput, 0, len(requested)),
	}
	var binarySection bytes.Buffer
	for _, output := range requested {
		if _, dropped := s.drop[output.Name]; dropped {
			continue
		}
		scores := generateScores(hash, output.Name, s.opts.NumScores)
		wireOutput := predator.ResponseOutput{
			Name:     output.Name,
			Datatype: datatypeconverter.DataTypeFP32,
			Shape:    []int64{1, int64(len(scores))},
		}
		if output.Parameters.BinaryData {
			raw, err := encodeScores(scores)
			if err != nil {
				s.ledger.RecordFailure(model, time.Since(startTime))
				writeError(c, http.StatusInternalServerError, err.Error())
				return
			}
			wireOutput.Parameters = &predator.TensorParameters{BinaryDataSize: int64(len(raw))}
			binarySection.Write(raw)
		} else {
			data := make([]interface{}, len(scores))
			for i, v := range scores {
				data[i] = v
			}
			wireOutput.Data = data
		}
		header.Outputs = append(header.Outputs, wireOutput)
	}
	computed := time.Now()

	headerBytes, err := json.Marshal(header)
	if err != nil {
		s.ledger.RecordFailure(model, time.Since(startTime))
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respBody := headerBytes
	contentType := "application/json"
	if binarySection.Len() > 0 {
		respBody = append(respBody, binarySection.Bytes()...)
		contentType = "application/octet-stream"
		c.Header(predator.HeaderInferenceContentLength, strconv.Itoa(len(headerBytes)))
	}

	if encoding := acceptedEncoding(c.GetHeader("Accept-Encoding")); len(encoding) > 0 {
		compressed, err := predator.CompressBody(respBody, encoding)
		if err == nil {
			respBody = compressed
			c.Header("Content-Encoding", encoding)
		} else {
			log.Warn().Err(err).Msg("failed to compress response, sending identity")
		}
	}

	s.ledger.RecordSuccess(model, batchSize(inputs), queued.Sub(startTime), decoded.Sub(queued), computed.Sub(decoded), time.Since(computed))
	c.Data(http.StatusOK, contentType, respBody)
}

func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return predator.DecompressBody(raw, strings.ToLower(r.Header.Get("Content-Encoding")))
}

// decodeRequest parses the JSON header and resolves every input to raw bytes
func decodeRequest(body []byte, headerLength int) (*predator.WireRequest, []decodedInput, error) {
	headerBytes, binarySection, err := predator.SplitBody(body, headerLength)
	if err != nil {
		return nil, nil, err
	}
	req := &predator.WireRequest{}
	if err := json.Unmarshal(headerBytes, req); err != nil {
		return nil, nil, fmt.Errorf("failed to parse the request JSON buffer: %w", err)
	}
	if len(req.Inputs) == 0 {
		return nil, nil, fmt.Errorf("request must contain at least one input")
	}

	inputs := make([]decodedInput, 0, len(req.Inputs))
	offset := int64(0)
	for _, input := range req.Inputs {
		expected := datatypeconverter.ElementCount(input.Shape)
		if expected < 0 {
			return nil, nil, fmt.Errorf("input '%s' has invalid shape %v", input.Name, input.Shape)
		}
		size := int64(datatypeconverter.GetElementSize(input.Datatype))
		if size == 0 {
			return nil, nil, fmt.Errorf("input '%s' has unsupported datatype %s", input.Name, input.Datatype)
		}
		var raw []byte
		if input.Parameters.BinaryDataSize > 0 {
			n := input.Parameters.BinaryDataSize
			if offset+n > int64(len(binarySection)) {
				return nil, nil, fmt.Errorf("unexpected end of binary data for input '%s'", input.Name)
			}
			raw = binarySection[offset : offset+n]
			offset += n
		} else {
			values, err := datatypeconverter.NumbersToFloat32Slice(input.Data)
			if err != nil {
				return nil, nil, fmt.Errorf("input '%s': %w", input.Name, err)
			}
			raw, err = datatypeconverter.Float32SliceToBytes(values, datatypeconverter.DataTypeFP32)
			if err != nil {
				return nil, nil, fmt.Errorf("input '%s': %w", input.Name, err)
			}
			size = 4
		}
		if int64(len(raw)) != expected*size {
			return nil, nil, fmt.Errorf("input '%s' has %d bytes, shape %v of %s expects %d",
				input.Name, len(raw), input.Shape, input.Datatype, expected*size)
		}
		inputs = append(inputs, decodedInput{name: input.Name, datatype: input.Datatype, shape: input.Shape, raw: raw})
	}
	if offset != int64(len(binarySection)) {
		return nil, nil, fmt.Errorf("%d unused bytes of binary data", int64(len(binarySection))-offset)
	}
	return req, inputs, nil
}

func batchSize(inputs []decodedInput) uint64 {
	if len(inputs) == 0 || len(inputs[0].shape) == 0 || inputs[0].shape[0] <= 0 {
		return 1
	}
	return uint64(inputs[0].shape[0])
}

func acceptedEncoding(header string) string {
	for _, part := range strings.Split(header, ",") {
		encoding := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch encoding {
		case predator.CompressionGzip, predator.CompressionDeflate:
			return encoding
		}
	}
	return ""
}

func writeError(c *gin.Context, status int, message string) {
	log.Warn().Str("path", c.Request.URL.Path).Int("status", status).Msg(message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
