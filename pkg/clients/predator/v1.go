package predator

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/metric"
	"github.com/rs/zerolog/log"
)

const (
	predatorServiceName = "predator"
	contentTypeJSON     = "application/json"
	contentTypeBinary   = "application/octet-stream"
)

type ClientV1 struct {
	adapter    Adapter
	baseURL    string
	verbose    bool
	binaryData bool
	headers    map[string]string

	requestCompression  string
	responseCompression string

	httpClient *http.Client
}

// NewClientV1 creates an HTTP client bound to conf.URL
func NewClientV1(conf *Config) (*ClientV1, error) {
	hostPort, basePath, err := validateConfig(conf)
	if err != nil {
		return nil, err
	}

	scheme := "http"
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if conf.SSL {
		scheme = "https"
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: conf.InsecureSkipVerify}
		if conf.InsecureSkipVerify {
			log.Warn().Str("url", conf.URL).Msg("TLS certificate verification is disabled")
		}
	}
	// decompression is handled by the client so ResponseBody reflects the decoded payload
	transport.DisableCompression = true

	base := (&url.URL{Scheme: scheme, Host: hostPort}).String()
	if len(basePath) > 0 {
		base += "/" + basePath
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	headers := make(map[string]string, len(conf.Headers))
	for k, v := range conf.Headers {
		headers[k] = v
	}

	return &ClientV1{
		adapter:             Adapter{},
		baseURL:             base,
		verbose:             conf.Verbose,
		binaryData:          conf.BinaryData,
		headers:             headers,
		requestCompression:  conf.RequestCompression,
		responseCompression: conf.ResponseCompression,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   conf.Timeout,
		},
	}, nil
}

// BaseURL is the scheme, host and base path every request is sent to
func (c *ClientV1) BaseURL() string {
	return c.baseURL
}

func (c *ClientV1) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *ClientV1) Infer(ctx context.Context, req *InferRequest, headers map[string]string) (*InferResult, error) {
	if req == nil {
		return nil, fmt.Errorf("infer request cannot be nil")
	}
	if len(req.ModelName) == 0 {
		return nil, fmt.Errorf("infer request must name a model")
	}
	if len(req.Inputs) == 0 {
		return nil, fmt.Errorf("infer request must contain at least one input")
	}

	body, headerLength, err := c.adapter.MapInferRequestToBody(req)
	if err != nil {
		return nil, err
	}

	reqHeaders := make(map[string]string)
	if headerLength >= 0 {
		reqHeaders[HeaderInferenceContentLength] = strconv.Itoa(headerLength)
		reqHeaders["Content-Type"] = contentTypeBinary
	} else {
		reqHeaders["Content-Type"] = contentTypeJSON
	}
	for k, v := range headers {
		reqHeaders[k] = v
	}

	path := modelPath(req.ModelName, req.ModelVersion) + "/infer"
	respBody, respHeader, err := c.do(ctx, http.MethodPost, path, body, reqHeaders)
	if err != nil {
		return nil, err
	}

	responseHeaderLength := -1
	if value := respHeader.Get(HeaderInferenceContentLength); len(value) > 0 {
		responseHeaderLength, err = strconv.Atoi(value)
		if err != nil || responseHeaderLength < 0 {
			return nil, fmt.Errorf("invalid %s %q in response", HeaderInferenceContentLength, value)
		}
	}
	return c.adapter.MapBodyToInferResult(respBody, responseHeaderLength)
}

func (c *ClientV1) GetInferenceStatistics(ctx context.Context, modelName, modelVersion string, headers map[string]string) (*InferenceStatistics, error) {
	path := "v2/models/stats"
	if len(modelName) > 0 {
		path = modelPath(modelName, modelVersion) + "/stats"
	}
	respBody, _, err := c.do(ctx, http.MethodGet, path, nil, headers)
	if err != nil {
		return nil, err
	}
	return c.adapter.MapBodyToStatistics(respBody)
}

func modelPath(modelName, modelVersion string) string {
	path := "v2/models/" + url.PathEscape(modelName)
	if len(modelVersion) > 0 {
		path += "/versions/" + url.PathEscape(modelVersion)
	}
	return path
}

// do sends one request and returns the decoded body of a 200 response
func (c *ClientV1) do(ctx context.Context, method, path string, body []byte, headers map[string]string) ([]byte, http.Header, error) {
	startTime := time.Now()
	statusCode := 0
	defer func() {
		tags := metric.BuildTag(
			metric.NewTag(metric.TagExternalService, predatorServiceName),
			metric.NewTag(metric.TagExternalServicePath, "/"+path),
			metric.NewTag(metric.TagExternalServiceMethod, method),
			metric.NewTag(metric.TagExternalServiceStatusCode, strconv.Itoa(statusCode)),
			metric.NewTag(metric.TagCommunicationProtocol, metric.TagValueCommunicationProtocolHttp),
		)
		metric.Incr(metric.ExternalApiRequestCount, tags)
		metric.Timing(metric.ExternalApiRequestLatency, time.Since(startTime), tags)
	}()

	var err error
	if body != nil && c.requestCompression != CompressionNone {
		body, err = CompressBody(body, c.requestCompression)
		if err != nil {
			return nil, nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && c.requestCompression != CompressionNone {
		httpReq.Header.Set("Content-Encoding", c.requestCompression)
	}
	if c.responseCompression != CompressionNone {
		httpReq.Header.Set("Accept-Encoding", c.responseCompression)
	}

	if c.verbose {
		log.Info().Msgf("%s %s, headers %v", method, httpReq.URL.String(), redactHeaders(httpReq.Header))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to call predator %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read predator response: %w", err)
	}
	decoded, err := DecompressBody(raw, strings.ToLower(resp.Header.Get("Content-Encoding")))
	if err != nil {
		return nil, nil, err
	}

	if c.verbose {
		log.Info().Msgf("%s %s returned %d, %d bytes, headers %v", method, path, resp.StatusCode, len(decoded), resp.Header)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, newInferenceServerError(resp.StatusCode, decoded)
	}
	return decoded, resp.Header, nil
}

func redactHeaders(h http.Header) http.Header {
	out := h.Clone()
	for _, key := range []string{"Authorization", "Proxy-Authorization"} {
		if len(out.Get(key)) > 0 {
			out.Set(key, "REDACTED")
		}
	}
	return out
}
