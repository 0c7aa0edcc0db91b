package predator

import "context"

type Client interface {
	// Infer sends one inference request and blocks until the full response is read
	Infer(ctx context.Context, req *InferRequest, headers map[string]string) (*InferResult, error)
	// GetInferenceStatistics returns per model statistics. An empty model name asks for all models.
	GetInferenceStatistics(ctx context.Context, modelName, modelVersion string, headers map[string]string) (*InferenceStatistics, error)
	// Close releases idle connections
	Close()
}
