package predator

import "fmt"

const (
	Version1 = 1
)

// NewClient builds a client of the given version. It either returns a ready client or an error.
func NewClient(version int, conf *Config) (Client, error) {
	switch version {
	case Version1:
		client, err := NewClientV1(conf)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: unknown client version %d", ErrInvalidConfig, version)
	}
}

// NewClientFromEnv builds a client from env keys under the version's prefix
func NewClientFromEnv(version int) (Client, error) {
	switch version {
	case Version1:
		conf, err := GetClientConfigs(V1Prefix)
		if err != nil {
			return nil, err
		}
		return NewClient(version, conf)
	default:
		return nil, fmt.Errorf("%w: unknown client version %d", ErrInvalidConfig, version)
	}
}
