package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Endpoint is one candidate speech-synthesis service. Endpoints are tried in
// file order until one succeeds for every chunk of a job; the order is
// failover priority. Each endpoint names the JSON response field that holds
// its base64 audio, since that differs between deployments.
type Endpoint struct {
	URL           string `yaml:"url"`
	ResponseField string `yaml:"response"`
}

// LoadEndpoints reads the ordered endpoint list from a YAML file.
func LoadEndpoints(path string) ([]Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read endpoints file: %w", err)
	}

	var endpoints []Endpoint
	if err := yaml.Unmarshal(data, &endpoints); err != nil {
		return nil, fmt.Errorf("failed to parse endpoints file %s: %w", path, err)
	}

	if len(endpoints) == 0 {
		return nil, fmt.Errorf("endpoints file %s lists no endpoints", path)
	}
	for i, ep := range endpoints {
		if ep.URL == "" {
			return nil, fmt.Errorf("endpoint %d in %s has no url", i, path)
		}
		if ep.ResponseField == "" {
			return nil, fmt.Errorf("endpoint %d in %s has no response field", i, path)
		}
	}

	return endpoints, nil
}
