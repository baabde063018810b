//go:build !unix

package modelsource

import "os"

func mapFile(path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewPayload(data, nil), nil
}
