package storage

import (
	"context"
	"testing"

	"github.com/andresuchdata/stockwatch/internal/config"
)

func TestNewMinioClientValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StorageConfig
	}{
		{"missing endpoint", config.StorageConfig{AccessKey: "a", SecretKey: "b", Bucket: "c"}},
		{"missing credentials", config.StorageConfig{Endpoint: "localhost:9000", Bucket: "c"}},
		{"missing bucket", config.StorageConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMinioClient(context.Background(), tt.cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
