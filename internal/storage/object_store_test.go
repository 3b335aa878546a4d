package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"billed/internal/config"
)

func TestObjectStore_PublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ReceiptsConfig
		key  string
		want string
	}{
		{
			name: "public url",
			cfg:  config.ReceiptsConfig{PublicURL: "https://cdn.test/", Bucket: "billed-receipts"},
			key:  "receipts/ab/k-facture.jpg",
			want: "https://cdn.test/billed-receipts/receipts/ab/k-facture.jpg",
		},
		{
			name: "endpoint without scheme",
			cfg:  config.ReceiptsConfig{Endpoint: "minio:9000", Bucket: "b"},
			key:  "receipts/ab/k.png",
			want: "https://minio:9000/b/receipts/ab/k.png",
		},
		{
			name: "special characters are escaped",
			cfg:  config.ReceiptsConfig{PublicURL: "http://cdn.test", Bucket: "b"},
			key:  "receipts/ab/k-note #3?.jpg",
			want: "http://cdn.test/b/receipts/ab/k-note%20%233%3F.jpg",
		},
		{
			name: "percent sign",
			cfg:  config.ReceiptsConfig{PublicURL: "http://cdn.test", Bucket: "b"},
			key:  "receipts/ab/k-100%.jpg",
			want: "http://cdn.test/b/receipts/ab/k-100%25.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &ObjectStore{cfg: tt.cfg}
			assert.Equal(t, tt.want, s.publicURL(tt.key))
		})
	}
}
