//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	storeminio "github.com/meigma/imagecache/store/minio"
)

const (
	minioAccessKey = "minioadmin"
	minioSecretKey = "minioadmin"
)

// --- MinIO Container Setup ---

var (
	minioOnce sync.Once
	minioAddr string
	minioErr  error
)

// getMinIO returns the shared MinIO endpoint, starting the container if
// needed. The container is shared across all tests for performance.
func getMinIO(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	minioOnce.Do(func() {
		ctx := context.Background()
		minioAddr, minioErr = startMinIOContainer(ctx)
	})

	if minioErr != nil {
		tb.Fatalf("start minio container: %v", minioErr)
	}

	return minioAddr
}

// startMinIOContainer starts a minio server container and returns the
// host:port endpoint.
func startMinIOContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     minioAccessKey,
			"MINIO_ROOT_PASSWORD": minioSecretKey,
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStatusCodeMatcher(isOKStatus),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start minio container: %w", err)
	}

	// Container cleanup is handled by the testcontainers Reaper.

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve minio host: %w", err)
	}

	port, err := container.MappedPort(ctx, "9000/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve minio port: %w", err)
	}

	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}

// --- Test Store Factory ---

// newTestStore creates a MinIO-backed store in a fresh bucket, isolated
// per test by prefix.
func newTestStore(tb testing.TB, bucket, prefix string) *storeminio.Store {
	tb.Helper()

	endpoint := getMinIO(tb)

	client, err := miniogo.New(endpoint, &miniogo.Options{
		Creds: credentials.NewStaticV4(minioAccessKey, minioSecretKey, ""),
	})
	require.NoError(tb, err)

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(tb, err)
	if !exists {
		require.NoError(tb, client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}))
	}

	st, err := storeminio.New(storeminio.Config{
		Bucket: bucket,
		Prefix: prefix,
		Client: client,
	})
	require.NoError(tb, err)
	return st
}
