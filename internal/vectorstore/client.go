// Package vectorstore provides a Qdrant-backed store for the embedding
// collections populated during model ingestion: metadata field embeddings,
// chunk embeddings, summaries and generated question/answer pairs.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"

	"github.com/simhub/model-ingestion-service/internal/domain"
)

// Config holds the configuration for connecting to a Qdrant instance.
type Config struct {
	// Address is the host:port of the Qdrant gRPC endpoint (e.g. "localhost:6334").
	Address string
	// VectorSize is the dimensionality of the embedding vectors (e.g. 768 for nomic-embed-text).
	VectorSize uint64
}

// Validate checks that all required Config fields are set.
func (c Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("vectorstore config: address is required")
	}
	if c.VectorSize == 0 {
		return fmt.Errorf("vectorstore config: vector size must be > 0")
	}
	return nil
}

// VectorStore defines the interface for the embedding collection operations.
// Collections are named per content kind; the same client serves all of them.
type VectorStore interface {
	// EnsureCollection creates the named collection if it does not already exist.
	EnsureCollection(ctx context.Context, collection string) error
	// UpsertPoints inserts or updates a batch of points in the named collection.
	// Point IDs are derived deterministically from each point's string ID, so
	// re-upserting the same points overwrites rather than duplicates.
	UpsertPoints(ctx context.Context, collection string, points []domain.VectorPoint) error
	// Close releases the underlying gRPC connection.
	Close() error
}

// Compile-time check that Client implements VectorStore.
var _ VectorStore = (*Client)(nil)

// Client is a Qdrant client that implements VectorStore via gRPC.
type Client struct {
	client     *pb.Client
	vectorSize uint64
}

// NewClient creates a new Qdrant client by dialing the configured gRPC address.
// The connection uses insecure credentials, suitable for internal network deployments.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Parse host and port from the address.
	host, port, err := parseAddress(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: invalid address %q: %w", cfg.Address, err)
	}

	qdrantClient, err := pb.NewClient(&pb.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: failed to create client: %w", err)
	}

	return &Client{
		client:     qdrantClient,
		vectorSize: cfg.VectorSize,
	}, nil
}

// IngestCollections lists every collection the ingestion pipeline writes to.
// Worker startup ensures all of them so first-run upserts never race
// collection creation.
func IngestCollections() []string {
	return []string{
		domain.CollectionModelMetadata,
		domain.CollectionChunks,
		domain.CollectionModelDocSummary,
		domain.CollectionDocSectionSummary(1),
		domain.CollectionChunkQuestions,
		domain.CollectionChunkAnswers,
		domain.CollectionDocSectionQuestions,
		domain.CollectionDocSectionAnswers,
	}
}

// EnsureCollection checks whether the named collection exists and creates it
// with cosine distance if it does not.
func (c *Client) EnsureCollection(ctx context.Context, collection string) error {
	if collection == "" {
		return fmt.Errorf("vectorstore: collection name is required")
	}

	exists, err := c.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("vectorstore: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = c.client.CreateCollection(ctx, &pb.CreateCollection{
		CollectionName: collection,
		VectorsConfig: pb.NewVectorsConfig(&pb.VectorParams{
			Size:     c.vectorSize,
			Distance: pb.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("vectorstore: failed to create collection %q: %w", collection, err)
	}

	return nil
}

// UpsertPoints inserts or updates a batch of points in the named collection.
func (c *Client) UpsertPoints(ctx context.Context, collection string, points []domain.VectorPoint) error {
	if collection == "" {
		return fmt.Errorf("vectorstore: collection name is required")
	}
	if len(points) == 0 {
		return nil
	}

	pbPoints := make([]*pb.PointStruct, 0, len(points))
	for _, point := range points {
		if point.ID == "" {
			return fmt.Errorf("vectorstore: point ID is required")
		}

		payload := make(map[string]*pb.Value, len(point.Payload))
		for k, v := range point.Payload {
			payload[k] = pb.NewValueString(v)
		}

		pbPoints = append(pbPoints, &pb.PointStruct{
			Id:      pb.NewIDUUID(PointUUID(collection, point.ID)),
			Vectors: pb.NewVectors(point.Vector...),
			Payload: payload,
		})
	}

	wait := true
	_, err := c.client.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         pbPoints,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: failed to upsert %d points into %q: %w", len(points), collection, err)
	}

	return nil
}

// Close releases the gRPC connection to Qdrant.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// PointUUID derives the Qdrant point UUID for a point's string ID. Qdrant only
// accepts UUIDs and unsigned integers as point IDs, so the provenance-encoded
// string ID is hashed into a name-based UUID. The derivation is deterministic
// per collection, which makes upserts idempotent across workflow retries.
func PointUUID(collection, id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(collection+"/"+id)).String()
}

// parseAddress splits an address string of the form "host:port" into its components.
func parseAddress(addr string) (string, int, error) {
	host, portStr, err := splitHostPort(addr)
	if err != nil {
		return "", 0, err
	}

	port, err := parsePort(portStr)
	if err != nil {
		return "", 0, err
	}

	return host, port, nil
}

// splitHostPort splits an address into host and port strings.
// It handles the common case of "host:port" without importing net
// to avoid unnecessary dependencies for a simple split.
func splitHostPort(addr string) (string, string, error) {
	// Find last colon (handles IPv6 addresses in brackets).
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i], addr[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("missing port in address %q", addr)
}

// parsePort converts a port string to an integer.
func parsePort(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty port")
	}
	var port int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid port %q", s)
		}
		port = port*10 + int(c-'0')
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}
