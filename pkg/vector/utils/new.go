// Package vectorutils is the vector store utility package
package vectorutils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/foliostack/folio/pkg/vector"
	"github.com/foliostack/folio/pkg/vector/memory"
	"github.com/foliostack/folio/pkg/vector/qdrant"
	"github.com/foliostack/folio/pkg/vector/sqlitevec"
)

// Factory creates one fresh, empty vector store per ingested session.
// The session id scopes backends that need server-side naming.
type Factory func(sessionID string) (vector.Store, error)

type NewStoreFactoryOpts struct {
	// ProviderType selects the backend: "memory" (default), "sqlitevec",
	// or "qdrant".
	ProviderType string

	// TargetURL is the backend endpoint for networked providers
	// (e.g. "localhost:6334" for qdrant). Unused by memory and sqlitevec.
	TargetURL string

	// APIKey authenticates against managed backends. Optional.
	APIKey string

	Logger *zap.Logger
}

// NewStoreFactory returns a Factory for the configured backend.
func NewStoreFactory(o *NewStoreFactoryOpts) (Factory, error) {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch o.ProviderType {
	case "", "memory":
		return func(string) (vector.Store, error) {
			return memory.NewStore(), nil
		}, nil

	case "sqlitevec":
		return func(string) (vector.Store, error) {
			return sqlitevec.NewStore(sqlitevec.Config{DBPath: ":memory:"}, logger)
		}, nil

	case "qdrant":
		host, port, err := splitHostPort(o.TargetURL)
		if err != nil {
			return nil, err
		}
		return func(sessionID string) (vector.Store, error) {
			return qdrant.NewStore(qdrant.Config{
				Host:       host,
				Port:       port,
				APIKey:     o.APIKey,
				Collection: "folio_" + strings.ReplaceAll(sessionID, "-", ""),
			}, logger)
		}, nil

	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

// splitHostPort parses "host:port" or a URL-shaped target into a qdrant
// gRPC host and port, defaulting the port to 6334.
func splitHostPort(target string) (string, int, error) {
	if target == "" {
		return "localhost", 6334, nil
	}

	hostport := target
	if strings.Contains(target, "//") {
		u, err := url.Parse(target)
		if err != nil {
			return "", 0, fmt.Errorf("invalid qdrant target %q: %w", target, err)
		}
		hostport = u.Host
	}

	host, portStr, found := strings.Cut(hostport, ":")
	if !found {
		return hostport, 6334, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port in %q: %w", target, err)
	}
	return host, port, nil
}
