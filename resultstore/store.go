package resultstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Store saves run records.
type Store interface {
	SaveRun(ctx context.Context, rec RunRecord) error
	Close() error
}

// Supported DSN schemes.
const (
	SchemeSQLite   = "sqlite"
	SchemeRedis    = "redis"
	SchemeConsul   = "consul"
	SchemeDynamoDB = "dynamodb"
)

// keyPrefix namespaces everything the key-value backends write.
const keyPrefix = "widget-harness"

// Open connects to the store named by dsn:
//
//	sqlite://path/to/results.db
//	redis://host:port
//	consul://host:port
//	dynamodb://table-name
func Open(ctx context.Context, dsn string) (Store, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid results store DSN %q: %w", dsn, err)
	}
	target := u.Host + u.Path
	switch strings.ToLower(u.Scheme) {
	case SchemeSQLite:
		if target == "" {
			return nil, fmt.Errorf("sqlite DSN %q has no file path", dsn)
		}
		return OpenSQLite(target)
	case SchemeRedis:
		return NewRedisStore(u.Host), nil
	case SchemeConsul:
		return NewConsulStore(u.Host)
	case SchemeDynamoDB:
		if u.Host == "" {
			return nil, fmt.Errorf("dynamodb DSN %q has no table name", dsn)
		}
		return NewDynamoDBStore(ctx, u.Host)
	default:
		return nil, fmt.Errorf("unsupported results store scheme %q", u.Scheme)
	}
}
