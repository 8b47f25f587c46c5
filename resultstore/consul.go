package resultstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	consul "github.com/hashicorp/consul/api"
)

// consul allows at most this many operations per transaction.
const consulMaxTxnOps = 64

// ConsulStore writes each run as a set of keys under widget-harness/runs/{runID}/.
type ConsulStore struct {
	consul *consul.Client
}

// NewConsulStore creates a client for the agent at addr, or the client default if addr is empty.
func NewConsulStore(addr string) (*ConsulStore, error) {
	config := consul.DefaultConfig()
	if addr != "" {
		config.Address = addr
	}
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &ConsulStore{consul: client}, nil
}

func consulRunPrefix(rec RunRecord) string {
	return keyPrefix + "/runs/" + rec.RunID.String()
}

func consulRunOps(rec RunRecord) ([]*consul.KVTxnOp, error) {
	prefix := consulRunPrefix(rec)
	values := map[string]string{
		"serviceName": rec.ServiceName,
		"startedAt":   strconv.FormatInt(rec.StartedAt.UnixMilli(), 10),
		"finishedAt":  strconv.FormatInt(rec.FinishedAt.UnixMilli(), 10),
		"passed":      strconv.Itoa(rec.Passed),
		"failed":      strconv.Itoa(rec.Failed),
		"skipped":     strconv.Itoa(rec.Skipped),
	}
	ops := make([]*consul.KVTxnOp, 0, len(values)+len(rec.Failures))
	for k, v := range values {
		ops = append(ops, &consul.KVTxnOp{Verb: consul.KVSet, Key: prefix + "/" + k, Value: []byte(v)})
	}
	for i, f := range rec.Failures {
		data, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		ops = append(ops, &consul.KVTxnOp{
			Verb:  consul.KVSet,
			Key:   fmt.Sprintf("%s/failures/%03d", prefix, i),
			Value: data,
		})
	}
	return ops, nil
}

func (c *ConsulStore) SaveRun(ctx context.Context, rec RunRecord) error {
	ops, err := consulRunOps(rec)
	if err != nil {
		return err
	}
	return batchOperations(ctx, c.consul.KV(), ops)
}

// batchOperations applies ops in transactions of at most consulMaxTxnOps. The run is not written
// atomically if it needs more than one transaction.
func batchOperations(ctx context.Context, kv *consul.KV, ops []*consul.KVTxnOp) error {
	for i := 0; i < len(ops); {
		j := i + consulMaxTxnOps
		if j > len(ops) {
			j = len(ops)
		}
		ok, resp, _, err := kv.Txn(ops[i:j], (&consul.QueryOptions{}).WithContext(ctx))
		if err != nil {
			return err
		}
		if !ok {
			errs := make([]string, 0, len(resp.Errors))
			for _, te := range resp.Errors {
				errs = append(errs, te.What)
			}
			return fmt.Errorf("consul transaction failed: %s", strings.Join(errs, ", "))
		}
		i = j
	}
	return nil
}

func (c *ConsulStore) Close() error {
	return nil
}
