package query

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DehydratedState is the serialized form of a cache, embedded in pages so
// that data fetched while rendering is not fetched again.
type DehydratedState struct {
	Queries []DehydratedQuery `json:"queries"`
}

// DehydratedQuery is one successful query.
type DehydratedQuery struct {
	QueryKey  Key                  `json:"queryKey"`
	QueryHash string               `json:"queryHash"`
	State     DehydratedQueryState `json:"state"`
}

type DehydratedQueryState struct {
	Data          json.RawMessage `json:"data"`
	DataUpdatedAt int64           `json:"dataUpdatedAt"` // unix milliseconds
	Status        Status          `json:"status"`
}

// Dehydrate exports every successful, non-invalidated entry ordered by hash.
func (c *Client) Dehydrate() (DehydratedState, error) {
	var out DehydratedState
	for _, item := range c.store.Items() {
		e := item.Object.(*entry)
		if !e.hasData || e.status != StatusSuccess || e.invalidated {
			continue
		}
		raw, ok := e.data.(json.RawMessage)
		if !ok {
			b, err := json.Marshal(e.data)
			if err != nil {
				return DehydratedState{}, fmt.Errorf("dehydrate %s: %w", e.key, err)
			}
			raw = b
		}
		out.Queries = append(out.Queries, DehydratedQuery{
			QueryKey:  e.key,
			QueryHash: e.key.Hash(),
			State: DehydratedQueryState{
				Data:          raw,
				DataUpdatedAt: e.updatedAt.UnixMilli(),
				Status:        StatusSuccess,
			},
		})
	}
	sort.Slice(out.Queries, func(i, j int) bool {
		return out.Queries[i].QueryHash < out.Queries[j].QueryHash
	})
	return out, nil
}

// Hydrate imports queries from s. An existing entry that is at least as new
// is kept. It returns the number of entries written.
func (c *Client) Hydrate(s DehydratedState) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, q := range s.Queries {
		if q.State.Status != StatusSuccess || len(q.QueryKey) == 0 {
			continue
		}
		if cur, ok := c.get(q.QueryKey); ok && cur.hasData && !cur.invalidated &&
			cur.updatedAt.UnixMilli() >= q.State.DataUpdatedAt {
			continue
		}
		c.put(&entry{
			key:       q.QueryKey,
			data:      json.RawMessage(q.State.Data),
			hasData:   true,
			updatedAt: time.UnixMilli(q.State.DataUpdatedAt),
			status:    StatusSuccess,
		})
		n++
	}
	return n
}
