// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/opensearch-project/opensearch-go/opensearchapi"
	"github.com/opensearch-project/opensearch-go/opensearchutil"
	"github.com/poiesic/searchrag/core"
)

// CreateIndex creates a kNN index with a text field and a vector field.
// An existing index is reported as ErrIndexExists.
func (c *Client) CreateIndex(ctx context.Context, name string, settings IndexSettings) error {
	if err := core.ValidateIndexName(name); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	var res struct {
		Acknowledged       bool   `json:"acknowledged"`
		ShardsAcknowledged bool   `json:"shards_acknowledged"`
		Index              string `json:"index"`
	}
	req := opensearchapi.IndicesCreateRequest{
		Index: name,
		Body:  opensearchutil.NewJSONReader(settings.body()),
	}
	if err := c.do(ctx, "create index "+name, req, &res); err != nil {
		return err
	}

	c.logger.Info("index created", "index", name, "acknowledged", res.Acknowledged,
		"shards", settings.Shards, "replicas", settings.Replicas, "dimension", settings.Dimension)
	return nil
}

// ListIndices returns the sorted names of all indices, system indices included.
func (c *Client) ListIndices(ctx context.Context) ([]string, error) {
	var res map[string]any
	req := opensearchapi.IndicesGetAliasRequest{Index: []string{"*"}}
	if err := c.do(ctx, "list indices", req, &res); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(res))
	for name := range res {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteIndex deletes one index.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	var res struct {
		Acknowledged bool `json:"acknowledged"`
	}
	req := opensearchapi.IndicesDeleteRequest{Index: []string{name}}
	if err := c.do(ctx, "delete index "+name, req, &res); err != nil {
		return err
	}
	if !res.Acknowledged {
		return fmt.Errorf("delete index %s: not acknowledged", name)
	}
	c.logger.Info("index deleted", "index", name)
	return nil
}

// DeleteReport lists what DeleteAll did with each index.
type DeleteReport struct {
	Deleted   []string
	Skipped   []string
	Failed    []string
	Remaining []string
}

// DeleteAll deletes every index whose name does not start with a dot.
// A failed deletion is logged and recorded, and the run continues.
// The returned error is non-nil only when the indices cannot be listed.
func (c *Client) DeleteAll(ctx context.Context) (*DeleteReport, error) {
	names, err := c.ListIndices(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Info("found indices", "count", len(names))

	report := &DeleteReport{}
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			c.logger.Info("skipping system index", "index", name)
			report.Skipped = append(report.Skipped, name)
			continue
		}
		if err := c.DeleteIndex(ctx, name); err != nil {
			if errors.Is(err, ErrIndexNotFound) {
				c.logger.Info("index already gone", "index", name)
				continue
			}
			c.logger.Warn("failed to delete index", "index", name, "err", err)
			report.Failed = append(report.Failed, name)
			continue
		}
		report.Deleted = append(report.Deleted, name)
	}

	remaining, err := c.ListIndices(ctx)
	if err != nil {
		c.logger.Warn("failed to list remaining indices", "err", err)
	} else {
		report.Remaining = remaining
		c.logger.Info("remaining indices after deletion", "indices", remaining)
	}
	return report, nil
}
