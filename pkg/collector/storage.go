// Copyright (c) 2025, Fleetscout Authors.  All rights reserved.
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

package collector

import (
	"context"
	"strconv"
	"strings"

	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/target"
	"github.com/fleetscout/fleetscout/pkg/transport"
)

// StorageType is the type identifier for storage records.
const StorageType string = "Storage"

// StorageVolume is one normalized volume entry.
type StorageVolume struct {
	Mount       string  `json:"mount" yaml:"mount"`
	TotalKB     uint64  `json:"total_kb" yaml:"total_kb"`
	FreeKB      uint64  `json:"free_kb" yaml:"free_kb"`
	FreePercent float64 `json:"free_percent" yaml:"free_percent"`
}

// StorageCollector gathers volume capacity from a target. The structured
// strategy uses labeled per-volume fields; the legacy one parses df-style
// whitespace columns (mount, total KB, free KB).
type StorageCollector struct {
	Channel transport.QueryChannel
}

func (c *StorageCollector) Name() string { return "storage" }
func (c *StorageCollector) Tiers() int   { return 2 }

func (c *StorageCollector) Invoke(ctx context.Context, tgt target.Target, auth target.AuthContext, tier int) (any, error) {
	switch tier {
	case 1:
		res, err := c.Channel.Query(ctx, tgt, auth, transport.Query{Command: "storage.volumes"})
		if err != nil {
			return nil, err
		}
		vol, err := volumeFromFields(res.Fields)
		if err != nil {
			return nil, err
		}
		return &Record{Type: StorageType, Data: []StorageVolume{*vol}, Source: SourceStructured}, nil

	case 2:
		res, err := c.Channel.Query(ctx, tgt, auth, transport.Query{Command: "storage.df"})
		if err != nil {
			return nil, err
		}
		vols, err := volumesFromDF(res.Raw)
		if err != nil {
			return nil, err
		}
		return &Record{Type: StorageType, Data: vols, Source: SourceLegacy}, nil

	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported strategy tier")
	}
}

func volumeFromFields(fields map[string]string) (*StorageVolume, error) {
	total, err := strconv.ParseUint(fields["total_kb"], 10, 64)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, "parsing total_kb field", err)
	}
	free, err := strconv.ParseUint(fields["free_kb"], 10, 64)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, "parsing free_kb field", err)
	}
	v := &StorageVolume{
		Mount:   fields["mount"],
		TotalKB: total,
		FreeKB:  free,
	}
	if v.Mount == "" {
		v.Mount = "/"
	}
	if total > 0 {
		v.FreePercent = 100 * float64(free) / float64(total)
	}
	return v, nil
}

func volumesFromDF(raw string) ([]StorageVolume, error) {
	var vols []StorageVolume
	for _, line := range strings.Split(raw, "\n") {
		cols := strings.Fields(line)
		if len(cols) < 3 {
			continue
		}
		total, terr := strconv.ParseUint(cols[1], 10, 64)
		free, ferr := strconv.ParseUint(cols[2], 10, 64)
		if terr != nil || ferr != nil {
			continue
		}
		v := StorageVolume{Mount: cols[0], TotalKB: total, FreeKB: free}
		if total > 0 {
			v.FreePercent = 100 * float64(free) / float64(total)
		}
		vols = append(vols, v)
	}
	if len(vols) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no parseable volume rows")
	}
	return vols, nil
}
