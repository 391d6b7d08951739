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

// UptimeType is the type identifier for uptime records.
const UptimeType string = "Uptime"

// UptimeCollector reads how long the target has been up. The structured
// strategy returns labeled fields; the legacy one parses the raw
// seconds-since-boot counter.
type UptimeCollector struct {
	Channel transport.QueryChannel
}

func (c *UptimeCollector) Name() string { return "uptime" }
func (c *UptimeCollector) Tiers() int   { return 2 }

func (c *UptimeCollector) Invoke(ctx context.Context, tgt target.Target, auth target.AuthContext, tier int) (any, error) {
	switch tier {
	case 1:
		res, err := c.Channel.Query(ctx, tgt, auth, transport.Query{Command: "system.uptime"})
		if err != nil {
			return nil, err
		}
		secs, err := strconv.ParseFloat(res.Fields["uptime_seconds"], 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, "parsing uptime_seconds field", err)
		}
		return &Record{
			Type:   UptimeType,
			Data:   map[string]any{"uptime_seconds": secs, "boot_time": res.Fields["boot_time"]},
			Source: SourceStructured,
		}, nil

	case 2:
		res, err := c.Channel.Query(ctx, tgt, auth, transport.Query{Command: "system.uptime.raw"})
		if err != nil {
			return nil, err
		}
		// First token of the proc-style counter: "12345.67 8910.11".
		tok := strings.Fields(res.Raw)
		if len(tok) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "empty uptime counter")
		}
		secs, err := strconv.ParseFloat(tok[0], 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, "parsing uptime counter", err)
		}
		return &Record{
			Type:   UptimeType,
			Data:   map[string]any{"uptime_seconds": secs},
			Source: SourceLegacy,
		}, nil

	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported strategy tier")
	}
}
