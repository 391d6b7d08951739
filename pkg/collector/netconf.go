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
	"strings"

	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/target"
	"github.com/fleetscout/fleetscout/pkg/transport"
)

// NetConfType is the type identifier for network configuration records.
const NetConfType string = "NetConf"

// NetConfCollector gathers interface addressing from a target. The
// structured strategy returns interface-to-address fields; the legacy one
// parses "iface address" lines.
type NetConfCollector struct {
	Channel transport.QueryChannel
}

func (c *NetConfCollector) Name() string { return "netconf" }
func (c *NetConfCollector) Tiers() int   { return 2 }

func (c *NetConfCollector) Invoke(ctx context.Context, tgt target.Target, auth target.AuthContext, tier int) (any, error) {
	switch tier {
	case 1:
		res, err := c.Channel.Query(ctx, tgt, auth, transport.Query{Command: "net.interfaces"})
		if err != nil {
			return nil, err
		}
		if len(res.Fields) == 0 {
			return nil, errors.New(errors.ErrCodeNotFound, "no network interfaces reported")
		}
		return &Record{Type: NetConfType, Data: res.Fields, Source: SourceStructured}, nil

	case 2:
		res, err := c.Channel.Query(ctx, tgt, auth, transport.Query{Command: "net.config"})
		if err != nil {
			return nil, err
		}
		ifaces := make(map[string]string)
		for _, line := range strings.Split(res.Raw, "\n") {
			cols := strings.Fields(line)
			if len(cols) < 2 {
				continue
			}
			ifaces[cols[0]] = cols[1]
		}
		if len(ifaces) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "network config output not parseable")
		}
		return &Record{Type: NetConfType, Data: ifaces, Source: SourceLegacy}, nil

	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported strategy tier")
	}
}
