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

// ServicesType is the type identifier for service state records.
const ServicesType string = "Services"

// ServicesCollector reports the state of a configured set of services on
// the target. The structured strategy queries each named service; the
// legacy one parses the full "name state" listing and filters it.
type ServicesCollector struct {
	Channel transport.QueryChannel

	// Services is the set of service names to audit.
	Services []string
}

func (c *ServicesCollector) Name() string { return "services" }
func (c *ServicesCollector) Tiers() int   { return 2 }

func (c *ServicesCollector) Invoke(ctx context.Context, tgt target.Target, auth target.AuthContext, tier int) (any, error) {
	if len(c.Services) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no services configured")
	}

	switch tier {
	case 1:
		res, err := c.Channel.Query(ctx, tgt, auth,
			transport.Query{Command: "services.state", Args: c.Services})
		if err != nil {
			return nil, err
		}
		states := make(map[string]string, len(c.Services))
		for _, svc := range c.Services {
			st, ok := res.Fields[svc]
			if !ok {
				st = "unknown"
			}
			states[svc] = st
		}
		return &Record{Type: ServicesType, Data: states, Source: SourceStructured}, nil

	case 2:
		res, err := c.Channel.Query(ctx, tgt, auth, transport.Query{Command: "services.list"})
		if err != nil {
			return nil, err
		}
		all := make(map[string]string)
		for _, line := range strings.Split(res.Raw, "\n") {
			cols := strings.Fields(line)
			if len(cols) < 2 {
				continue
			}
			all[cols[0]] = cols[1]
		}
		states := make(map[string]string, len(c.Services))
		for _, svc := range c.Services {
			st, ok := all[svc]
			if !ok {
				st = "unknown"
			}
			states[svc] = st
		}
		return &Record{Type: ServicesType, Data: states, Source: SourceLegacy}, nil

	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported strategy tier")
	}
}
