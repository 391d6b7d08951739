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
	"github.com/fleetscout/fleetscout/pkg/version"
)

// OSInfoType is the type identifier for operating-system records.
const OSInfoType string = "OSInfo"

// OSInfoCollector gathers operating system identity from a target. Three
// strategies: the structured os.info query, the legacy os.release key-value
// dump, and a minimal kernel-string fallback.
type OSInfoCollector struct {
	Channel transport.QueryChannel
}

func (c *OSInfoCollector) Name() string { return "osinfo" }
func (c *OSInfoCollector) Tiers() int   { return 3 }

// Invoke runs the strategy for the given tier.
func (c *OSInfoCollector) Invoke(ctx context.Context, tgt target.Target, auth target.AuthContext, tier int) (any, error) {
	switch tier {
	case 1:
		return c.structured(ctx, tgt, auth)
	case 2:
		return c.legacy(ctx, tgt, auth)
	case 3:
		return c.minimal(ctx, tgt, auth)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported strategy tier")
	}
}

func (c *OSInfoCollector) structured(ctx context.Context, tgt target.Target, auth target.AuthContext) (any, error) {
	res, err := c.Channel.Query(ctx, tgt, auth, transport.Query{Command: "os.info"})
	if err != nil {
		return nil, err
	}
	if len(res.Fields) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "os.info returned no fields")
	}
	return &Record{Type: OSInfoType, Data: res.Fields, Source: SourceStructured}, nil
}

// legacy parses the os-release style KEY=value dump.
func (c *OSInfoCollector) legacy(ctx context.Context, tgt target.Target, auth target.AuthContext) (any, error) {
	res, err := c.Channel.Query(ctx, tgt, auth, transport.Query{Command: "os.release"})
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	for _, line := range strings.Split(res.Raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[strings.ToLower(k)] = strings.Trim(v, `"`)
	}
	if len(fields) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "os.release output not parseable")
	}
	return &Record{Type: OSInfoType, Data: fields, Source: SourceLegacy}, nil
}

func (c *OSInfoCollector) minimal(ctx context.Context, tgt target.Target, auth target.AuthContext) (any, error) {
	res, err := c.Channel.Query(ctx, tgt, auth, transport.Query{Command: "os.kernel"})
	if err != nil {
		return nil, err
	}
	kernel := strings.TrimSpace(res.Raw)
	if kernel == "" {
		return nil, errors.New(errors.ErrCodeNotFound, "no kernel identity available")
	}

	data := map[string]string{"kernel": kernel}
	if v, err := version.Parse(kernel); err == nil {
		data["kernel_version"] = v.String()
	}
	return &Record{Type: OSInfoType, Data: data, Source: SourceMinimal}, nil
}
