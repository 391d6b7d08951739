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
	"github.com/fleetscout/fleetscout/pkg/executor"
	"github.com/fleetscout/fleetscout/pkg/transport"
)

// Factory creates collectors with their dependencies.
// This interface enables dependency injection for testing.
type Factory interface {
	CreateOSInfoCollector() executor.Collector
	CreateUptimeCollector() executor.Collector
	CreateStorageCollector() executor.Collector
	CreateServicesCollector() executor.Collector
	CreateNetConfCollector() executor.Collector
}

// DefaultFactory creates collectors bound to one query channel.
type DefaultFactory struct {
	Channel transport.QueryChannel

	// Services is the service set audited by the services collector.
	Services []string
}

// NewDefaultFactory creates a factory with default settings.
func NewDefaultFactory(ch transport.QueryChannel) *DefaultFactory {
	return &DefaultFactory{
		Channel: ch,
		Services: []string{
			"sshd",
		},
	}
}

// CreateOSInfoCollector creates an operating-system identity collector.
func (f *DefaultFactory) CreateOSInfoCollector() executor.Collector {
	return &OSInfoCollector{Channel: f.Channel}
}

// CreateUptimeCollector creates an uptime collector.
func (f *DefaultFactory) CreateUptimeCollector() executor.Collector {
	return &UptimeCollector{Channel: f.Channel}
}

// CreateStorageCollector creates a storage capacity collector.
func (f *DefaultFactory) CreateStorageCollector() executor.Collector {
	return &StorageCollector{Channel: f.Channel}
}

// CreateServicesCollector creates a service state collector.
func (f *DefaultFactory) CreateServicesCollector() executor.Collector {
	return &ServicesCollector{Channel: f.Channel, Services: f.Services}
}

// CreateNetConfCollector creates a network configuration collector.
func (f *DefaultFactory) CreateNetConfCollector() executor.Collector {
	return &NetConfCollector{Channel: f.Channel}
}

// Catalog returns every built-in collector in a stable order.
func Catalog(f Factory) []executor.Collector {
	return []executor.Collector{
		f.CreateOSInfoCollector(),
		f.CreateUptimeCollector(),
		f.CreateStorageCollector(),
		f.CreateServicesCollector(),
		f.CreateNetConfCollector(),
	}
}
