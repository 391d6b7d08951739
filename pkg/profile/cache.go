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

package profile

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Cache stores capability profiles keyed by target identifier. The store is
// passed explicitly to the Profiler with a lifetime tied to the run; there is
// no process-wide singleton. Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached profile for the target, or false when absent.
	// TTL evaluation is the caller's responsibility via CapturedAt.
	Get(targetID string) (*CapabilityProfile, bool)

	// Put stores a profile, replacing any previous entry for the target.
	Put(p *CapabilityProfile) error
}

// MemoryCache is an in-memory Cache for single-run usage and tests.
type MemoryCache struct {
	mu       sync.RWMutex
	profiles map[string]*CapabilityProfile
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		profiles: make(map[string]*CapabilityProfile),
	}
}

// Get returns a copy of the cached profile so callers cannot mutate the entry.
func (c *MemoryCache) Get(targetID string) (*CapabilityProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.profiles[targetID]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// Put stores a copy of the profile.
func (c *MemoryCache) Put(p *CapabilityProfile) error {
	if p == nil || p.TargetID == "" {
		return fmt.Errorf("profile must have a target id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *p
	c.profiles[p.TargetID] = &cp
	return nil
}

// FileCache persists profiles as one JSON file per target under a directory,
// surviving across runs so the 24h TTL has effect.
type FileCache struct {
	dir string
	mu  sync.Mutex
}

// NewFileCache creates a file-backed cache rooted at dir, creating the
// directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %q: %w", dir, err)
	}
	return &FileCache{dir: dir}, nil
}

// entryPath derives a filesystem-safe path for the target key.
func (c *FileCache) entryPath(targetID string) string {
	name := url.PathEscape(strings.ToLower(targetID)) + ".json"
	return filepath.Join(c.dir, name)
}

// Get loads the profile for the target from disk.
func (c *FileCache) Get(targetID string) (*CapabilityProfile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := os.ReadFile(c.entryPath(targetID))
	if err != nil {
		return nil, false
	}

	var p CapabilityProfile
	if err := json.Unmarshal(b, &p); err != nil {
		// Corrupt entry: treat as a miss so it gets recomputed.
		return nil, false
	}
	return &p, true
}

// Put writes the profile to disk atomically (write to temp, then rename).
func (c *FileCache) Put(p *CapabilityProfile) error {
	if p == nil || p.TargetID == "" {
		return fmt.Errorf("profile must have a target id")
	}

	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.entryPath(p.TargetID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}
	return nil
}
