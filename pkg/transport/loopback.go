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

package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/procfile"
	"github.com/fleetscout/fleetscout/pkg/target"
)

// Loopback is an in-process Transport binding that answers queries from the
// local host. It is the default binding for self-audits and serves as the
// reference implementation for remote bindings: it speaks the full command
// vocabulary the built-in collectors and the profiler use, in the shapes
// they expect (structured Fields for primary tiers, Raw text for legacy
// tiers).
type Loopback struct {
	// Source file overrides, mainly for tests. Defaults are the live
	// system locations.
	MemInfoPath   string
	LoadAvgPath   string
	OSReleasePath string
	UptimePath    string
	KernelPath    string
	MountsPath    string
	ProcRootPath  string
}

// NewLoopback creates a Loopback transport reading the live system files.
func NewLoopback() *Loopback {
	return &Loopback{
		MemInfoPath:   procfile.MemInfoPath,
		LoadAvgPath:   procfile.LoadAvgPath,
		OSReleasePath: "/etc/os-release",
		UptimePath:    "/proc/uptime",
		KernelPath:    "/proc/sys/kernel/osrelease",
		MountsPath:    "/proc/mounts",
		ProcRootPath:  "/proc",
	}
}

// Resolve resolves the host via the local resolver.
func (l *Loopback) Resolve(ctx context.Context, host string) (string, error) {
	if host == "localhost" || host == "127.0.0.1" {
		return "127.0.0.1", nil
	}

	var r net.Resolver
	addrs, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeTransientNetwork,
			fmt.Sprintf("name resolution failed for %q", host), err)
	}
	if len(addrs) == 0 {
		return "", errors.New(errors.ErrCodeNotFound,
			fmt.Sprintf("no addresses for %q", host))
	}
	return addrs[0], nil
}

// Probe is a no-op for the local host.
func (l *Loopback) Probe(ctx context.Context, addr string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// CheckEndpoint is a no-op for the local host.
func (l *Loopback) CheckEndpoint(ctx context.Context, tgt target.Target) error {
	return nil
}

// Authenticate is a no-op for the local host.
func (l *Loopback) Authenticate(ctx context.Context, tgt target.Target, auth target.AuthContext) error {
	return nil
}

// Query answers supported commands from local system files. Unsupported
// commands return a not-found error so callers can exercise fallback tiers.
func (l *Loopback) Query(ctx context.Context, tgt target.Target, auth target.AuthContext, q Query) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch q.Command {
	case "cpu.count":
		return &Result{Fields: map[string]string{
			"count": strconv.Itoa(runtime.NumCPU()),
		}}, nil

	case "mem.info":
		stats, err := procfile.ReadMemStats(l.MemInfoPath)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeTransientEndpoint, "memory probe failed", err)
		}
		return &Result{Fields: map[string]string{
			"total_kb":     strconv.FormatUint(stats.TotalKB, 10),
			"available_kb": strconv.FormatUint(stats.AvailableKB, 10),
		}}, nil

	case "load.avg":
		load, err := procfile.ReadLoadPerCore(l.LoadAvgPath)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeTransientEndpoint, "load probe failed", err)
		}
		return &Result{Fields: map[string]string{
			"load_per_core": strconv.FormatFloat(load, 'f', 2, 64),
		}}, nil

	case "net.rtt":
		// Local loopback round-trip is effectively zero.
		return &Result{Fields: map[string]string{
			"rtt_ms": "0",
		}}, nil

	case "os.info":
		return l.osInfo()

	case "os.release":
		raw, err := os.ReadFile(l.OSReleasePath)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeTransientEndpoint, "os-release read failed", err)
		}
		return &Result{Raw: string(raw)}, nil

	case "os.kernel":
		kernel, err := l.firstLine(l.KernelPath)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeTransientEndpoint, "kernel identity read failed", err)
		}
		return &Result{Raw: kernel}, nil

	case "system.uptime":
		secs, err := l.uptimeSeconds()
		if err != nil {
			return nil, err
		}
		boot := time.Now().Add(-time.Duration(secs * float64(time.Second))).UTC()
		return &Result{Fields: map[string]string{
			"uptime_seconds": strconv.FormatFloat(secs, 'f', 2, 64),
			"boot_time":      boot.Format(time.RFC3339),
		}}, nil

	case "system.uptime.raw":
		line, err := l.firstLine(l.UptimePath)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeTransientEndpoint, "uptime read failed", err)
		}
		return &Result{Raw: line}, nil

	case "storage.volumes":
		total, free, err := statfsKB("/")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeTransientEndpoint, "statfs / failed", err)
		}
		return &Result{Fields: map[string]string{
			"mount":    "/",
			"total_kb": strconv.FormatUint(total, 10),
			"free_kb":  strconv.FormatUint(free, 10),
		}}, nil

	case "storage.df":
		return l.storageDF()

	case "services.state":
		procs, err := l.runningProcesses()
		if err != nil {
			return nil, err
		}
		fields := make(map[string]string, len(q.Args))
		for _, svc := range q.Args {
			fields[svc] = serviceState(procs, svc)
		}
		return &Result{Fields: fields}, nil

	case "services.list":
		procs, err := l.runningProcesses()
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(procs))
		for name := range procs {
			names = append(names, name+" running")
		}
		return &Result{Raw: strings.Join(names, "\n")}, nil

	case "net.interfaces":
		fields, err := interfaceAddrs()
		if err != nil {
			return nil, err
		}
		return &Result{Fields: fields}, nil

	case "net.config":
		fields, err := interfaceAddrs()
		if err != nil {
			return nil, err
		}
		lines := make([]string, 0, len(fields))
		for iface, addr := range fields {
			lines = append(lines, iface+" "+addr)
		}
		return &Result{Raw: strings.Join(lines, "\n")}, nil

	default:
		return nil, errors.New(errors.ErrCodeNotFound,
			fmt.Sprintf("command %q not supported by loopback binding", q.Command))
	}
}

// osInfo builds the structured identity record: the os-release map with
// lowercased keys, plus the kernel string when readable.
func (l *Loopback) osInfo() (*Result, error) {
	m, err := procfile.NewParser(
		procfile.WithKVDelimiter("="),
		procfile.WithVTrimChars(`"`),
	).GetMap(l.OSReleasePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransientEndpoint, "os-release read failed", err)
	}

	fields := make(map[string]string, len(m)+1)
	for k, v := range m {
		fields[strings.ToLower(k)] = v
	}
	if kernel, err := l.firstLine(l.KernelPath); err == nil {
		fields["kernel"] = kernel
	}
	return &Result{Fields: fields}, nil
}

// storageDF emits one "mount total_kb free_kb" row per real mounted
// filesystem. Pseudo filesystems (zero blocks) and unreadable mount points
// are skipped.
func (l *Loopback) storageDF() (*Result, error) {
	lines, err := procfile.NewParser().GetLines(l.MountsPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransientEndpoint, "mounts read failed", err)
	}

	var rows []string
	seen := make(map[string]bool)
	for _, line := range lines {
		cols := strings.Fields(line)
		if len(cols) < 2 || seen[cols[1]] {
			continue
		}
		seen[cols[1]] = true
		total, free, err := statfsKB(cols[1])
		if err != nil || total == 0 {
			continue
		}
		rows = append(rows, fmt.Sprintf("%s %d %d", cols[1], total, free))
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no mounted filesystems visible")
	}
	return &Result{Raw: strings.Join(rows, "\n")}, nil
}

// runningProcesses scans the proc root for per-process comm names.
func (l *Loopback) runningProcesses() (map[string]bool, error) {
	entries, err := os.ReadDir(l.ProcRootPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransientEndpoint, "process scan failed", err)
	}

	procs := make(map[string]bool)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(e.Name()); err != nil {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(l.ProcRootPath, e.Name(), "comm"))
		if err != nil {
			continue
		}
		if name := strings.TrimSpace(string(raw)); name != "" {
			procs[name] = true
		}
	}
	return procs, nil
}

// serviceState maps a service name to running/stopped by process presence.
// comm names are truncated to 15 bytes, so long names match on the prefix.
func serviceState(procs map[string]bool, name string) string {
	if procs[name] {
		return "running"
	}
	if len(name) > 15 && procs[name[:15]] {
		return "running"
	}
	return "stopped"
}

func (l *Loopback) firstLine(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(raw), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("empty file %s", path)
	}
	return line, nil
}

func (l *Loopback) uptimeSeconds() (float64, error) {
	line, err := l.firstLine(l.UptimePath)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeTransientEndpoint, "uptime read failed", err)
	}
	tok := strings.Fields(line)
	secs, err := strconv.ParseFloat(tok[0], 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeTransientEndpoint, "parsing uptime counter", err)
	}
	return secs, nil
}

func statfsKB(path string) (total, free uint64, err error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	bsize := uint64(st.Bsize)
	return st.Blocks * bsize / 1024, st.Bavail * bsize / 1024, nil
}

func interfaceAddrs() (map[string]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransientEndpoint, "interface enumeration failed", err)
	}

	fields := make(map[string]string)
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		fields[iface.Name] = addrs[0].String()
	}
	if len(fields) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no addressed network interfaces")
	}
	return fields, nil
}
