// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/petnova/petnova/internal/observability"
	"github.com/petnova/petnova/internal/store"
)

const testTokenKey = "0123456789abcdef0123456789abcdef"

var errNoDatabase = errors.New("fake database does not run queries")

// fakeDB implements Database without a server.
type fakeDB struct {
	pings  atomic.Int32
	closed atomic.Bool
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, errNoDatabase }
func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (f *fakeDB) Begin(context.Context) (pgx.Tx, error)                   { return nil, errNoDatabase }

func (f *fakeDB) Ping(context.Context) error {
	f.pings.Add(1)
	return nil
}

func (f *fakeDB) Close() { f.closed.Store(true) }

// fakeMigrator implements Migrator and records calls.
type fakeMigrator struct {
	mu      sync.Mutex
	calls   []string
	version uint
	dirty   bool
	status  *store.MigrationStatus
	err     error
	closed  bool
}

func (f *fakeMigrator) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeMigrator) Up() error   { return f.record("up") }
func (f *fakeMigrator) Down() error { return f.record("down") }

func (f *fakeMigrator) Version() (uint, bool, error) {
	if err := f.record("version"); err != nil {
		return 0, false, err
	}
	return f.version, f.dirty, nil
}

func (f *fakeMigrator) Force(v int) error {
	if err := f.record("force"); err != nil {
		return err
	}
	f.version = uint(v) //nolint:gosec // tests only force small versions
	return nil
}

func (f *fakeMigrator) Status() (*store.MigrationStatus, error) {
	if err := f.record("status"); err != nil {
		return nil, err
	}
	return f.status, nil
}

func (f *fakeMigrator) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeMigrator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeObservability implements ObservabilityServer without listening.
type fakeObservability struct {
	readiness observability.ReadinessChecker
	metrics   *observability.Metrics
	startErr  error
	started   atomic.Bool
	stopped   atomic.Bool
}

func (f *fakeObservability) Start() (<-chan error, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started.Store(true)
	return make(chan error, 1), nil
}

func (f *fakeObservability) Stop(context.Context) error {
	f.stopped.Store(true)
	return nil
}

func (f *fakeObservability) Addr() string { return "127.0.0.1:9100" }

func (f *fakeObservability) Metrics() *observability.Metrics { return f.metrics }

// testDeps wires fakes for every external resource.
func testDeps(db *fakeDB, m *fakeMigrator, obs *fakeObservability) *Deps {
	return &Deps{
		Connect: func(context.Context, string, *slog.Logger) (Database, error) {
			return db, nil
		},
		NewMigrator: func(string) (Migrator, error) {
			return m, nil
		},
		NewObservabilityServer: func(_ string, readiness observability.ReadinessChecker, _ *slog.Logger) ObservabilityServer {
			obs.readiness = readiness
			if obs.metrics == nil {
				obs.metrics = observability.NewMetrics(prometheus.NewRegistry())
			}
			return obs
		},
		LogWriter: io.Discard,
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, deps *Deps, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := NewRootCmd(deps)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append(args, "--env-file="))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}
