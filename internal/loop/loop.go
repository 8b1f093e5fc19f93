/*
Copyright 2024 Keiailab.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package loop runs the infinite reconcile loop described in spec §4.1:
// fixed-interval ticks, serial, with per-tick error isolation.
package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/keiailab/mongo-replicaset-sidecar/internal/hostidentity"
	"github.com/keiailab/mongo-replicaset-sidecar/internal/mongoadmin"
	"github.com/keiailab/mongo-replicaset-sidecar/internal/podsource"
	"github.com/keiailab/mongo-replicaset-sidecar/internal/reconciler"
)

// PodLister is the subset of PodSource the loop depends on.
type PodLister interface {
	ListMongoPods(ctx context.Context) ([]podsource.Pod, error)
}

// Reconciler is the subset of reconciler.Reconciler the loop depends on.
// Its Tick parameter type is reconciler.AdminClient itself (not a locally
// redeclared lookalike interface) so that *reconciler.Reconciler satisfies
// this interface exactly.
type Reconciler interface {
	Tick(ctx context.Context, pods []podsource.Pod, admin reconciler.AdminClient) error
}

// connAdmin is a reconciler.AdminClient that also owns a connection to
// close; every exit path from runTick closes it. *mongoadmin.Admin
// satisfies this.
type connAdmin interface {
	reconciler.AdminClient
	Close(ctx context.Context) error
}

// ConnectFunc opens the per-tick admin connection. Defaults to
// mongoadmin.Connect; injectable for tests.
type ConnectFunc func(ctx context.Context, address, database string) (connAdmin, error)

// Driver runs the reconcile loop on a fixed interval until ctx is
// cancelled.
type Driver struct {
	Pods      PodLister
	Reconcile Reconciler
	Interval  time.Duration
	LocalAddr string // 127.0.0.1:mongoPort, the local admin connection target
	Database  string
	Log       logr.Logger

	// Connect is injected for testability; defaults to mongoadmin.Connect.
	Connect ConnectFunc
}

func (d *Driver) connect() ConnectFunc {
	if d.Connect != nil {
		return d.Connect
	}
	return func(ctx context.Context, address, database string) (connAdmin, error) {
		return mongoadmin.Connect(ctx, address, database)
	}
}

// Run asserts HostIdentity is set, then loops forever: list pods, open
// an admin connection, reconcile, close the connection, log any surfaced
// error without aborting the process, and sleep. The sleep is always
// scheduled after work completes — ticks never overlap.
func (d *Driver) Run(ctx context.Context) {
	if !hostidentity.IsSet() {
		panic("loop: HostIdentity must be set before Run")
	}

	d.tick(ctx)
	for {
		timer := time.NewTimer(d.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.Log.Info("shutting down, current tick already complete")
			return
		case <-timer.C:
			d.tick(ctx)
		}
	}
}

func (d *Driver) tick(ctx context.Context) {
	if err := d.runTick(ctx); err != nil {
		d.Log.Error(err, "tick failed")
	}
}

func (d *Driver) runTick(ctx context.Context) error {
	pods, err := d.Pods.ListMongoPods(ctx)
	if err != nil {
		return fmt.Errorf("listing pods: %w", err)
	}

	admin, err := d.connect()(ctx, d.LocalAddr, d.Database)
	if err != nil {
		return fmt.Errorf("opening admin connection: %w", err)
	}
	defer func() {
		if cerr := admin.Close(ctx); cerr != nil {
			d.Log.Error(cerr, "closing admin connection")
		}
	}()

	return d.Reconcile.Tick(ctx, pods, admin)
}
