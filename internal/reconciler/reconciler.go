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

// Package reconciler implements the state machine that classifies the
// current replica-set condition and drives it toward the desired
// membership (spec §4.6).
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/keiailab/mongo-replicaset-sidecar/internal/addressing"
	"github.com/keiailab/mongo-replicaset-sidecar/internal/election"
	"github.com/keiailab/mongo-replicaset-sidecar/internal/hostidentity"
	"github.com/keiailab/mongo-replicaset-sidecar/internal/mongoadmin"
	"github.com/keiailab/mongo-replicaset-sidecar/internal/podsource"
)

// AdminClient is the subset of *mongoadmin.Admin the reconciler depends
// on. Tests substitute a fake implementation.
type AdminClient interface {
	GetStatus(ctx context.Context) (*mongoadmin.ReplSetStatus, error)
	Initiate(ctx context.Context, primaryAddress string) error
	Reconfigure(ctx context.Context, additions, removals []string, force bool) error
}

// ProbeFunc probes a remote address for existing replica-set membership.
// Defaults to mongoadmin.IsInReplSet; injectable for tests.
type ProbeFunc func(ctx context.Context, remoteAddress, database string) (bool, error)

// Reconciler classifies replSetGetStatus outcomes and drives one of the
// four reconciliation branches named in spec §4.6.
type Reconciler struct {
	Addr      addressing.Addressing
	Database  string
	Unhealthy time.Duration
	Log       logr.Logger

	// Now is injected for testability; defaults to time.Now.
	Now func() time.Time

	// Probe is injected for testability; defaults to mongoadmin.IsInReplSet.
	Probe ProbeFunc

	// MyIP overrides hostidentity.Get().IP; injected for testability.
	MyIP string
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Reconciler) probe() ProbeFunc {
	if r.Probe != nil {
		return r.Probe
	}
	return mongoadmin.IsInReplSet
}

// Tick runs one reconcile pass: classify the database state as observed
// through admin, and drive it toward the membership implied by pods.
// pods need not be pre-filtered; Tick filters to Running ∧ podIP≠∅ itself.
func (r *Reconciler) Tick(ctx context.Context, pods []podsource.Pod, admin AdminClient) error {
	eligible := podsource.FilterEligible(pods)
	if len(eligible) == 0 {
		r.Log.Info("no eligible pods observed, skipping tick")
		return nil
	}

	myIP := r.MyIP
	if myIP == "" {
		myIP = hostidentity.Get().IP
	}

	status, err := admin.GetStatus(ctx)
	if err == nil {
		return r.tickWithStatus(ctx, admin, eligible, myIP, *status)
	}

	var statusErr *mongoadmin.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.NotYetInitialized():
			return r.initialize(ctx, admin, eligible, myIP)
		case statusErr.InvalidConfig():
			if !election.AmIElected(eligible, myIP) {
				r.Log.Info("replica set config invalid, not elected, skipping force recovery")
				return nil
			}
			r.Log.Info("replica set config invalid, elected, attempting force recovery")
			return r.primaryWork(ctx, admin, eligible, nil, true)
		}
	}

	r.Log.Error(err, "transient error reading replica set status")
	return err
}

func (r *Reconciler) tickWithStatus(ctx context.Context, admin AdminClient, pods []podsource.Pod, myIP string, status mongoadmin.ReplSetStatus) error {
	primary, hasPrimary := status.Primary()
	switch {
	case hasPrimary && primary.Self:
		return r.primaryWork(ctx, admin, pods, status.Members, false)
	case hasPrimary && !primary.Self:
		r.Log.Info("another member is primary, nothing to do")
		return nil
	default:
		if election.AmIElected(pods, myIP) {
			r.Log.Info("no primary and elected, forcing primary work")
			return r.primaryWork(ctx, admin, pods, status.Members, true)
		}
		r.Log.Info("no primary and not elected, nothing to do")
		return nil
	}
}

// primaryWork implements spec §4.6.1 (and, via force=true, §4.6.3): compute
// additions and removals from pods vs. members, and submit them together
// in a single reconfigure if either set is non-empty.
func (r *Reconciler) primaryWork(ctx context.Context, admin AdminClient, pods []podsource.Pod, members []mongoadmin.ReplSetMember, force bool) error {
	additions := r.computeAdditions(pods, members)
	removals := r.computeRemovals(members)

	if len(additions) == 0 && len(removals) == 0 {
		r.Log.Info("membership already converged, nothing to do")
		return nil
	}

	r.Log.Info("reconfiguring replica set", "additions", additions, "removals", removals, "force", force)
	if err := admin.Reconfigure(ctx, additions, removals, force); err != nil {
		r.Log.Error(err, "reconfigure failed")
		return fmt.Errorf("reconfiguring replica set: %w", err)
	}
	return nil
}

func (r *Reconciler) computeAdditions(pods []podsource.Pod, members []mongoadmin.ReplSetMember) []string {
	var additions []string
	for _, p := range pods {
		present := false
		for _, m := range members {
			if r.Addr.MemberPresent(p, m.Name, m.IP) {
				present = true
				break
			}
		}
		if !present {
			additions = append(additions, r.Addr.Canonical(p))
		}
	}
	return additions
}

func (r *Reconciler) computeRemovals(members []mongoadmin.ReplSetMember) []string {
	var removals []string
	now := r.now()
	for _, m := range members {
		if m.UnhealthySince(now, r.Unhealthy) {
			removals = append(removals, m.Name)
		}
	}
	return removals
}

// initialize implements spec §4.6.2: probe every eligible pod, and only
// initiate if none report existing membership and this host is elected.
func (r *Reconciler) initialize(ctx context.Context, admin AdminClient, pods []podsource.Pod, myIP string) error {
	anyInSet, err := r.probeAny(ctx, pods)
	if err != nil {
		r.Log.Error(err, "peer probe failed")
		return err
	}
	if anyInSet {
		r.Log.Info("a peer already reports replica set membership, skipping initiation")
		return nil
	}
	if !election.AmIElected(pods, myIP) {
		r.Log.Info("not elected, skipping initiation")
		return nil
	}

	winner := election.SortByIP(pods)[0]
	primaryAddress := r.Addr.Canonical(winner)
	if primaryAddress == "" {
		primaryAddress = hostidentity.Get().Address
	}

	r.Log.Info("initiating replica set", "primaryAddress", primaryAddress)
	if err := admin.Initiate(ctx, primaryAddress); err != nil {
		return fmt.Errorf("initiating replica set: %w", err)
	}
	return nil
}

// probeAny fans out isInReplSet to every pod concurrently and returns true
// if any reports membership. The first probe failure is propagated,
// rather than being treated as "not in set" — Design Notes §9.
func (r *Reconciler) probeAny(ctx context.Context, pods []podsource.Pod) (bool, error) {
	results := make([]bool, len(pods))
	probe := r.probe()
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range pods {
		i, p := i, p
		g.Go(func() error {
			addr := r.Addr.PodIPAddress(p)
			inSet, err := probe(gctx, addr, r.Database)
			if err != nil {
				return err
			}
			results[i] = inSet
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	for _, in := range results {
		if in {
			return true, nil
		}
	}
	return false, nil
}
