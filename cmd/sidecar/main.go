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

// Command sidecar runs one replica of the MongoDB replica-set sidecar
// controller: it observes the cluster's pods and the local mongod's
// replica-set configuration and reconciles one toward the other.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/keiailab/mongo-replicaset-sidecar/internal/addressing"
	"github.com/keiailab/mongo-replicaset-sidecar/internal/config"
	"github.com/keiailab/mongo-replicaset-sidecar/internal/hostidentity"
	"github.com/keiailab/mongo-replicaset-sidecar/internal/loop"
	"github.com/keiailab/mongo-replicaset-sidecar/internal/podsource"
	"github.com/keiailab/mongo-replicaset-sidecar/internal/reconciler"
)

func main() {
	var zapOpts zap.Options
	zapOpts.BindFlags(flag.CommandLine)
	flag.Parse()

	log := zap.New(zap.UseFlagOptions(&zapOpts)).WithName("sidecar")

	if err := run(log); err != nil {
		log.Error(err, "fatal error during startup")
		os.Exit(1)
	}
}

// run wires Config, HostIdentity, PodSource, and the Reconciler into a
// LoopDriver and runs it until an OS termination signal arrives. Startup
// failures (hostname resolution, cluster API client construction) are
// fatal and propagated to main (spec §4.1).
func run(log logr.Logger) error {
	ownNamespace, err := readOwnNamespace()
	if err != nil {
		return fmt.Errorf("determining own namespace: %w", err)
	}

	cfg, err := config.Load(ownNamespace)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := hostidentity.Set(cfg.MongoPort); err != nil {
		return fmt.Errorf("resolving host identity: %w", err)
	}
	log.Info("resolved host identity", "ip", hostidentity.Get().IP)

	pods, err := podsource.New(cfg.Namespace, cfg.LabelSelector)
	if err != nil {
		return fmt.Errorf("initializing cluster API client: %w", err)
	}

	addr := addressing.Addressing{
		ServiceName:   cfg.ServiceName,
		ClusterDomain: cfg.ClusterDomain,
		Namespace:     cfg.Namespace,
		Port:          cfg.MongoPort,
	}

	rec := &reconciler.Reconciler{
		Addr:      addr,
		Database:  cfg.MongoDatabase,
		Unhealthy: cfg.Unhealthy,
		Log:       log.WithName("reconciler"),
	}

	driver := &loop.Driver{
		Pods:      pods,
		Reconcile: rec,
		Interval:  cfg.LoopSleep,
		LocalAddr: fmt.Sprintf("127.0.0.1:%d", cfg.MongoPort),
		Database:  cfg.MongoDatabase,
		Log:       log.WithName("loop"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	log.Info("starting reconcile loop", "interval", cfg.LoopSleep)
	driver.Run(ctx)
	return nil
}

// readOwnNamespace reads the namespace this pod runs in from the
// downward-API-mounted service account token directory, the conventional
// in-cluster source (spec §6: k8sNamespace "defaults to the pod's own
// namespace").
func readOwnNamespace() (string, error) {
	const path = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "default", nil
		}
		return "", err
	}
	return string(data), nil
}
