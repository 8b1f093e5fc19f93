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

// Package config resolves the sidecar's recognized options from the
// environment.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds every option the sidecar recognizes (spec §6).
type Config struct {
	// LoopSleep is the interval between tick completion and next tick start.
	LoopSleep time.Duration

	// Unhealthy is the heartbeat-staleness threshold past which a member
	// with health=0 is removed.
	Unhealthy time.Duration

	// MongoPort is the port suffix for every MemberAddress form and for
	// the local admin connection.
	MongoPort int

	// MongoDatabase is the admin database name used for RPC dispatch.
	MongoDatabase string

	// ServiceName enables stable DNS addressing when non-empty; it must
	// match the headless service fronting the workload.
	ServiceName string

	// ClusterDomain is the DNS cluster suffix, typically "cluster.local".
	ClusterDomain string

	// Namespace is the namespace to query for workload pods.
	Namespace string

	// LabelSelector identifies workload pods.
	LabelSelector string
}

const (
	keyLoopSleepSeconds = "loop_sleep_seconds"
	keyUnhealthySeconds = "unhealthy_seconds"
	keyMongoPort        = "mongo_port"
	keyMongoDatabase    = "mongo_database"
	keyServiceName      = "kube_mongo_service_name"
	keyClusterDomain    = "kubernetes_cluster_domain"
	keyNamespace        = "kube_namespace"
	keyPodLabelSelector = "kube_pod_label_selector"
)

// Load resolves Config from the environment. ownNamespace is used as the
// default for Namespace when KUBE_NAMESPACE is unset (spec §6: "defaults
// to the pod's own namespace").
func Load(ownNamespace string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault(keyLoopSleepSeconds, 5)
	v.SetDefault(keyUnhealthySeconds, 15)
	v.SetDefault(keyMongoPort, 27017)
	v.SetDefault(keyMongoDatabase, "admin")
	v.SetDefault(keyServiceName, "")
	v.SetDefault(keyClusterDomain, "cluster.local")
	v.SetDefault(keyNamespace, ownNamespace)
	v.SetDefault(keyPodLabelSelector, "")

	must := func(env, key string) {
		_ = v.BindEnv(key, env)
	}
	must("MONGO_SIDECAR_SLEEP_SECONDS", keyLoopSleepSeconds)
	must("MONGO_SIDECAR_UNHEALTHY_SECONDS", keyUnhealthySeconds)
	must("MONGO_SIDECAR_POD_PORT", keyMongoPort)
	must("MONGO_SIDECAR_DATABASE", keyMongoDatabase)
	must("KUBE_MONGO_SERVICE_NAME", keyServiceName)
	must("KUBERNETES_CLUSTER_DOMAIN", keyClusterDomain)
	must("KUBE_NAMESPACE", keyNamespace)
	must("KUBE_POD_LABEL_SELECTOR", keyPodLabelSelector)

	return &Config{
		LoopSleep:     time.Duration(v.GetInt(keyLoopSleepSeconds)) * time.Second,
		Unhealthy:     time.Duration(v.GetInt(keyUnhealthySeconds)) * time.Second,
		MongoPort:     v.GetInt(keyMongoPort),
		MongoDatabase: v.GetString(keyMongoDatabase),
		ServiceName:   v.GetString(keyServiceName),
		ClusterDomain: v.GetString(keyClusterDomain),
		Namespace:     v.GetString(keyNamespace),
		LabelSelector: v.GetString(keyPodLabelSelector),
	}, nil
}
