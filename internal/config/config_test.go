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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("ambient-ns")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.LoopSleep)
	assert.Equal(t, 15*time.Second, cfg.Unhealthy)
	assert.Equal(t, 27017, cfg.MongoPort)
	assert.Equal(t, "admin", cfg.MongoDatabase)
	assert.Equal(t, "", cfg.ServiceName)
	assert.Equal(t, "cluster.local", cfg.ClusterDomain)
	assert.Equal(t, "ambient-ns", cfg.Namespace, "Namespace defaults to the pod's own namespace when KUBE_NAMESPACE is unset")
	assert.Equal(t, "", cfg.LabelSelector)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("MONGO_SIDECAR_SLEEP_SECONDS", "10")
	t.Setenv("MONGO_SIDECAR_UNHEALTHY_SECONDS", "30")
	t.Setenv("MONGO_SIDECAR_POD_PORT", "27018")
	t.Setenv("MONGO_SIDECAR_DATABASE", "local")
	t.Setenv("KUBE_MONGO_SERVICE_NAME", "mongo-headless")
	t.Setenv("KUBERNETES_CLUSTER_DOMAIN", "custom.domain")
	t.Setenv("KUBE_NAMESPACE", "explicit-ns")
	t.Setenv("KUBE_POD_LABEL_SELECTOR", "app=mongo")

	cfg, err := Load("ambient-ns")
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.LoopSleep)
	assert.Equal(t, 30*time.Second, cfg.Unhealthy)
	assert.Equal(t, 27018, cfg.MongoPort)
	assert.Equal(t, "local", cfg.MongoDatabase)
	assert.Equal(t, "mongo-headless", cfg.ServiceName)
	assert.Equal(t, "custom.domain", cfg.ClusterDomain)
	assert.Equal(t, "explicit-ns", cfg.Namespace, "explicit KUBE_NAMESPACE overrides the pod's own namespace")
	assert.Equal(t, "app=mongo", cfg.LabelSelector)
}
