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

// Package addressing derives the canonical member address for a pod
// (spec §4.4): a stable DNS name when a headless service is configured,
// else the pod's bare IP:port.
package addressing

import (
	"fmt"

	"github.com/keiailab/mongo-replicaset-sidecar/internal/podsource"
)

// Addressing derives MemberAddress values (host:port strings) for pods,
// given the cluster addressing configuration.
type Addressing struct {
	ServiceName   string
	ClusterDomain string
	Namespace     string
	Port          int
}

// Canonical returns the preferred MemberAddress for pod, per spec §4.4:
//  1. hostname.service.namespace.svc.clusterDomain:port, when ServiceName
//     is configured and the pod's hostname/subdomain pair matches it.
//  2. podName.service.namespace.svc.clusterDomain:port, when ServiceName
//     is configured but the pod spec lacks a matching hostname/subdomain.
//  3. podIP:port otherwise.
func (a Addressing) Canonical(p podsource.Pod) string {
	if a.ServiceName == "" {
		return a.podIP(p)
	}
	if p.Hostname != "" && p.Subdomain == a.ServiceName {
		return a.stable(p.Hostname)
	}
	return a.stable(p.Name)
}

// PodIPAddress returns podIP:port when p.PodIP is set, else "".
func (a Addressing) PodIPAddress(p podsource.Pod) string {
	return a.podIP(p)
}

func (a Addressing) podIP(p podsource.Pod) string {
	if p.PodIP == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", p.PodIP, a.Port)
}

func (a Addressing) stable(name string) string {
	return fmt.Sprintf("%s.%s.%s.svc.%s:%d", name, a.ServiceName, a.Namespace, a.ClusterDomain, a.Port)
}

// MemberPresent reports whether pod p is already represented by
// memberName/memberIP in the replica-set config, per spec §4.4: a match on
// either canonical form, or on member.ip == pod.podIP.
func (a Addressing) MemberPresent(p podsource.Pod, memberName, memberIP string) bool {
	if memberName != "" && (memberName == a.Canonical(p) || memberName == a.PodIPAddress(p)) {
		return true
	}
	if memberIP != "" && p.PodIP != "" && memberIP == p.PodIP {
		return true
	}
	return false
}
