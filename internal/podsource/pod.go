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

// Package podsource lists the pods of the MongoDB workload from the
// cluster API.
package podsource

// Pod is an observation of a Kubernetes pod in the target workload
// (spec §3). Only Running pods with a non-empty PodIP participate in
// reconciliation.
type Pod struct {
	Name      string
	Namespace string
	Phase     Phase
	PodIP     string
	Hostname  string
	Subdomain string
}

// Phase mirrors corev1.PodPhase without importing it into every
// component that only needs the five values spec.md names.
type Phase string

const (
	PhasePending   Phase = "Pending"
	PhaseRunning   Phase = "Running"
	PhaseSucceeded Phase = "Succeeded"
	PhaseFailed    Phase = "Failed"
	PhaseUnknown   Phase = "Unknown"
)

// Eligible reports whether p participates in reconciliation: Running with
// a known pod IP.
func (p Pod) Eligible() bool {
	return p.Phase == PhaseRunning && p.PodIP != ""
}

// FilterEligible returns the subset of pods that participate in
// reconciliation.
func FilterEligible(pods []Pod) []Pod {
	out := make([]Pod, 0, len(pods))
	for _, p := range pods {
		if p.Eligible() {
			out = append(out, p)
		}
	}
	return out
}
