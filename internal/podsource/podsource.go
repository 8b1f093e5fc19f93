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

package podsource

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/client/config"
)

// PodSource lists pods of the MongoDB workload from the cluster API.
type PodSource struct {
	clientset kubernetes.Interface
	namespace string
	selector  string
}

// New builds a PodSource against the ambient cluster API credentials
// (in-cluster service account, else $KUBECONFIG), matching the teacher's
// NewExecutor construction.
func New(namespace, labelSelector string) (*PodSource, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("getting kubernetes config: %w", err)
	}
	return NewWithRESTConfig(cfg, namespace, labelSelector)
}

// NewWithRESTConfig builds a PodSource from an explicit rest.Config.
func NewWithRESTConfig(cfg *rest.Config, namespace, labelSelector string) (*PodSource, error) {
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating kubernetes clientset: %w", err)
	}
	return &PodSource{clientset: clientset, namespace: namespace, selector: labelSelector}, nil
}

// NewWithClientset builds a PodSource around an already-constructed
// kubernetes.Interface, used by tests with a fake clientset.
func NewWithClientset(clientset kubernetes.Interface, namespace, labelSelector string) *PodSource {
	return &PodSource{clientset: clientset, namespace: namespace, selector: labelSelector}
}

// ListMongoPods lists pods in the configured namespace matching the
// configured label selector (spec §4.2). No caching across ticks.
func (s *PodSource) ListMongoPods(ctx context.Context) ([]Pod, error) {
	list, err := s.clientset.CoreV1().Pods(s.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: s.selector,
	})
	if err != nil {
		return nil, fmt.Errorf("listing pods in namespace %q with selector %q: %w", s.namespace, s.selector, err)
	}

	pods := make([]Pod, 0, len(list.Items))
	for _, item := range list.Items {
		pods = append(pods, fromCoreV1(item))
	}
	return pods, nil
}

func fromCoreV1(p corev1.Pod) Pod {
	var hostname, subdomain string
	if p.Spec.Hostname != "" {
		hostname = p.Spec.Hostname
	}
	if p.Spec.Subdomain != "" {
		subdomain = p.Spec.Subdomain
	}
	return Pod{
		Name:      p.Name,
		Namespace: p.Namespace,
		Phase:     Phase(p.Status.Phase),
		PodIP:     p.Status.PodIP,
		Hostname:  hostname,
		Subdomain: subdomain,
	}
}
