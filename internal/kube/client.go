// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package kube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/remotecommand"
	ctrlconfig "sigs.k8s.io/controller-runtime/pkg/client/config"

	"github.com/lightning-platform/lightning-installer/internal"
)

// ErrNotReady is returned while polling until a component reports at
// least the requested number of ready replicas.
var ErrNotReady = errors.New("component is not ready")

var crdGVR = schema.GroupVersionResource{
	Group:    "apiextensions.k8s.io",
	Version:  "v1",
	Resource: "customresourcedefinitions",
}

// Client wraps the cluster control-plane verbs the installer needs.
type Client struct {
	clientset  kubernetes.Interface
	dynamic    dynamic.Interface
	restConfig *rest.Config

	// PollInterval is how often readiness is re-checked while waiting.
	PollInterval time.Duration
}

// New builds a client from an explicit kubeconfig path, or from the
// usual KUBECONFIG/in-cluster resolution when the path is empty.
func New(kubeconfig string) (*Client, error) {
	var restConfig *rest.Config
	var err error
	if kubeconfig != "" {
		restConfig, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	} else {
		restConfig, err = ctrlconfig.GetConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("load Kubernetes config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("create Kubernetes client: %w", err)
	}
	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}

	return &Client{
		clientset:    clientset,
		dynamic:      dynamicClient,
		restConfig:   restConfig,
		PollInterval: 10 * time.Second,
	}, nil
}

// NewWithClientset is used by tests to run against a fake clientset.
func NewWithClientset(clientset kubernetes.Interface, dynamicClient dynamic.Interface) *Client {
	return &Client{
		clientset:    clientset,
		dynamic:      dynamicClient,
		PollInterval: 10 * time.Millisecond,
	}
}

func (c *Client) EnsureNamespace(ctx context.Context, name string) error {
	_, err := c.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("get namespace %s: %w", name, err)
	}
	_, err = c.clientset.CoreV1().Namespaces().Create(ctx, &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("create namespace %s: %w", name, err)
	}
	return nil
}

func (c *Client) NamespaceExists(ctx context.Context, name string) (bool, error) {
	_, err := c.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) DeleteNamespace(ctx context.Context, name string) error {
	err := c.clientset.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

func (c *Client) EnsureServiceAccount(ctx context.Context, namespace, name string, labels map[string]string) error {
	_, err := c.clientset.CoreV1().ServiceAccounts(namespace).Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("get service account %s/%s: %w", namespace, name, err)
	}
	_, err = c.clientset.CoreV1().ServiceAccounts(namespace).Create(ctx, &corev1.ServiceAccount{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    labels,
		},
	}, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("create service account %s/%s: %w", namespace, name, err)
	}
	return nil
}

func (c *Client) ServiceAccountExists(ctx context.Context, namespace, name string) (bool, error) {
	_, err := c.clientset.CoreV1().ServiceAccounts(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReadyReplicas counts pods matching the selector that report the
// PodReady condition.
func (c *Client) ReadyReplicas(ctx context.Context, namespace, selector string) (int, error) {
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return 0, fmt.Errorf("list pods in %s: %w", namespace, err)
	}
	ready := 0
	for _, pod := range pods.Items {
		for _, cond := range pod.Status.Conditions {
			if cond.Type == corev1.PodReady && cond.Status == corev1.ConditionTrue {
				ready++
				break
			}
		}
	}
	return ready, nil
}

// ServiceReachable checks that the named service exists and exposes an
// entry point. LoadBalancer services must have an assigned ingress.
func (c *Client) ServiceReachable(ctx context.Context, namespace, name string) (bool, error) {
	svc, err := c.clientset.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(svc.Spec.Ports) == 0 {
		return false, nil
	}
	if svc.Spec.Type == corev1.ServiceTypeLoadBalancer && len(svc.Status.LoadBalancer.Ingress) == 0 {
		return false, nil
	}
	return true, nil
}

// WaitForReady blocks until at least minReady pods matching the
// selector are ready, rechecking on every poll interval until the
// timeout elapses. The wait is bounded, never indefinite.
func (c *Client) WaitForReady(ctx context.Context, namespace, selector string, minReady int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ready, err := c.ReadyReplicas(ctx, namespace, selector)
		if err != nil {
			internal.Logger().Debugf("readiness check for %s failed, will retry: %v", selector, err)
		} else if ready >= minReady {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%s in %s did not become ready within %s: %w", selector, namespace, timeout, ErrNotReady)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.PollInterval):
		}
	}
}

// PodLogs fetches the last tailLines of logs from every pod matching
// the selector, one fetch per pod in parallel. The result maps pod
// name to its raw log text.
func (c *Client) PodLogs(ctx context.Context, namespace, selector string, tailLines int64) (map[string]string, error) {
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, fmt.Errorf("list pods in %s: %w", namespace, err)
	}

	logs := make(map[string]string, len(pods.Items))
	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	for _, pod := range pods.Items {
		group.Go(func() error {
			req := c.clientset.CoreV1().Pods(namespace).GetLogs(pod.Name, &corev1.PodLogOptions{
				TailLines: &tailLines,
			})
			stream, err := req.Stream(groupCtx)
			if err != nil {
				return fmt.Errorf("stream logs for %s: %w", pod.Name, err)
			}
			defer stream.Close()
			data, err := io.ReadAll(stream)
			if err != nil {
				return fmt.Errorf("read logs for %s: %w", pod.Name, err)
			}
			mu.Lock()
			logs[pod.Name] = string(data)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return logs, err
	}
	return logs, nil
}

// WarningEvents returns recent warning events in the namespace as
// human-readable lines.
func (c *Client) WarningEvents(ctx context.Context, namespace string) ([]string, error) {
	events, err := c.clientset.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{
		FieldSelector: "type=Warning",
	})
	if err != nil {
		return nil, fmt.Errorf("list events in %s: %w", namespace, err)
	}
	lines := make([]string, 0, len(events.Items))
	for _, ev := range events.Items {
		lines = append(lines, fmt.Sprintf("%s %s/%s: %s", ev.Reason, ev.InvolvedObject.Kind, ev.InvolvedObject.Name, ev.Message))
	}
	return lines, nil
}

// DeletePVCs removes all persistent volume claims matching the
// selector. Missing claims are not an error.
func (c *Client) DeletePVCs(ctx context.Context, namespace, selector string) error {
	pvcs, err := c.clientset.CoreV1().PersistentVolumeClaims(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return fmt.Errorf("list PVCs in %s: %w", namespace, err)
	}
	for _, pvc := range pvcs.Items {
		err := c.clientset.CoreV1().PersistentVolumeClaims(namespace).Delete(ctx, pvc.Name, metav1.DeleteOptions{})
		if err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("delete PVC %s/%s: %w", namespace, pvc.Name, err)
		}
	}
	return nil
}

func (c *Client) EnsureSecret(ctx context.Context, namespace, name string, data map[string][]byte) error {
	_, err := c.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("get secret %s/%s: %w", namespace, name, err)
	}
	_, err = c.clientset.CoreV1().Secrets(namespace).Create(ctx, &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Data:       data,
	}, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("create secret %s/%s: %w", namespace, name, err)
	}
	return nil
}

func (c *Client) DeleteSecret(ctx context.Context, namespace, name string) error {
	err := c.clientset.CoreV1().Secrets(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

// DeleteCRD removes a cluster-scoped custom resource definition,
// tolerating one that is already gone.
func (c *Client) DeleteCRD(ctx context.Context, name string) error {
	if c.dynamic == nil {
		return nil
	}
	err := c.dynamic.Resource(crdGVR).Delete(ctx, name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

// Exec runs a command inside the first pod matching the selector and
// returns combined stdout.
func (c *Client) Exec(ctx context.Context, namespace, selector string, command []string) (string, error) {
	if c.restConfig == nil {
		return "", errors.New("exec requires a live cluster connection")
	}
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return "", fmt.Errorf("list pods in %s: %w", namespace, err)
	}
	if len(pods.Items) == 0 {
		return "", fmt.Errorf("no pod matching %s in %s", selector, namespace)
	}
	pod := pods.Items[0]

	req := c.clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(namespace).
		Name(pod.Name).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Command: command,
			Stdout:  true,
			Stderr:  true,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(c.restConfig, "POST", req.URL())
	if err != nil {
		return "", fmt.Errorf("create executor: %w", err)
	}

	var stdout, stderr bytes.Buffer
	err = executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		return stdout.String(), fmt.Errorf("exec in %s: %w, stderr: %s", pod.Name, err, stderr.String())
	}
	return stdout.String(), nil
}
