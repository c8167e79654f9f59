package framework

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/redhat/perf-tests-ocs/test/framework/sampler"
)

// EnsureNamespace creates the namespace if it doesn't exist
func (f *Framework) EnsureNamespace() error {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   f.namespace,
			Labels: f.GetManagedLabels(),
		},
	}

	_, err := f.client.CoreV1().Namespaces().Create(f.ctx, ns, metav1.CreateOptions{})
	if err != nil {
		if !apierrors.IsAlreadyExists(err) {
			return fmt.Errorf("failed to create namespace: %w", err)
		}
	}
	return nil
}

// DeleteNamespace deletes the namespace and waits until it is gone
func (f *Framework) DeleteNamespace() error {
	err := f.client.CoreV1().Namespaces().Delete(f.ctx, f.namespace, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete namespace: %w", err)
	}

	timeout := f.config.NamespaceDeletionTimeout
	s := sampler.New(f.config.CRDeletionPollInterval, timeout, func(ctx context.Context) (bool, error) {
		_, err := f.client.CoreV1().Namespaces().Get(ctx, f.namespace, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return false, nil
	})

	if _, err := s.WaitFor(f.ctx, func(gone bool) bool { return gone }); err != nil {
		if sampler.IsTimeout(err) {
			return NewTimeoutError("namespace deletion", timeout.String(), f.namespace)
		}
		return err
	}
	return nil
}
