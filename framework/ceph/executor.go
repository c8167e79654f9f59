package ceph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
)

// ToolsSelector matches the Ceph toolbox pod that carries the ceph CLI
const ToolsSelector = "app=rook-ceph-tools"

// Executor runs a command inside the storage toolbox and returns its
// combined standard output
type Executor interface {
	Exec(ctx context.Context, command []string) (string, error)
}

// RemoteExecutor executes commands in the toolbox pod over the exec
// subresource. The toolbox pod is resolved on every call; the pod can be
// rescheduled between calls.
type RemoteExecutor struct {
	client     kubernetes.Interface
	restConfig *rest.Config
	namespace  string
}

// NewRemoteExecutor creates a RemoteExecutor against the given namespace
func NewRemoteExecutor(client kubernetes.Interface, restConfig *rest.Config, namespace string) *RemoteExecutor {
	return &RemoteExecutor{client: client, restConfig: restConfig, namespace: namespace}
}

// Exec runs the command in the toolbox pod
func (e *RemoteExecutor) Exec(ctx context.Context, command []string) (string, error) {
	pod, err := e.toolsPod(ctx)
	if err != nil {
		return "", err
	}

	req := e.client.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(e.namespace).
		Name(pod).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Command: command,
			Stdout:  true,
			Stderr:  true,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(e.restConfig, "POST", req.URL())
	if err != nil {
		return "", fmt.Errorf("creating executor for pod %s: %w", pod, err)
	}

	var stdout, stderr bytes.Buffer
	err = executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		return "", fmt.Errorf("executing %q in pod %s: %w (stderr: %s)",
			strings.Join(command, " "), pod, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (e *RemoteExecutor) toolsPod(ctx context.Context) (string, error) {
	pods, err := e.client.CoreV1().Pods(e.namespace).List(ctx, metav1.ListOptions{LabelSelector: ToolsSelector})
	if err != nil {
		return "", fmt.Errorf("listing toolbox pods: %w", err)
	}
	for i := range pods.Items {
		if pods.Items[i].Status.Phase == corev1.PodRunning {
			return pods.Items[i].Name, nil
		}
	}
	return "", fmt.Errorf("no running toolbox pod matches %q in namespace %s", ToolsSelector, e.namespace)
}
