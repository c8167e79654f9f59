package framework

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redhat/perf-tests-ocs/test/framework/concurrent"
	"github.com/redhat/perf-tests-ocs/test/framework/gvr"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

// LogCollectionConfig configures log collection behavior
type LogCollectionConfig struct {
	// OutputDir is the directory to write logs to
	OutputDir string
	// IncludePrevious includes logs from previous container instances
	IncludePrevious bool
	// SinceTime only returns logs after this time
	SinceTime *time.Time
	// TailLines limits the number of lines to return (0 = all)
	TailLines int64
}

// ComponentLogs holds logs for a single component
type ComponentLogs struct {
	Component string
	Pod       string
	Container string
	Logs      string
	Error     error
}

// LogCollectionResult holds the result of collecting logs from all components
type LogCollectionResult struct {
	Namespace string
	Timestamp time.Time
	Logs      []ComponentLogs
	OutputDir string
}

// CollectLogs collects logs from the benchmark pods and the storage
// operator components involved in the run
func (f *Framework) CollectLogs(config *LogCollectionConfig) (*LogCollectionResult, error) {
	if config == nil {
		config = &LogCollectionConfig{}
	}
	if config.OutputDir == "" {
		config.OutputDir = "logs"
	}

	result := &LogCollectionResult{
		Namespace: f.namespace,
		Timestamp: time.Now(),
		OutputDir: config.OutputDir,
		Logs:      make([]ComponentLogs, 0),
	}

	logDir := filepath.Join(config.OutputDir, f.namespace)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f.logger.Info("collecting logs", "namespace", f.namespace, "dir", logDir)

	components := []logComponent{
		{"benchmark-runner", f.namespace, "benchmark-operator-workload=true"},
		{"benchmark-operator", f.namespace, "control-plane=controller-manager"},
		{"rook-ceph-tools", StorageNamespace, "app=rook-ceph-tools"},
		{"rook-ceph-operator", StorageNamespace, "app=rook-ceph-operator"},
		{"ceph-osd", StorageNamespace, "app=rook-ceph-osd"},
		{"ceph-mon", StorageNamespace, "app=rook-ceph-mon"},
	}

	perComponent, err := concurrent.MapWithLimit(f.ctx, components, f.config.BulkWaitLimit,
		func(ctx context.Context, comp logComponent) ([]ComponentLogs, error) {
			return f.collectPodsLogs(ctx, comp.name, comp.namespace, comp.selector, config), nil
		})
	if err != nil {
		f.logger.Warn("log collection incomplete", "error", err)
	}
	for _, logs := range perComponent {
		result.Logs = append(result.Logs, logs...)
	}

	collected := 0
	for _, log := range result.Logs {
		if log.Error != nil || log.Logs == "" {
			continue
		}

		filename := fmt.Sprintf("%s-%s.log", log.Component, log.Pod)
		if log.Container != "" && log.Container != log.Component {
			filename = fmt.Sprintf("%s-%s-%s.log", log.Component, log.Pod, log.Container)
		}
		filename = strings.ReplaceAll(filename, "/", "-")
		path := filepath.Join(logDir, filename)

		if err := os.WriteFile(path, []byte(log.Logs), 0644); err != nil {
			f.logger.Warn("failed to write log file", "file", filename, "error", err)
			continue
		}
		collected++
	}

	f.logger.Info("log collection finished", "files", collected, "dir", logDir)
	return result, nil
}

// logComponent identifies a pod group whose logs get collected together
type logComponent struct {
	name      string
	namespace string
	selector  string
}

// collectPodsLogs collects logs from pods matching the selector. Container
// streams are fetched concurrently; an error fetching one stream lands in
// that entry's Error field instead of failing the batch.
func (f *Framework) collectPodsLogs(ctx context.Context, component, namespace, selector string, config *LogCollectionConfig) []ComponentLogs {
	pods, err := f.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil
	}

	col := concurrent.NewCollector[ComponentLogs]()
	for i := range pods.Items {
		pod := &pods.Items[i]
		// Skip pods that aren't running or completed
		if pod.Status.Phase != corev1.PodRunning &&
			pod.Status.Phase != corev1.PodSucceeded &&
			pod.Status.Phase != corev1.PodFailed {
			continue
		}

		for _, container := range pod.Spec.Containers {
			col.Go(func() (ComponentLogs, error) {
				logs, err := f.getPodContainerLogs(ctx, namespace, pod.Name, container.Name, config)
				return ComponentLogs{
					Component: component,
					Pod:       pod.Name,
					Container: container.Name,
					Logs:      logs,
					Error:     err,
				}, nil
			})
		}
	}

	results, _ := col.Wait()
	return results
}

// getPodContainerLogs retrieves logs from a specific container
func (f *Framework) getPodContainerLogs(ctx context.Context, namespace, podName, containerName string, config *LogCollectionConfig) (string, error) {
	opts := &corev1.PodLogOptions{
		Container: containerName,
		Previous:  config.IncludePrevious,
	}

	if config.SinceTime != nil {
		t := metav1.NewTime(*config.SinceTime)
		opts.SinceTime = &t
	}

	if config.TailLines > 0 {
		opts.TailLines = &config.TailLines
	}

	req := f.client.CoreV1().Pods(namespace).GetLogs(podName, opts)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stream, err := req.Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to stream logs: %w", err)
	}
	defer stream.Close()

	var logs strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			logs.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}

	return logs.String(), nil
}

// CRDump holds information about a dumped custom resource
type CRDump struct {
	Kind      string
	Name      string
	Namespace string
	FilePath  string
}

// DumpBenchmarkCR fetches a benchmark CR from the cluster and writes it to
// a YAML file, status included; the reconciled state is what matters after
// a failed run.
func (f *Framework) DumpBenchmarkCR(name, outputDir string) (*CRDump, error) {
	if outputDir == "" {
		outputDir = "."
	}

	logDir := filepath.Join(outputDir, f.namespace)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	cr, err := f.dynamicClient.Resource(gvr.Benchmark).Namespace(f.namespace).Get(f.ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get benchmark CR %s: %w", name, err)
	}

	cr.SetManagedFields(nil)
	yamlData, err := yaml.Marshal(cr.UnstructuredContent())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal benchmark CR to YAML: %w", err)
	}

	filename := fmt.Sprintf("benchmark-%s.yaml", name)
	filePath := filepath.Join(logDir, filename)

	if err := os.WriteFile(filePath, yamlData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write benchmark CR to file: %w", err)
	}

	return &CRDump{
		Kind:      "Benchmark",
		Name:      name,
		Namespace: f.namespace,
		FilePath:  filePath,
	}, nil
}
