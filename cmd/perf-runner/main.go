package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"

	"github.com/redhat/perf-tests-ocs/test/framework"
	"github.com/redhat/perf-tests-ocs/test/framework/config"
	"github.com/redhat/perf-tests-ocs/test/framework/platform"
	"github.com/redhat/perf-tests-ocs/test/framework/profile"
	"github.com/redhat/perf-tests-ocs/test/framework/resource"
	"github.com/redhat/perf-tests-ocs/test/framework/workload"
)

var (
	configFlags = genericclioptions.NewConfigFlags(true)

	namespace   string
	logLevel    string
	vsphereURL  string
	vsphereUser string
	vspherePass string
	vsphereDC   string
	vsphereDir  string
)

func main() {
	root := &cobra.Command{
		Use:   "perf-runner",
		Short: "Storage performance test runner for OpenShift Data Foundation",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel)
		},
		SilenceUsage: true,
	}

	root.SetGlobalNormalizationFunc(func(fs *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	// The test namespace is ours, not kubectl's
	configFlags.Namespace = nil
	configFlags.AddFlags(root.PersistentFlags())

	root.PersistentFlags().StringVarP(&namespace, "namespace", "n", "ocs-perf-test", "namespace for test resources")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&vsphereURL, "vsphere-url", os.Getenv("VSPHERE_URL"), "vSphere endpoint (vsphere platform only)")
	root.PersistentFlags().StringVar(&vsphereUser, "vsphere-user", os.Getenv("VSPHERE_USER"), "vSphere username")
	root.PersistentFlags().StringVar(&vspherePass, "vsphere-password", os.Getenv("VSPHERE_PASSWORD"), "vSphere password")
	root.PersistentFlags().StringVar(&vsphereDC, "vsphere-datacenter", os.Getenv("VSPHERE_DATACENTER"), "vSphere datacenter")
	root.PersistentFlags().StringVar(&vsphereDir, "vsphere-folder", os.Getenv("VSPHERE_FOLDER"), "vSphere VM folder")

	root.AddCommand(newRunCmd(), newScaleUpCmd(), newScaleDownCmd(), newHealthCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

func newFramework(ctx context.Context, opts ...framework.Option) (*framework.Framework, error) {
	if vsphereURL != "" {
		opts = append(opts, framework.WithVSphere(&platform.VSphereConfig{
			URL:        vsphereURL,
			Username:   vsphereUser,
			Password:   vspherePass,
			Datacenter: vsphereDC,
			Folder:     vsphereDir,
		}))
	}

	restConfig, err := configFlags.ToRESTConfig()
	if err != nil {
		// No kubeconfig on disk; framework.New falls back to in-cluster config
		return framework.New(ctx, namespace, opts...)
	}
	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("creating kubernetes client: %w", err)
	}
	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("creating dynamic client: %w", err)
	}
	return framework.NewWithClients(ctx, namespace, client, dynamicClient, restConfig, opts...)
}

func newRunCmd() *cobra.Command {
	var (
		profilesFlag string
		profilesDir  string
		outputDir    string
		skipCleanup  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run benchmark profiles end to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			var profiles []*profile.Profile
			var err error
			if profilesFlag != "" {
				profiles, err = profile.LoadByNames(profilesDir, strings.Split(profilesFlag, ","))
			} else {
				profiles, err = profile.LoadAll(profilesDir)
			}
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				return fmt.Errorf("no profiles found in %s", profilesDir)
			}

			for _, p := range profiles {
				if err := runProfile(cmd.Context(), p, outputDir, skipCleanup); err != nil {
					return fmt.Errorf("profile %s: %w", p.Name, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profilesFlag, "profiles", "", "comma-separated profile names to run")
	cmd.Flags().StringVar(&profilesDir, "profiles-dir", "profiles", "directory containing profile YAML files")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "results", "output directory for logs and results")
	cmd.Flags().BoolVar(&skipCleanup, "skip-cleanup", false, "skip cleanup after the run (useful for debugging)")
	return cmd
}

func runProfile(ctx context.Context, p *profile.Profile, outputDir string, skipCleanup bool) error {
	logger := slog.Default().With("profile", p.Name)
	logger.Info("starting profile", "description", p.Description)

	cfg, err := p.ApplyTo(config.Default())
	if err != nil {
		return err
	}
	fw, err := newFramework(ctx, framework.WithConfig(cfg))
	if err != nil {
		return err
	}

	prereqs, err := fw.CheckPrerequisites()
	if err != nil {
		return err
	}
	if !prereqs.AllMet {
		return fmt.Errorf("prerequisites not met:\n%s", prereqs.String())
	}

	if p.Pool.Delta > 0 {
		pool, err := fw.NodePool(p.Platform)
		if err != nil {
			return err
		}
		if p.Pool.Label != "" {
			pool.Label = p.Pool.Label
		}
		added, err := pool.ScaleUp(ctx, p.Pool.ID, p.Pool.Delta)
		if err != nil {
			return fmt.Errorf("scaling up pool %s: %w", p.Pool.ID, err)
		}
		names := make([]string, 0, len(added))
		for _, h := range added {
			names = append(names, h.Name)
		}
		logger.Info("pool scaled up", "nodes", names)
	}

	if err := fw.EnsureNamespace(); err != nil {
		return err
	}
	if !skipCleanup {
		defer func() {
			if err := fw.Cleanup(); err != nil {
				logger.Warn("cleanup failed", "error", err)
			}
		}()
	}

	benchmark := workload.Benchmark(p.Workload.JobID+"-benchmark", fw.Namespace(), p.Workload.Spec)
	run, err := fw.RunBenchmark(benchmark, p.Workload.JobID)
	if err != nil {
		if _, dumpErr := fw.CollectLogs(&framework.LogCollectionConfig{OutputDir: outputDir}); dumpErr != nil {
			logger.Warn("log collection failed", "error", dumpErr)
		}
		return err
	}

	logger.Info("profile finished", "runner", run.Runner, "restarts", run.Restarts, "elapsed", run.Elapsed)

	if err := fw.CephHealth().Check(ctx); err != nil {
		return fmt.Errorf("cluster unhealthy after run: %w", err)
	}
	return nil
}

func newScaleUpCmd() *cobra.Command {
	var (
		platformName string
		poolID       string
		delta        int
	)

	cmd := &cobra.Command{
		Use:   "scale-up",
		Short: "Grow a worker pool and wait for the new nodes to be ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, err := newFramework(cmd.Context())
			if err != nil {
				return err
			}
			pool, err := fw.NodePool(platformName)
			if err != nil {
				return err
			}
			added, err := pool.ScaleUp(cmd.Context(), poolID, delta)
			if err != nil {
				return err
			}
			for _, h := range added {
				fmt.Println(h.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&platformName, "platform", platform.PlatformMachineSet, "provisioning platform")
	cmd.Flags().StringVar(&poolID, "pool", "", "pool identifier (MachineSet name or VM name prefix)")
	cmd.Flags().IntVar(&delta, "delta", 1, "number of nodes to add")
	cmd.MarkFlagRequired("pool")
	return cmd
}

func newScaleDownCmd() *cobra.Command {
	var nodeNames []string

	cmd := &cobra.Command{
		Use:   "scale-down",
		Short: "Cordon, drain and delete the named nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, err := newFramework(cmd.Context())
			if err != nil {
				return err
			}
			// The orchestrator only needs a backend for scale-up; machineset
			// is a safe default here.
			pool, err := fw.NodePool(platform.PlatformMachineSet)
			if err != nil {
				return err
			}
			handles := make([]resource.Handle, 0, len(nodeNames))
			for _, name := range nodeNames {
				handles = append(handles, resource.NewNode(name))
			}
			return pool.Remove(cmd.Context(), handles)
		},
	}

	cmd.Flags().StringSliceVar(&nodeNames, "nodes", nil, "names of nodes to remove")
	cmd.MarkFlagRequired("nodes")
	return cmd
}

func newHealthCmd() *cobra.Command {
	var (
		waitHealthy bool
		attempts    int
		interval    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check storage cluster health through the toolbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, err := newFramework(cmd.Context())
			if err != nil {
				return err
			}
			health := fw.CephHealth()
			if waitHealthy {
				return health.WaitUntilHealthy(cmd.Context(), attempts, interval)
			}
			if err := health.Check(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("HEALTH_OK")
			return nil
		},
	}

	cmd.Flags().BoolVar(&waitHealthy, "wait", false, "poll until the cluster reports HEALTH_OK")
	cmd.Flags().IntVar(&attempts, "attempts", 20, "health checks before giving up")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "pause between health checks")
	return cmd
}
