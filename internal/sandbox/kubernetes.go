package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/judgecluster/judgecluster/internal/langtable"
	"github.com/judgecluster/judgecluster/internal/wire"
	"github.com/judgecluster/judgecluster/pkg/models"
)

// ErrWatchChannelClosed is returned when a Job's watch channel closes
// for a reason other than the caller's timeout.
var ErrWatchChannelClosed = errors.New("watch channel closed unexpectedly")

const (
	jobTTLSeconds       = 300
	jobDefaultTimeout   = 30 * time.Second
	jobMaxOutputBytes   = 1 * 1024 * 1024
	jobLabelApp         = "judgecluster"
	jobInputEnvVar      = "JUDGECLUSTER_TEST_INPUT"
)

// KubernetesRuntime runs compile and execute-batch tasks as Kubernetes
// Jobs instead of directly-managed Docker containers, for deployments
// where the master/worker split runs inside a cluster and workers
// dispatch to the Kubernetes API rather than a local Docker socket.
// Adapted from the teacher's internal/runtime/kubernetes/runtime.go,
// which only covered Compile; ExecuteBatch generalizes the same
// ConfigMap+Job+watch pattern to run one Job per test case.
type KubernetesRuntime struct {
	clientset *kubernetes.Clientset
	namespace string
	table     langtable.Lookuper
}

// NewKubernetesRuntime builds a runtime using in-cluster credentials.
func NewKubernetesRuntime(namespace string, table langtable.Lookuper) (*KubernetesRuntime, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("get in-cluster config: %w (are you running inside kubernetes?)", err)
	}
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("create kubernetes clientset: %w", err)
	}
	if namespace == "" {
		namespace = "default"
	}
	return &KubernetesRuntime{clientset: clientset, namespace: namespace, table: table}, nil
}

func (k *KubernetesRuntime) Close() error { return nil }

// Compile runs the language's compile command as a single Kubernetes
// Job, staging the source via a ConfigMap.
func (k *KubernetesRuntime) Compile(ctx context.Context, task wire.CompileTask) (*wire.CompileResult, error) {
	start := time.Now()
	lang := models.Language(task.Language).Normalize()
	entry, err := k.table.Lookup(lang)
	if err != nil {
		return &wire.CompileResult{JobID: task.JobID, Success: false, CompilerOutput: err.Error()}, nil
	}
	if entry.Class == langtable.ClassInterpreted {
		return &wire.CompileResult{
			JobID: task.JobID, Success: false,
			CompilerOutput: fmt.Sprintf("%s is interpreted and does not need compilation", lang),
		}, nil
	}

	name := "compile-" + sanitizeK8sName(task.JobID)
	if err := k.createSourceConfigMap(ctx, name, entry.SourceFilename, task.SourceCode); err != nil {
		return failedCompile(task.JobID, start, fmt.Errorf("create source configmap: %w", err)), nil
	}
	defer k.cleanup(name)

	cmd := renderCompileCmd(entry.CompileCmd, task.Flags)
	job, err := k.createJob(ctx, name, entry.Image, []string{"sh", "-c", cmd}, nil)
	if err != nil {
		return failedCompile(task.JobID, start, fmt.Errorf("create job: %w", err)), nil
	}

	exitCode, output, timedOut, err := k.waitForJob(ctx, job.Name, jobDefaultTimeout)
	if err != nil {
		return failedCompile(task.JobID, start, err), nil
	}
	if timedOut {
		return &wire.CompileResult{
			JobID: task.JobID, Success: false,
			CompilerOutput: "compilation timeout",
			DurationMs:     time.Since(start).Milliseconds(),
		}, nil
	}

	success := exitCode == 0
	return &wire.CompileResult{
		JobID:          task.JobID,
		Success:        success,
		CompilerOutput: output,
		DurationMs:     time.Since(start).Milliseconds(),
	}, nil
}

// ExecuteBatch runs one Kubernetes Job per test case, feeding input
// through an environment variable (Jobs don't offer an interactive
// stdin the way a live Docker container does).
func (k *KubernetesRuntime) ExecuteBatch(ctx context.Context, task wire.ExecuteBatchTask) (*wire.BatchExecutionResult, error) {
	lang := models.Language(task.Language).Normalize()
	entry, err := k.table.Lookup(lang)
	if err != nil {
		return &wire.BatchExecutionResult{JobID: task.JobID, BatchID: task.BatchID, SystemError: err.Error()}, nil
	}

	results := make([]models.TestCaseResult, 0, len(task.Inputs))
	var totalCPUMs int64

	for i, tc := range task.Inputs {
		name := fmt.Sprintf("run-%s-%s-%d", sanitizeK8sName(task.JobID), sanitizeK8sName(task.BatchID), i)

		if entry.Class == langtable.ClassInterpreted {
			if err := k.createSourceConfigMap(ctx, name, entry.SourceFilename, task.SourceCode); err != nil {
				results = append(results, models.TestCaseResult{TestID: tc.ID, Verdict: models.VerdictRE, Stderr: err.Error()})
				continue
			}
		}

		cmd := []string{"sh", "-c", fmt.Sprintf("echo \"$%s\" | %s", jobInputEnvVar, entry.RunCmd)}
		env := []corev1.EnvVar{{Name: jobInputEnvVar, Value: tc.Input}}

		start := time.Now()
		job, err := k.createJob(ctx, name, entry.Image, cmd, env)
		if err != nil {
			k.cleanup(name)
			results = append(results, models.TestCaseResult{TestID: tc.ID, Verdict: models.VerdictRE, Stderr: err.Error()})
			continue
		}

		timeLimit := time.Duration(task.TimeLimitMs) * time.Millisecond
		exitCode, stdout, timedOut, err := k.waitForJob(ctx, job.Name, timeLimit)
		elapsed := time.Since(start)
		totalCPUMs += elapsed.Milliseconds()
		k.cleanup(name)

		if err != nil {
			results = append(results, models.TestCaseResult{
				TestID: tc.ID, Verdict: models.VerdictRE, Stderr: err.Error(), ElapsedMs: elapsed.Milliseconds(),
			})
			continue
		}

		verdict := ClassifyVerdict(timedOut, exitCode, stdout, "", tc.ExpectedOutput)
		results = append(results, models.TestCaseResult{
			TestID: tc.ID, Verdict: verdict, Stdout: stdout, ElapsedMs: elapsed.Milliseconds(),
		})
	}

	return &wire.BatchExecutionResult{
		JobID:   task.JobID,
		BatchID: task.BatchID,
		Results: results,
		Metrics: wire.ResourceMetrics{TotalCPUTimeMs: totalCPUMs},
	}, nil
}

func (k *KubernetesRuntime) createSourceConfigMap(ctx context.Context, name, filename, content string) error {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "source-" + name,
			Namespace: k.namespace,
			Labels:    jobLabels(name),
		},
		Data: map[string]string{filename: content},
	}
	_, err := k.clientset.CoreV1().ConfigMaps(k.namespace).Create(ctx, cm, metav1.CreateOptions{})
	return err
}

func (k *KubernetesRuntime) createJob(ctx context.Context, name, image string, cmd []string, env []corev1.EnvVar) (*batchv1.Job, error) {
	backoffLimit := int32(0)
	ttl := int32(jobTTLSeconds)

	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: k.namespace,
			Labels:    jobLabels(name),
		},
		Spec: batchv1.JobSpec{
			TTLSecondsAfterFinished: &ttl,
			BackoffLimit:            &backoffLimit,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: jobLabels(name)},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					SecurityContext: &corev1.PodSecurityContext{
						RunAsNonRoot: ptrBool(true),
						RunAsUser:    ptrInt64k8s(1000),
						FSGroup:      ptrInt64k8s(1000),
					},
					Containers: []corev1.Container{
						{
							Name:    "runner",
							Image:   image,
							Command: cmd,
							Env:     env,
							Resources: corev1.ResourceRequirements{
								Limits: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("500m"),
									corev1.ResourceMemory: resource.MustParse("512Mi"),
								},
								Requests: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("100m"),
									corev1.ResourceMemory: resource.MustParse("64Mi"),
								},
							},
							SecurityContext: &corev1.SecurityContext{
								AllowPrivilegeEscalation: ptrBool(false),
								Capabilities:             &corev1.Capabilities{Drop: []corev1.Capability{"ALL"}},
							},
							VolumeMounts: []corev1.VolumeMount{{Name: "tmp", MountPath: "/tmp"}},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name: "tmp",
							VolumeSource: corev1.VolumeSource{
								EmptyDir: &corev1.EmptyDirVolumeSource{
									Medium:    corev1.StorageMediumMemory,
									SizeLimit: resource.NewQuantity(64*1024*1024, resource.BinarySI),
								},
							},
						},
					},
				},
			},
		},
	}

	if cmVol, ok := configMapVolume(name); ok {
		job.Spec.Template.Spec.Volumes = append(job.Spec.Template.Spec.Volumes, cmVol)
		job.Spec.Template.Spec.Containers[0].VolumeMounts = append(
			job.Spec.Template.Spec.Containers[0].VolumeMounts,
			corev1.VolumeMount{Name: "source", MountPath: "/tmp/src", ReadOnly: true},
		)
	}

	return k.clientset.BatchV1().Jobs(k.namespace).Create(ctx, job, metav1.CreateOptions{})
}

// configMapVolume exists only because createJob is shared between
// configmap-backed (compile, interpreted execute) and env-only (native
// execute) invocations; checking whether the configmap exists would add
// a round trip, so every job mounts the volume at /tmp/src; it is
// marked optional, so callers that never created the configmap get an
// empty mount instead of a pod that fails to start.
func configMapVolume(name string) (corev1.Volume, bool) {
	return corev1.Volume{
		Name: "source",
		VolumeSource: corev1.VolumeSource{
			ConfigMap: &corev1.ConfigMapVolumeSource{
				LocalObjectReference: corev1.LocalObjectReference{Name: "source-" + name},
				Optional:             ptrBool(true),
			},
		},
	}, true
}

func (k *KubernetesRuntime) waitForJob(ctx context.Context, jobName string, timeout time.Duration) (exitCode int, output string, timedOut bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	watcher, err := k.clientset.BatchV1().Jobs(k.namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector: "metadata.name=" + jobName,
	})
	if err != nil {
		return -1, "", false, fmt.Errorf("watch job: %w", err)
	}
	defer watcher.Stop()

	for {
		select {
		case event, ok := <-watcher.ResultChan():
			if !ok {
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return -1, "", true, nil
				}
				return -1, "", false, ErrWatchChannelClosed
			}
			job, ok := event.Object.(*batchv1.Job)
			if !ok {
				continue
			}
			if job.Status.Succeeded > 0 {
				code, out, oerr := k.jobOutput(context.WithoutCancel(ctx), jobName)
				return code, out, false, oerr
			}
			if job.Status.Failed > 0 {
				code, out, _ := k.jobOutput(context.WithoutCancel(ctx), jobName)
				return code, out, false, nil
			}
		case <-ctx.Done():
			return -1, "", true, nil
		}
	}
}

func (k *KubernetesRuntime) jobOutput(ctx context.Context, jobName string) (int, string, error) {
	pods, err := k.clientset.CoreV1().Pods(k.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: "job-name=" + jobName,
	})
	if err != nil || len(pods.Items) == 0 {
		return -1, "", fmt.Errorf("get job pods: %w", err)
	}
	pod := pods.Items[0]

	exitCode := -1
	if len(pod.Status.ContainerStatuses) > 0 {
		if terminated := pod.Status.ContainerStatuses[0].State.Terminated; terminated != nil {
			exitCode = int(terminated.ExitCode)
		}
	}

	req := k.clientset.CoreV1().Pods(k.namespace).GetLogs(pod.Name, &corev1.PodLogOptions{Container: "runner"})
	stream, err := req.Stream(ctx)
	if err != nil {
		return exitCode, "", nil
	}
	defer stream.Close()

	buf := make([]byte, jobMaxOutputBytes)
	n, _ := io.ReadFull(stream, buf)
	if n == 0 {
		n, _ = stream.Read(buf)
	}
	return exitCode, string(buf[:n]), nil
}

func (k *KubernetesRuntime) cleanup(name string) {
	ctx := context.WithoutCancel(context.Background())
	policy := metav1.DeletePropagationForeground
	_ = k.clientset.BatchV1().Jobs(k.namespace).Delete(ctx, name, metav1.DeleteOptions{PropagationPolicy: &policy})
	_ = k.clientset.CoreV1().ConfigMaps(k.namespace).Delete(ctx, "source-"+name, metav1.DeleteOptions{})
}

func jobLabels(jobID string) map[string]string {
	return map[string]string{
		"app":        jobLabelApp,
		"managed-by": jobLabelApp,
		"job-id":     jobID,
	}
}

func sanitizeK8sName(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+32)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}

func ptrBool(v bool) *bool       { return &v }
func ptrInt64k8s(v int64) *int64 { return &v }

var _ Runtime = (*KubernetesRuntime)(nil)
