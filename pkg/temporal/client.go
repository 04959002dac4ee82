package temporal

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	taskqueuepb "go.temporal.io/api/taskqueue/v1"
	workflowservicepb "go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"

	"github.com/velastools/velastools/pkg/utils"
)

const (
	DefaultNamespace = "velastools"
	DefaultTaskQueue = "velastools"

	// WorkflowIDReconcile is keyed by cluster and the scheduled tick so overlapping ticks
	// of the same cluster do not start twice.
	WorkflowIDReconcile = "reconcile:%s:%s:%d"
)

type Client struct {
	TClient   client.Client
	Namespace string
	TaskQueue string
}

type Health struct {
	ConnectionOK bool                      `json:"connection_ok"`
	TaskQueue    []*taskqueuepb.PollerInfo `json:"task_queue"`
}

// NewClient dials TEMPORAL_HOSTPORT in TEMPORAL_NAMESPACE and checks the server answers.
func NewClient(ctx context.Context, logger *zap.Logger, taskQueue string) (*Client, error) {
	host := utils.Env("TEMPORAL_HOSTPORT", "localhost:7233")
	ns := utils.Env("TEMPORAL_NAMESPACE", DefaultNamespace)
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}

	logger.Info("Connecting to Temporal", zap.String("host", host), zap.String("namespace", ns))
	tClient, err := Dial(ctx, host, ns, NewZapAdapter(logger))
	if err != nil {
		return nil, err
	}

	if _, err = tClient.CheckHealth(ctx, nil); err != nil {
		tClient.Close()
		return nil, err
	}

	return &Client{
		TClient:   tClient,
		Namespace: ns,
		TaskQueue: taskQueue,
	}, nil
}

// Dial connects to Temporal using the provided hostPort and namespace.
func Dial(ctx context.Context, hostPort, namespace string, logger log.Logger) (client.Client, error) {
	return client.DialContext(
		ctx,
		client.Options{
			HostPort:  hostPort,
			Namespace: namespace,
			Logger:    logger,
		},
	)
}

// ReconcileWorkflowID returns the workflow ID of the pass named kind for cluster at tick.
func ReconcileWorkflowID(cluster, kind string, tick time.Time) string {
	return fmt.Sprintf(WorkflowIDReconcile, cluster, kind, tick.Unix())
}

// Health reports whether any worker is polling the task queue.
func (c *Client) Health(ctx context.Context) (Health, error) {
	h := Health{ConnectionOK: true}
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	rep, err := c.TClient.WorkflowService().DescribeTaskQueue(ctx, &workflowservicepb.DescribeTaskQueueRequest{
		Namespace:     c.Namespace,
		TaskQueue:     &taskqueuepb.TaskQueue{Name: c.TaskQueue},
		TaskQueueType: enums.TASK_QUEUE_TYPE_WORKFLOW,
	})
	if err != nil {
		h.ConnectionOK = false
		return h, err
	}
	h.TaskQueue = rep.GetPollers()
	return h, nil
}

// Close closes the underlying Temporal client.
func (c *Client) Close() {
	c.TClient.Close()
}
