package workflow

import (
	"github.com/velastools/velastools/app/updater/activity"
)

const ReconcileClusterWorkflowName = "ReconcileClusterWorkflow"

// Context holds the workflow context.
type Context struct {
	ActivityContext *activity.Context
}
