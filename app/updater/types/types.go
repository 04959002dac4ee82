package types

import (
	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/db/models"
)

// ReconcileInput selects the cluster of a pass. NumEpochs is only read by the rewards path
// and is clamped to [1, 10] by the grabber.
type ReconcileInput struct {
	Cluster   cluster.Cluster `json:"cluster"`
	NumEpochs int             `json:"numEpochs"`
}

// ReconcileOutput summarises one pass over a cluster.
type ReconcileOutput struct {
	Kind              models.RecordKind `json:"kind"`
	Cluster           cluster.Cluster   `json:"cluster"`
	ValidatorsSeen    uint32            `json:"validatorsSeen"`
	ValidatorsCreated uint32            `json:"validatorsCreated"`
	RowsWritten       uint32            `json:"rowsWritten"`
	DurationMs        float64           `json:"durationMs"` // Execution time in milliseconds
}

// WorkflowReconcileInput drives ReconcileClusterWorkflow. At least one of Credits or Rewards
// should be set; a workflow with neither does nothing.
type WorkflowReconcileInput struct {
	Cluster   cluster.Cluster `json:"cluster"`
	Credits   bool            `json:"credits"`
	Rewards   bool            `json:"rewards"`
	NumEpochs int             `json:"numEpochs"`
}

// WorkflowReconcileOutput carries the outputs of the passes that ran.
type WorkflowReconcileOutput struct {
	Credits    *ReconcileOutput `json:"credits,omitempty"`
	Rewards    *ReconcileOutput `json:"rewards,omitempty"`
	DurationMs float64          `json:"durationMs"`
}
