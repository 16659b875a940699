package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mr-fuzzypants/nodegraph/store"
	"github.com/mr-fuzzypants/nodegraph/types"
	"github.com/mr-fuzzypants/nodegraph/utils"
)

const (
	CheckpointPath = "/checkpoint/"

	latestKey = "latest"
)

// Checkpoint is the serializable snapshot of mid-run executor state. A run
// emits one after every batch and one more on failure; restoring the
// latest one and continuing reproduces the remaining run.
type Checkpoint struct {
	RunID      string `json:"run_id"`
	Seq        int64  `json:"seq"`
	RootNodeID string `json:"root_node_id"`
	SubgraphID string `json:"subgraph_id,omitempty"`

	Ready []string `json:"ready"`
	// Deferred is serialized bottom-to-top so push/pop order survives a
	// round trip.
	Deferred  []string            `json:"deferred"`
	Pending   map[string][]string `json:"pending"`
	Completed []string            `json:"completed"`

	NodeStates map[string]types.Data `json:"node_states"`

	FailedNodeID string `json:"failed_node_id,omitempty"`
	FailedError  string `json:"failed_error,omitempty"`

	Timestamp int64 `json:"timestamp"`
}

func checkpointKey(runID string, seq int64) string {
	return fmt.Sprintf("%s/%06d", runID, seq)
}

func latestCheckpointKey(runID string) string {
	return runID + "/" + latestKey
}

// saveCheckpoint persists under both the sequence key and the run's
// "latest" alias. Persistence failures are logged, not raised: a run must
// not die because the store hiccuped.
func saveCheckpoint(ctx context.Context, s store.Store, cp *Checkpoint) {
	if s == nil {
		return
	}
	b, err := utils.Serialize(cp)
	if err != nil {
		log.Errorf("run %s: serialize checkpoint %d: %v", cp.RunID, cp.Seq, err)
		return
	}
	if err := s.Set(ctx, CheckpointPath, checkpointKey(cp.RunID, cp.Seq), b); err != nil {
		log.Errorf("run %s: save checkpoint %d: %v", cp.RunID, cp.Seq, err)
	}
	if err := s.Set(ctx, CheckpointPath, latestCheckpointKey(cp.RunID), b); err != nil {
		log.Errorf("run %s: save latest checkpoint: %v", cp.RunID, err)
	}
}

// LoadCheckpoint fetches one checkpoint by run and sequence number.
func LoadCheckpoint(ctx context.Context, s store.Store, runID string, seq int64) (*Checkpoint, error) {
	return loadCheckpointKey(ctx, s, runID, checkpointKey(runID, seq))
}

// LoadLatestCheckpoint fetches the most recent checkpoint of a run.
func LoadLatestCheckpoint(ctx context.Context, s store.Store, runID string) (*Checkpoint, error) {
	return loadCheckpointKey(ctx, s, runID, latestCheckpointKey(runID))
}

func loadCheckpointKey(ctx context.Context, s store.Store, runID, key string) (*Checkpoint, error) {
	b, err := s.Get(ctx, CheckpointPath, key)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(b) == 0 {
		return nil, errors.NotFoundf("checkpoint %s", key)
	}
	cp := &Checkpoint{}
	if err := utils.Unserialize(b, cp); err != nil {
		return nil, errors.Annotatef(err, "checkpoint %s", key)
	}
	return cp, nil
}

func (r *flowRun) buildCheckpoint(failedNodeID string, failedErr error) *Checkpoint {
	cp := &Checkpoint{
		RunID:      r.runID,
		Seq:        r.seq,
		RootNodeID: r.rootID,
		SubgraphID: r.subgraphID,
		Ready:      append([]string{}, r.ready...),
		Deferred:   append([]string{}, r.deferred...),
		Pending:    map[string][]string{},
		Completed:  append([]string{}, r.completed...),
		NodeStates: map[string]types.Data{},
		Timestamp:  time.Now().UnixNano(),
	}
	for id, deps := range r.pending {
		cp.Pending[id] = append([]string{}, deps...)
	}
	for id, state := range r.snapshots {
		cp.NodeStates[id] = state.Clone()
	}
	if failedErr != nil {
		cp.FailedNodeID = failedNodeID
		cp.FailedError = failedErr.Error()
	}
	r.seq++
	return cp
}
