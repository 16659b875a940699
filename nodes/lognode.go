package nodes

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/mr-fuzzypants/nodegraph/graph"
	"github.com/mr-fuzzypants/nodegraph/types"
)

// Log prints its message input when fired. Handy as a loop-body sink.
type Log struct {
	*graph.BaseNode
}

func NewLog(id, name string) (*Log, error) {
	n := &Log{BaseNode: graph.NewBaseNode(id, name, "Log")}
	n.SetFlowControl()

	if _, err := n.AddControlInput("exec"); err != nil {
		return nil, err
	}
	if _, err := n.AddDataInput("message", types.AnyType); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Log) Compute(ctx *types.ExecContext) (*types.ExecutionResult, error) {
	message, _ := ctx.DataInputs.Get("message")
	log.Infof("%s: %s", ctx.NodePath, cast.ToString(message))
	return types.NewResult(types.Continue), nil
}
