package graph

import (
	"strings"

	"github.com/juju/errors"

	"github.com/mr-fuzzypants/nodegraph/types"
)

// Edge is a directed connection between two ports. Class is inferred from
// the function of the source port at insertion time.
type Edge struct {
	FromNodeID string `json:"from_node_id"`
	FromPort   string `json:"from_port"`
	ToNodeID   string `json:"to_node_id"`
	ToPort     string `json:"to_port"`

	Class types.PortFunction `json:"class"`
}

type endpoint struct {
	nodeID string
	port   string
}

// Arena is the indexed store of nodes and edges. The whole subgraph
// hierarchy shares one arena; nesting is expressed by each node's parent
// id, and edges never cross scopes directly (tunnel ports on the subgraph
// node are the endpoints).
type Arena struct {
	nodes map[string]Node
	order []string

	edges    []Edge
	incoming map[endpoint][]Edge
	outgoing map[endpoint][]Edge
}

func NewArena() *Arena {
	return &Arena{
		nodes:    map[string]Node{},
		incoming: map[endpoint][]Edge{},
		outgoing: map[endpoint][]Edge{},
	}
}

func (a *Arena) InsertNode(node Node) error {
	if _, exists := a.nodes[node.ID()]; exists {
		return errors.AlreadyExistsf("node %s", node.ID())
	}
	a.nodes[node.ID()] = node
	a.order = append(a.order, node.ID())
	return nil
}

// RemoveNode drops the node and every edge touching it.
func (a *Arena) RemoveNode(id string) error {
	if _, exists := a.nodes[id]; !exists {
		return errors.NotFoundf("node %s", id)
	}
	delete(a.nodes, id)
	for i, nid := range a.order {
		if nid == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}

	kept := a.edges[:0]
	for _, e := range a.edges {
		if e.FromNodeID == id || e.ToNodeID == id {
			continue
		}
		kept = append(kept, e)
	}
	a.edges = kept
	a.reindex()
	return nil
}

func (a *Arena) reindex() {
	a.incoming = map[endpoint][]Edge{}
	a.outgoing = map[endpoint][]Edge{}
	for _, e := range a.edges {
		a.incoming[endpoint{e.ToNodeID, e.ToPort}] = append(a.incoming[endpoint{e.ToNodeID, e.ToPort}], e)
		a.outgoing[endpoint{e.FromNodeID, e.FromPort}] = append(a.outgoing[endpoint{e.FromNodeID, e.FromPort}], e)
	}
}

func (a *Arena) Node(id string) (Node, bool) {
	node, exists := a.nodes[id]
	return node, exists
}

func (a *Arena) NodeIDs() []string {
	ids := make([]string, len(a.order))
	copy(ids, a.order)
	return ids
}

func (a *Arena) Edges() []Edge {
	edges := make([]Edge, len(a.edges))
	copy(edges, a.edges)
	return edges
}

// SourcePort resolves the port an edge leaves from. Regular sources live
// in the output bag; a subgraph input tunnel acts as a source for inner
// children, so the input bag is the fallback for tunnel ports.
func (a *Arena) SourcePort(nodeID, portName string) (*Port, error) {
	node, exists := a.nodes[nodeID]
	if !exists {
		return nil, errors.NotFoundf("node %s", nodeID)
	}
	if port := node.Output(portName); port != nil {
		return port, nil
	}
	if port := node.Input(portName); port != nil && port.IsTunnel() {
		return port, nil
	}
	return nil, errors.NotFoundf("source port %s on node %s", portName, nodeID)
}

// TargetPort resolves the port an edge arrives at. A subgraph output
// tunnel acts as a sink for inner children, so the output bag is the
// fallback.
func (a *Arena) TargetPort(nodeID, portName string) (*Port, error) {
	node, exists := a.nodes[nodeID]
	if !exists {
		return nil, errors.NotFoundf("node %s", nodeID)
	}
	if port := node.Input(portName); port != nil {
		return port, nil
	}
	if port := node.Output(portName); port != nil && port.IsTunnel() {
		return port, nil
	}
	return nil, errors.NotFoundf("target port %s on node %s", portName, nodeID)
}

// InsertEdge appends an edge and updates both adjacency indices. The edge
// class follows the source port's function; mixing data and control
// endpoints is rejected, as is a second incoming edge on a data sink.
func (a *Arena) InsertEdge(fromNodeID, fromPort, toNodeID, toPort string) (Edge, error) {
	src, err := a.SourcePort(fromNodeID, fromPort)
	if err != nil {
		return Edge{}, errors.Trace(err)
	}
	dst, err := a.TargetPort(toNodeID, toPort)
	if err != nil {
		return Edge{}, errors.Trace(err)
	}

	if src.Function() != dst.Function() {
		return Edge{}, errors.BadRequestf("cannot connect %s.%s to %s.%s: port function mismatch",
			fromNodeID, fromPort, toNodeID, toPort)
	}

	if dst.IsData() {
		if existing := a.incoming[endpoint{toNodeID, toPort}]; len(existing) > 0 {
			return Edge{}, errors.Forbiddenf("data port %s.%s already has an incoming edge",
				toNodeID, toPort)
		}
	}

	edge := Edge{
		FromNodeID: fromNodeID,
		FromPort:   fromPort,
		ToNodeID:   toNodeID,
		ToPort:     toPort,
		Class:      src.Function(),
	}
	a.edges = append(a.edges, edge)
	a.incoming[endpoint{toNodeID, toPort}] = append(a.incoming[endpoint{toNodeID, toPort}], edge)
	a.outgoing[endpoint{fromNodeID, fromPort}] = append(a.outgoing[endpoint{fromNodeID, fromPort}], edge)
	return edge, nil
}

func (a *Arena) EdgesIncoming(toNodeID, toPort string) []Edge {
	return a.incoming[endpoint{toNodeID, toPort}]
}

func (a *Arena) EdgesOutgoing(fromNodeID, fromPort string) []Edge {
	return a.outgoing[endpoint{fromNodeID, fromPort}]
}

// NodePath builds the absolute address of a node: subgraph segments join
// with '/', a leaf child joins its parent with ':'.
func (a *Arena) NodePath(id string) (string, error) {
	node, exists := a.nodes[id]
	if !exists {
		return "", errors.NotFoundf("node %s", id)
	}

	segments := []string{}
	for parentID := node.ParentID(); parentID != ""; {
		parent, ok := a.nodes[parentID]
		if !ok {
			return "", errors.NotFoundf("parent subgraph %s of node %s", parentID, id)
		}
		segments = append([]string{parent.Name()}, segments...)
		parentID = parent.ParentID()
	}

	prefix := "/" + strings.Join(segments, "/")
	if node.IsSubgraph() {
		if len(segments) == 0 {
			return "/" + node.Name(), nil
		}
		return prefix + "/" + node.Name(), nil
	}
	return prefix + ":" + node.Name(), nil
}

// ResolvePath walks an absolute path back to a node. The grammar is
// /sub{/sub}[:leaf]; the first segment names the root subgraph.
func (a *Arena) ResolvePath(path string) (Node, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, errors.BadRequestf("path %q is not absolute", path)
	}

	leafName := ""
	if i := strings.LastIndex(path, ":"); i >= 0 {
		leafName = path[i+1:]
		path = path[:i]
	}

	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segments) == 1 && segments[0] == "" {
		segments = nil
	}

	parentID := ""
	var current Node
	for _, segment := range segments {
		node := a.childByName(parentID, segment, true)
		if node == nil {
			return nil, errors.NotFoundf("subgraph %s in path %s", segment, path)
		}
		current = node
		parentID = node.ID()
	}

	if leafName == "" {
		if current == nil {
			return nil, errors.BadRequestf("empty path")
		}
		return current, nil
	}

	leaf := a.childByName(parentID, leafName, false)
	if leaf == nil {
		return nil, errors.NotFoundf("node %s under %s", leafName, path)
	}
	return leaf, nil
}

func (a *Arena) childByName(parentID, name string, subgraph bool) Node {
	for _, id := range a.order {
		node := a.nodes[id]
		if node.ParentID() != parentID || node.Name() != name {
			continue
		}
		if node.IsSubgraph() == subgraph {
			return node
		}
	}
	return nil
}

// UpstreamPorts walks incoming edges from port, crossing tunnel ports
// transparently. With includeTunnel the intermediate in-out ports appear
// in the result, each ahead of the ports reached through it.
func (a *Arena) UpstreamPorts(port *Port, includeTunnel bool) []*Port {
	var ports []*Port
	for _, edge := range a.incoming[endpoint{port.NodeID(), port.Name()}] {
		src, err := a.SourcePort(edge.FromNodeID, edge.FromPort)
		if err != nil {
			continue
		}
		if src.IsTunnel() {
			if includeTunnel {
				ports = append(ports, src)
			}
			ports = append(ports, a.UpstreamPorts(src, includeTunnel)...)
			continue
		}
		ports = append(ports, src)
	}
	return ports
}

// DownstreamPorts is the symmetric walk along outgoing edges.
func (a *Arena) DownstreamPorts(port *Port, includeTunnel bool) []*Port {
	var ports []*Port
	for _, edge := range a.outgoing[endpoint{port.NodeID(), port.Name()}] {
		dst, err := a.TargetPort(edge.ToNodeID, edge.ToPort)
		if err != nil {
			continue
		}
		if dst.IsTunnel() {
			if includeTunnel {
				ports = append(ports, dst)
			}
			ports = append(ports, a.DownstreamPorts(dst, includeTunnel)...)
			continue
		}
		ports = append(ports, dst)
	}
	return ports
}

// UpstreamNodes returns the one-hop producers feeding a port.
func (a *Arena) UpstreamNodes(port *Port) []Node {
	var nodes []Node
	seen := map[string]bool{}
	for _, edge := range a.incoming[endpoint{port.NodeID(), port.Name()}] {
		if seen[edge.FromNodeID] {
			continue
		}
		if node, exists := a.nodes[edge.FromNodeID]; exists {
			seen[edge.FromNodeID] = true
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// DownstreamNodes returns the one-hop consumers fed by a port.
func (a *Arena) DownstreamNodes(port *Port) []Node {
	var nodes []Node
	seen := map[string]bool{}
	for _, edge := range a.outgoing[endpoint{port.NodeID(), port.Name()}] {
		if seen[edge.ToNodeID] {
			continue
		}
		if node, exists := a.nodes[edge.ToNodeID]; exists {
			seen[edge.ToNodeID] = true
			nodes = append(nodes, node)
		}
	}
	return nodes
}
