package protocol

import (
	"encoding/json"
	"fmt"
)

// Outbound command names.
const (
	RequestReady        = "ready"
	RequestPretty       = "pretty"
	RequestLoadChildren = "loadChildren"
	RequestLoadNodes    = "loadNodes"
	RequestLoadSet      = "loadSet"
)

// Request is a message sent to the host.
type Request struct {
	Command string `json:"command"`
	Data    any    `json:"data"`
}

// NodeRef addresses a single search-tree node.
type NodeRef struct {
	NodeID int `json:"nodeId"`
}

// NodesRequest asks for nodes below NodeID, Depth levels deep.
type NodesRequest struct {
	NodeID int `json:"nodeId"`
	Depth  int `json:"depth"`
}

// SetRequest asks for the children of a lazy pretty-domain entry as seen at NodeID.
type SetRequest struct {
	NodeID int    `json:"nodeId"`
	Path   string `json:"path"`
}

// Ready announces the panel; the host answers with init.
func Ready() Request {
	return Request{Command: RequestReady, Data: struct{}{}}
}

// Pretty asks for the pretty domains at a node.
func Pretty(nodeID int) Request {
	return Request{Command: RequestPretty, Data: NodeRef{NodeID: nodeID}}
}

// LoadChildrenOf asks for the details of a node's children.
func LoadChildrenOf(nodeID int) Request {
	return Request{Command: RequestLoadChildren, Data: NodeRef{NodeID: nodeID}}
}

// LoadNodesBelow asks for more of the tree under a node.
func LoadNodesBelow(nodeID, depth int) Request {
	if depth <= 0 {
		depth = 1
	}
	return Request{Command: RequestLoadNodes, Data: NodesRequest{NodeID: nodeID, Depth: depth}}
}

// LoadSetAt asks for the children of a lazy domain entry.
func LoadSetAt(nodeID int, path string) Request {
	return Request{Command: RequestLoadSet, Data: SetRequest{NodeID: nodeID, Path: path}}
}

// Encode marshals a request into a single JSON frame.
func Encode(r Request) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.Command, err)
	}
	return b, nil
}

// EnvelopeOf converts an outbound request into an envelope, which is how
// in-process hosts read requests.
func EnvelopeOf(r Request) (Envelope, error) {
	data, err := json.Marshal(r.Data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", r.Command, err)
	}
	return Envelope{Command: r.Command, Data: data}, nil
}

// NewEnvelope builds an inbound envelope from a payload value.
func NewEnvelope(command string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", command, err)
	}
	return Envelope{Command: command, Data: raw}, nil
}
