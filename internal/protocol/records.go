package protocol

import "encoding/json"

// The host spells the descendant count "decendantCount". Records accept both
// spellings; the misspelled one wins when both are present.

// ChildDetail is one entry of a loadChildren message.
type ChildDetail struct {
	NodeID          int    `json:"nodeId"`
	DescendantCount int    `json:"descendantCount"`
	Label           string `json:"label"`
	PrettyLabel     string `json:"prettyLabel"`
	Children        []int  `json:"children"`
}

// NodeRecord is one entry of a loadNodes message.
type NodeRecord struct {
	NodeID          int    `json:"nodeId"`
	ParentID        int    `json:"parentId"`
	Label           string `json:"label"`
	PrettyLabel     string `json:"prettyLabel"`
	DescendantCount int    `json:"descendantCount"`
	Children        []int  `json:"children"`
}

// CoreRecord is one entry of a loadCore message.
type CoreRecord struct {
	NodeID          int    `json:"nodeId"`
	ParentID        int    `json:"parentId"`
	Label           string `json:"label"`
	PrettyLabel     string `json:"prettyLabel"`
	DescendantCount int    `json:"descendantCount"`
	Children        []int  `json:"children"`
	IsSolution      bool   `json:"isSolution"`
}

// Record drops the solution flag.
func (c CoreRecord) Record() NodeRecord {
	return NodeRecord{
		NodeID:          c.NodeID,
		ParentID:        c.ParentID,
		Label:           c.Label,
		PrettyLabel:     c.PrettyLabel,
		DescendantCount: c.DescendantCount,
		Children:        c.Children,
	}
}

type hostCount struct {
	Decendant *int `json:"decendantCount"`
}

func (d *ChildDetail) UnmarshalJSON(b []byte) error {
	type plain ChildDetail
	var aux struct {
		plain
		hostCount
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*d = ChildDetail(aux.plain)
	if aux.Decendant != nil {
		d.DescendantCount = *aux.Decendant
	}
	return nil
}

func (r *NodeRecord) UnmarshalJSON(b []byte) error {
	type plain NodeRecord
	var aux struct {
		plain
		hostCount
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = NodeRecord(aux.plain)
	if aux.Decendant != nil {
		r.DescendantCount = *aux.Decendant
	}
	return nil
}

func (c *CoreRecord) UnmarshalJSON(b []byte) error {
	type plain CoreRecord
	var aux struct {
		plain
		hostCount
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = CoreRecord(aux.plain)
	if aux.Decendant != nil {
		c.DescendantCount = *aux.Decendant
	}
	return nil
}

// SimpleVar is a variable with its current range rendered as text.
type SimpleVar struct {
	Name string `json:"name"`
	Rng  string `json:"rng"`
}

// PrettyEntry is a node of the pretty domain tree. Lazy entries have
// children the host only sends on request.
type PrettyEntry struct {
	Name     string        `json:"name"`
	Value    string        `json:"value,omitempty"`
	Lazy     bool          `json:"lazy,omitempty"`
	Children []PrettyEntry `json:"children,omitempty"`
}
