// Package protocol defines the messages exchanged with the solver host.
//
// Every frame is an Envelope {command, data}. Inbound envelopes decode into
// one Message variant per command; outbound requests are built with the
// constructors in request.go.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Inbound command names.
const (
	CommandLoadSet                  = "loadSet"
	CommandInit                     = "init"
	CommandLoadChildren             = "loadChildren"
	CommandLoadCore                 = "loadCore"
	CommandLongestBranchingVariable = "longestBranchingVariable"
	CommandLoadNodes                = "loadNodes"
	CommandSimpleDomains            = "simpleDomains"
	CommandPrettyDomains            = "prettyDomains"
)

// ErrMalformed is matched by every DecodeError.
var ErrMalformed = errors.New("malformed message")

// DecodeError reports a payload that does not match its command's schema.
type DecodeError struct {
	Command string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Command, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets callers test errors.Is(err, ErrMalformed).
func (e *DecodeError) Is(target error) bool { return target == ErrMalformed }

// Envelope is the wire frame in both directions.
type Envelope struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ParseEnvelope decodes a single JSON frame.
func ParseEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, &DecodeError{Command: "envelope", Err: err}
	}
	if strings.TrimSpace(env.Command) == "" {
		return Envelope{}, &DecodeError{Command: "envelope", Err: errors.New("missing command")}
	}
	return env, nil
}

// Message is one decoded inbound command.
type Message interface {
	Command() string
	isMessage()
}

// LoadSet replaces the children of a named domain entry.
type LoadSet struct {
	Structure SetStructure `json:"structure"`
	Update    PrettyEntry  `json:"update"`
}

// SetStructure names the entry whose children are replaced.
type SetStructure struct {
	Name     string        `json:"name"`
	Children []PrettyEntry `json:"children"`
}

// Init carries the full pretty snapshot and the root simple variables.
type Init struct {
	Pretty PrettyEntry    `json:"pretty"`
	Simple SimpleSnapshot `json:"simple"`
}

// SimpleSnapshot is the simple-domain view at the root node.
type SimpleSnapshot struct {
	Vars []SimpleVar `json:"vars"`
}

// LoadChildren updates details of nodes the panel already knows.
type LoadChildren struct {
	Nodes []ChildDetail
}

// LoadCore announces the solution core of the tree.
type LoadCore struct {
	Nodes []CoreRecord
}

// LoadNodes announces additional nodes.
type LoadNodes struct {
	Nodes []NodeRecord
}

// LongestBranchingVariable is the length of the longest branching variable
// name; the tree layout spaces nodes proportionally.
type LongestBranchingVariable struct {
	Length int
}

// SimpleDomains refreshes the plain range view of variables.
type SimpleDomains struct {
	Vars         []SimpleVar `json:"vars"`
	ChangedNames []string    `json:"changedNames"`
}

// PrettyDomains refreshes entries of the pretty domain tree.
type PrettyDomains struct {
	ChangedExpressions []PrettyEntry `json:"changedExpressions"`
	Vars               []PrettyEntry `json:"vars"`
	Changed            bool          `json:"changed"`
}

// Unknown is any command this panel does not handle.
type Unknown struct {
	Name string
	Data json.RawMessage
}

func (LoadSet) Command() string                  { return CommandLoadSet }
func (Init) Command() string                     { return CommandInit }
func (LoadChildren) Command() string             { return CommandLoadChildren }
func (LoadCore) Command() string                 { return CommandLoadCore }
func (LongestBranchingVariable) Command() string { return CommandLongestBranchingVariable }
func (LoadNodes) Command() string                { return CommandLoadNodes }
func (SimpleDomains) Command() string            { return CommandSimpleDomains }
func (PrettyDomains) Command() string            { return CommandPrettyDomains }
func (u Unknown) Command() string                { return u.Name }

func (LoadSet) isMessage()                  {}
func (Init) isMessage()                     {}
func (LoadChildren) isMessage()             {}
func (LoadCore) isMessage()                 {}
func (LongestBranchingVariable) isMessage() {}
func (LoadNodes) isMessage()                {}
func (SimpleDomains) isMessage()            {}
func (PrettyDomains) isMessage()            {}
func (Unknown) isMessage()                  {}

// Decode turns an envelope into its typed variant. Unrecognized commands
// decode to Unknown without error.
func Decode(env Envelope) (Message, error) {
	var (
		msg Message
		err error
	)
	switch env.Command {
	case CommandLoadSet:
		var m LoadSet
		err = unmarshal(env.Data, &m)
		msg = m
	case CommandInit:
		var m Init
		err = unmarshal(env.Data, &m)
		msg = m
	case CommandLoadChildren:
		var m LoadChildren
		err = unmarshal(env.Data, &m.Nodes)
		msg = m
	case CommandLoadCore:
		var m LoadCore
		err = unmarshal(env.Data, &m.Nodes)
		msg = m
	case CommandLoadNodes:
		var m LoadNodes
		err = unmarshal(env.Data, &m.Nodes)
		msg = m
	case CommandLongestBranchingVariable:
		var n int
		n, err = decodeNumber(env.Data)
		msg = LongestBranchingVariable{Length: n}
	case CommandSimpleDomains:
		var m SimpleDomains
		err = unmarshal(env.Data, &m)
		msg = m
	case CommandPrettyDomains:
		var m PrettyDomains
		err = unmarshal(env.Data, &m)
		msg = m
	default:
		return Unknown{Name: env.Command, Data: env.Data}, nil
	}
	if err != nil {
		return nil, &DecodeError{Command: env.Command, Err: err}
	}
	return msg, nil
}

func unmarshal(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(data, v)
}

// decodeNumber accepts a JSON number or a numeric string.
func decodeNumber(data json.RawMessage) (int, error) {
	if len(data) == 0 {
		return 0, errors.New("missing data")
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return int(f), nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, fmt.Errorf("expected number, got %s", string(data))
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("expected number: %w", err)
	}
	return int(f), nil
}
