package utilities

import (
	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// IDSource hands out request ids. It prefers snowflake ids from a single
// node and falls back to KSUIDs when the node could not be initialized.
type IDSource struct {
	node *snowflake.Node
}

// NewIDSource builds an IDSource for the given snowflake node (0-1023).
// An out of range node leaves the source in KSUID mode.
func NewIDSource(nodeID int64) *IDSource {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return &IDSource{}
	}
	return &IDSource{node: node}
}

// Next returns a fresh id.
func (s *IDSource) Next() string {
	if s == nil || s.node == nil {
		return NewKSUID()
	}
	return s.node.Generate().String()
}
