package snowflake

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// DefaultNode is used when SNOWFLAKE_NODE is unset.
const DefaultNode int64 = 1

var (
	genOnce sync.Once
	gen     *Generator
	genErr  error
)

// Generator produces unique ids for one node.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator returns a generator for the given node number (0-1023).
func NewGenerator(nodeID int64) (*Generator, error) {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: n}, nil
}

// Next returns a new id.
func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}

func defaultGenerator() (*Generator, error) {
	genOnce.Do(func() {
		id := DefaultNode
		if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				genErr = fmt.Errorf("invalid SNOWFLAKE_NODE %q: %w", v, err)
				return
			}
			id = parsed
		}
		gen, genErr = NewGenerator(id)
	})
	return gen, genErr
}

// NextID returns a new id from the process-wide node. It panics only if
// SNOWFLAKE_NODE holds an invalid node number.
func NextID() int64 {
	g, err := defaultGenerator()
	if err != nil {
		panic(err)
	}
	return g.Next()
}
