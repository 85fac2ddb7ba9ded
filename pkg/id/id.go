// Package id provides the process-wide snowflake generator.
package id

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

// NewNode builds the snowflake node. SNOWFLAKE_NODE_ID distinguishes
// instances when more than one process writes to the same database.
func NewNode() (*snowflake.Node, error) {
	nodeID := int64(1)
	if raw, ok := os.LookupEnv("SNOWFLAKE_NODE_ID"); ok {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			nodeID = parsed
		}
	}
	return snowflake.NewNode(nodeID)
}

var Module = fx.Module("id",
	fx.Provide(NewNode),
)
