package id

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

var (
	nodeMu sync.Mutex
	node   *snowflake.Node
)

// SetNode selects the snowflake node used by NewReference. Node ids are 0..1023.
func SetNode(n int64) error {
	nd, err := snowflake.NewNode(n)
	if err != nil {
		return err
	}
	nodeMu.Lock()
	node = nd
	nodeMu.Unlock()
	return nil
}

func currentNode() *snowflake.Node {
	nodeMu.Lock()
	defer nodeMu.Unlock()
	if node == nil {
		node, _ = snowflake.NewNode(1)
	}
	return node
}

// NewReference returns a ledger reference number. Snowflake ids are
// time-ordered, so references sort by creation time.
func NewReference() string {
	return "TXN-" + currentNode().Generate().String()
}

// NewSessionID returns a sortable, globally unique session identifier.
func NewSessionID() string {
	return ksuid.New().String()
}
