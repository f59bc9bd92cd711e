package sharding

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGetShard_Stable(t *testing.T) {
	router := NewShardRouter(3)
	id := uuid.NewString()
	assert.Equal(t, router.GetShard(id), router.GetShard(id))
}

func TestGetShard_InRange(t *testing.T) {
	router := NewShardRouter(3)
	seen := make(map[int]bool)
	for i := 0; i < 300; i++ {
		shard := router.GetShard(uuid.NewString())
		assert.GreaterOrEqual(t, shard, 0)
		assert.Less(t, shard, 3)
		seen[shard] = true
	}
	assert.Len(t, seen, 3)
}

func TestNewShardRouter_AtLeastOne(t *testing.T) {
	router := NewShardRouter(0)
	assert.Equal(t, 1, router.ShardCount)
	assert.Equal(t, 0, router.GetShard("anything"))
}
