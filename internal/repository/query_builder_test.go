package repository

import (
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
)

func TestBuildConditions_AppliesAliases(t *testing.T) {
	qb := NewQueryBuilder()
	assert.False(t, qb.HasConditions())

	qb.AddCondition("warehouse_id", "w-1")
	qb.AddCondition("status", "RESERVED")

	conditions := qb.BuildConditions(map[string]string{"warehouse_id": "s.warehouse_id"})

	assert.True(t, qb.HasConditions())
	assert.Equal(t, goqu.Ex{"s.warehouse_id": "w-1", "status": "RESERVED"}, conditions)
}
