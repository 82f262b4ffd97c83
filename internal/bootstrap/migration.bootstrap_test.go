package bootstrap

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
)

func TestRunMigration_RejectsUnknownAction(t *testing.T) {
	err := runMigration(nil, migrationRootDir+"feed_data", "sideways", "", null.IntFrom(1))
	assert.EqualError(t, err, "invalid command")
}

func TestRunMigration_CreateRequiresName(t *testing.T) {
	err := runMigration(nil, migrationRootDir+"feed_data", "create", "", null.Int{})
	assert.EqualError(t, err, "migration name is required")
}
