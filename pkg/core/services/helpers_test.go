package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/adapters/repository/sqldb"
)

func newMemoryRepo(t *testing.T) *sqldb.Repository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	repo, err := sqldb.NewRepository(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}
