package invalidation_test

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/insumos-api/internal/domain/invalidation"
)

// Toda vista que lee algo que una mutación escribe debe aparecer en AffectedViews de esa mutación.
// Una ausencia aquí es una lectura obsoleta en producción.
func TestAffectedViews_Exhaustivo(t *testing.T) {
	for _, m := range invalidation.AllMutations {
		writes := invalidation.MutationWrites[m]
		require.NotEmpty(t, writes, "mutación %s sin fuentes declaradas", m)
		got := invalidation.AffectedViews(m)

		for _, v := range invalidation.AllViews {
			sources, ok := invalidation.ViewSources[v]
			require.True(t, ok, "vista %s sin fuentes declaradas", v)

			stale := slices.ContainsFunc(sources, func(s invalidation.Source) bool {
				return slices.Contains(writes, s)
			})
			if stale {
				assert.Contains(t, got, v, "mutación %s debe invalidar %s", m, v)
			}
		}
	}
}

func TestAffectedViews_SoloVistasConocidas(t *testing.T) {
	for _, m := range invalidation.AllMutations {
		for _, v := range invalidation.AffectedViews(m) {
			assert.Contains(t, invalidation.AllViews, v)
		}
	}
	assert.Len(t, invalidation.ViewSources, len(invalidation.AllViews))
}

func TestAffectedViews_Tabla(t *testing.T) {
	cases := []struct {
		mutation invalidation.MutationKind
		must     []invalidation.ViewKey
	}{
		{invalidation.MutationMovementRecorded, []invalidation.ViewKey{
			invalidation.ViewStockCurrent, invalidation.ViewContainerContents,
			invalidation.ViewDashboardLowStock, invalidation.ViewMovementsList,
		}},
		{invalidation.MutationMovementAnnulled, []invalidation.ViewKey{
			invalidation.ViewStockCurrent, invalidation.ViewMovementDetail,
			invalidation.ViewCategoryAggregates, invalidation.ViewDashboardExpiringSoon,
		}},
	}
	for _, tc := range cases {
		got := invalidation.AffectedViews(tc.mutation)
		for _, v := range tc.must {
			assert.Contains(t, got, v, "%s", tc.mutation)
		}
	}
	assert.Empty(t, invalidation.AffectedViews("desconocida"))
}

func TestAffectedViews_DevuelveCopia(t *testing.T) {
	views := invalidation.AffectedViews(invalidation.MutationMovementRecorded)
	views[0] = "mutado"
	assert.NotContains(t, invalidation.AffectedViews(invalidation.MutationMovementRecorded), invalidation.ViewKey("mutado"))
}

func TestEvent_Tags(t *testing.T) {
	ev := invalidation.NewEvent(invalidation.MutationMovementAnnulled, invalidation.Scope{
		CompanyID: "co", ProductID: "p1", ContainerID: "c1", CategoryID: "cat", MovementID: "m1",
	}, time.Now())

	tags := ev.Tags()
	assert.Contains(t, tags, "stock.current:p1/c1")
	assert.Contains(t, tags, "container.contents:c1")
	assert.Contains(t, tags, "category.aggregates:cat")
	assert.Contains(t, tags, "movements.detail:m1")
	assert.Contains(t, tags, "movements.list:co")
	assert.Len(t, tags, len(ev.Views))
}
