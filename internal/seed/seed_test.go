package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/sequencer"
	"github.com/roach88/karmapos/internal/store"
	"github.com/roach88/karmapos/internal/testutil"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 25, cat.ItemCount())
	assert.Equal(t, float64(20000), cat.QuickPrice)
	require.Len(t, cat.Sections, 2)
	assert.Equal(t, "restaurant", cat.Sections[0].ID)
	assert.Len(t, cat.Sections[0].Items, 10)
	assert.Equal(t, "coffee", cat.Sections[1].Items[0].SubCategory)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("quick_prise: 100\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing section id", "sections:\n  - items: []\n"},
		{"blank item name", "sections:\n  - id: cafe\n    items:\n      - { name: ' ', price: 1 }\n"},
		{"negative price", "sections:\n  - id: cafe\n    items:\n      - { name: Tea, price: -1 }\n"},
		{"negative quick price", "quick_price: -5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid catalog")
		})
	}
}

func TestSeed_FreshStore(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()
	cat, err := Default()
	require.NoError(t, err)

	applied, err := Seed(ctx, st, cat, nil)
	require.NoError(t, err)
	assert.True(t, applied)

	items, err := st.AllItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 25)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "restaurant", items[0].SectionID)
	assert.Nil(t, items[0].SubCategory)
	assert.Equal(t, "cafe", items[24].SectionID)
	assert.Equal(t, "juice", items[24].Category())

	seq := sequencer.New(st, nil)
	cur, err := seq.Current(ctx, model.KeyItemCounter)
	require.NoError(t, err)
	assert.Equal(t, int64(25), cur)

	_, err = st.GetState(ctx, model.KeyInvoiceCounter)
	require.NoError(t, err, "invoice counter written")

	var seeded bool
	require.NoError(t, st.GetValue(ctx, model.KeySeeded, &seeded))
	assert.True(t, seeded)

	var cashier model.CashierInfo
	require.NoError(t, st.GetValue(ctx, model.KeyCashierInfo, &cashier))
	assert.Equal(t, "0123456789", cashier.Phone)
}

func TestSeed_OnlyOnce(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()
	cat, err := Default()
	require.NoError(t, err)

	_, err = Seed(ctx, st, cat, nil)
	require.NoError(t, err)

	applied, err := Seed(ctx, st, cat, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	n, err := st.Count(ctx, store.Items)
	require.NoError(t, err)
	assert.Equal(t, 25, n)
}

func TestSeed_ResumesAfterInterruption(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()
	cat, err := Load(strings.NewReader(`
sections:
  - id: cafe
    items:
      - { name: Tea, price: 1000, sub_category: tea }
      - { name: Latte, price: 2000, sub_category: coffee }
`))
	require.NoError(t, err)

	// A previous run stopped after the first item.
	seq := sequencer.New(st, nil)
	_, err = seq.AddItem(ctx, model.Item{Name: "Tea", Price: 1000, SectionID: "cafe"})
	require.NoError(t, err)
	require.NoError(t, st.SetValue(ctx, model.KeyInvoiceCounter, 12))

	applied, err := Seed(ctx, st, cat, nil)
	require.NoError(t, err)
	assert.True(t, applied)

	items, err := st.AllItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Latte", items[1].Name)
	assert.Equal(t, int64(2), items[1].ID)

	cur, err := seq.Current(ctx, model.KeyInvoiceCounter)
	require.NoError(t, err)
	assert.Equal(t, int64(12), cur, "existing counter is not reset")
}
