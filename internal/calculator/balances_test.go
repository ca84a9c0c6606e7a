package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func splits(pairs ...string) []models.Split {
	var out []models.Split
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.Split{Email: pairs[i], Amount: d(pairs[i+1])})
	}
	return out
}

func TestValidateSplits(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		splits  []models.Split
		wantErr bool
	}{
		{"exact", "30", splits("a", "15", "b", "15"), false},
		{"within tolerance", "30", splits("a", "15", "b", "14.995"), false},
		{"at tolerance", "30", splits("a", "29.99"), false},
		{"half off", "30", splits("a", "15", "b", "14.5"), true},
		{"over by more than a cent", "30", splits("a", "30.02"), true},
		{"no splits", "30", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplits(d(tt.amount), tt.splits)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSplitMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGroupSummary_DinnerExample(t *testing.T) {
	balances := GroupSummary([]*models.Expense{{
		Description: "Dinner",
		Amount:      d("30"),
		PaidBy:      "a@x.com",
		Splits:      splits("a@x.com", "15", "b@x.com", "15"),
	}})

	require.Len(t, balances, 2)
	assert.True(t, balances["a@x.com"].Equal(d("15")), "a: %s", balances["a@x.com"])
	assert.True(t, balances["b@x.com"].Equal(d("-15")), "b: %s", balances["b@x.com"])
}

func TestGroupSummary_SkipsSettled(t *testing.T) {
	balances := GroupSummary([]*models.Expense{
		{Amount: d("10"), PaidBy: "a@x.com", Splits: splits("b@x.com", "10"), IsSettled: true},
		{Amount: d("8"), PaidBy: "b@x.com", Splits: splits("c@x.com", "8")},
	})

	_, hasA := balances["a@x.com"]
	assert.False(t, hasA)
	assert.True(t, balances["b@x.com"].Equal(d("8")))
	assert.True(t, balances["c@x.com"].Equal(d("-8")))
}

func TestGroupSummary_AllSettledIsEmpty(t *testing.T) {
	balances := GroupSummary([]*models.Expense{
		{Amount: d("10"), PaidBy: "a@x.com", Splits: splits("b@x.com", "10"), IsSettled: true},
	})
	assert.Empty(t, balances)
}

func TestGroupSummary_KeepsZeroEntriesAndNormalizesEmails(t *testing.T) {
	balances := GroupSummary([]*models.Expense{
		{Amount: d("20"), PaidBy: "A@x.com", Splits: splits("b@x.com", "20")},
		{Amount: d("20"), PaidBy: "b@x.com", Splits: splits("a@X.com", "20")},
	})

	require.Len(t, balances, 2)
	assert.True(t, balances["a@x.com"].IsZero())
	assert.True(t, balances["b@x.com"].IsZero())
}

func TestGroupSummary_SumsToZero(t *testing.T) {
	expenses := []*models.Expense{
		{Amount: d("100"), PaidBy: "a", Splits: splits("a", "33.33", "b", "33.33", "c", "33.34")},
		{Amount: d("45.50"), PaidBy: "b", Splits: splits("a", "20", "c", "25.50")},
		{Amount: d("12"), PaidBy: "c", Splits: splits("c", "6", "d", "6")},
		{Amount: d("7"), PaidBy: "d", Splits: splits("a", "7"), IsSettled: true},
	}

	total := decimal.Zero
	for _, bal := range GroupSummary(expenses) {
		total = total.Add(bal)
	}
	assert.True(t, total.IsZero(), "sum of balances = %s", total)
}

func TestSimplifyDebts(t *testing.T) {
	balances := map[string]decimal.Decimal{
		"a": d("50"),
		"b": d("-30"),
		"c": d("-20"),
		"d": d("0.004"),
	}

	edges := SimplifyDebts(balances)

	require.Len(t, edges, 2)
	assert.Equal(t, "b", edges[0].From)
	assert.Equal(t, "a", edges[0].To)
	assert.True(t, edges[0].Amount.Equal(d("30")))
	assert.Equal(t, "c", edges[1].From)
	assert.True(t, edges[1].Amount.Equal(d("20")))
}

func TestSimplifyDebts_Balanced(t *testing.T) {
	assert.Empty(t, SimplifyDebts(map[string]decimal.Decimal{"a": decimal.Zero}))
	assert.Empty(t, SimplifyDebts(nil))
}
