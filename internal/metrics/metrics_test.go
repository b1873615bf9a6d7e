package metrics

import (
	"encoding/json"
	"testing"

	"github.com/geocoder89/salestrack/internal/domain/lead"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leadsWith(statuses ...lead.Status) []lead.Lead {
	out := make([]lead.Lead, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, lead.Lead{ID: int64(i + 1), Status: s, Source: lead.SourceWebsite})
	}
	return out
}

func TestCompute_StatusCountsAndRates(t *testing.T) {
	report := Compute(leadsWith(lead.StatusNew, lead.StatusNew, lead.StatusQualified, lead.StatusConverted))

	assert.Equal(t, 4, report.Metrics.Total)
	assert.Equal(t, 2, report.Metrics.New)
	assert.Equal(t, 1, report.Metrics.Qualified)
	assert.Equal(t, 1, report.Metrics.Converted)
	assert.Equal(t, "25.0", report.Metrics.ConversionRate)

	require.Len(t, report.StatusDistribution, len(lead.Statuses))
	assert.Equal(t, StatusBucket{Status: lead.StatusNew, Count: 2, Percentage: 50}, report.StatusDistribution[0])
	assert.Equal(t, StatusBucket{Status: lead.StatusLost, Count: 0, Percentage: 0}, report.StatusDistribution[4])

	require.Len(t, report.SourceDistribution, len(lead.Sources))
	assert.Equal(t, SourceBucket{Source: lead.SourceWebsite, Count: 4, Percentage: 100}, report.SourceDistribution[0])
}

func TestCompute_Empty(t *testing.T) {
	report := Compute(nil)

	assert.Equal(t, 0, report.Metrics.Total)
	assert.Equal(t, "0.0", report.Metrics.ConversionRate)
	assert.Zero(t, report.Metrics.TotalBudget)

	for _, b := range report.StatusDistribution {
		assert.Zero(t, b.Count)
		assert.Zero(t, b.Percentage)
	}
	assert.Len(t, report.SourceDistribution, len(lead.Sources))
}

func TestCompute_RoundsHalfUp(t *testing.T) {
	// 1 of 8 converted is 12.5%; 1 of 3 is 33.33%.
	eight := leadsWith(lead.StatusConverted, lead.StatusNew, lead.StatusNew, lead.StatusNew,
		lead.StatusNew, lead.StatusNew, lead.StatusNew, lead.StatusNew)
	report := Compute(eight)
	assert.Equal(t, "12.5", report.Metrics.ConversionRate)
	assert.Equal(t, 13, report.StatusDistribution[3].Percentage)

	three := leadsWith(lead.StatusConverted, lead.StatusLost, lead.StatusLost)
	report = Compute(three)
	assert.Equal(t, "33.3", report.Metrics.ConversionRate)
	assert.Equal(t, 33, report.StatusDistribution[3].Percentage)
	assert.Equal(t, 67, report.StatusDistribution[4].Percentage)
}

func TestCompute_TotalBudget(t *testing.T) {
	leads := []lead.Lead{
		{Status: lead.StatusNew, Budget: "฿1,000,000"},
		{Status: lead.StatusNew, Budget: ""},
		{Status: lead.StatusNew, Budget: "500000"},
		{Status: lead.StatusNew, Budget: "abc"},
	}

	report := Compute(leads)
	assert.Equal(t, 1500000.0, report.Metrics.TotalBudget)

	raw, err := json.Marshal(report.Metrics)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"totalBudget":1500000`)
}

func TestParseBudget(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"฿1,000,000", "1000000"},
		{"1,234.50 THB", "1234.5"},
		{"500,000-600,000", "500000"},
		{"-250", "-250"},
		{".5", "0.5"},
		{"7.", "7"},
		{"1.2.3", "1.2"},
		{"--5", "0"},
		{"abc", "0"},
		{"", "0"},
		{"0.1", "0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBudget(tt.in).String())
		})
	}
}

func TestParseBudget_DecimalSumIsExact(t *testing.T) {
	sum := ParseBudget("0.1").Add(ParseBudget("0.2"))
	assert.Equal(t, "0.3", sum.String())
}
