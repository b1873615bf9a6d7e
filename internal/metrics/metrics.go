// Package metrics aggregates dashboard figures over a set of leads.
package metrics

import (
	"math"
	"regexp"
	"strings"

	"github.com/geocoder89/salestrack/internal/domain/lead"
	"github.com/shopspring/decimal"
)

type Summary struct {
	Total          int     `json:"total"`
	New            int     `json:"new"`
	Qualified      int     `json:"qualified"`
	InProgress     int     `json:"inProgress"`
	Converted      int     `json:"converted"`
	Lost           int     `json:"lost"`
	ConversionRate string  `json:"conversionRate"`
	TotalBudget    float64 `json:"totalBudget"`
}

type StatusBucket struct {
	Status     lead.Status `json:"status"`
	Count      int         `json:"count"`
	Percentage int         `json:"percentage"`
}

type SourceBucket struct {
	Source     lead.Source `json:"source"`
	Count      int         `json:"count"`
	Percentage int         `json:"percentage"`
}

type Report struct {
	Metrics            Summary        `json:"metrics"`
	StatusDistribution []StatusBucket `json:"statusDistribution"`
	SourceDistribution []SourceBucket `json:"sourceDistribution"`
}

// Compute builds the report for leads. Every status and source appears in
// the distributions, in catalogue order, even with a zero count.
func Compute(leads []lead.Lead) Report {
	total := len(leads)

	byStatus := make(map[lead.Status]int, len(lead.Statuses))
	bySource := make(map[lead.Source]int, len(lead.Sources))
	budget := decimal.Zero

	for _, l := range leads {
		byStatus[l.Status]++
		bySource[l.Source]++
		budget = budget.Add(ParseBudget(l.Budget))
	}

	report := Report{
		Metrics: Summary{
			Total:          total,
			New:            byStatus[lead.StatusNew],
			Qualified:      byStatus[lead.StatusQualified],
			InProgress:     byStatus[lead.StatusInProgress],
			Converted:      byStatus[lead.StatusConverted],
			Lost:           byStatus[lead.StatusLost],
			ConversionRate: conversionRate(byStatus[lead.StatusConverted], total),
			TotalBudget:    budget.InexactFloat64(),
		},
		StatusDistribution: make([]StatusBucket, 0, len(lead.Statuses)),
		SourceDistribution: make([]SourceBucket, 0, len(lead.Sources)),
	}

	for _, s := range lead.Statuses {
		report.StatusDistribution = append(report.StatusDistribution, StatusBucket{
			Status:     s,
			Count:      byStatus[s],
			Percentage: percentage(byStatus[s], total),
		})
	}

	for _, s := range lead.Sources {
		report.SourceDistribution = append(report.SourceDistribution, SourceBucket{
			Source:     s,
			Count:      bySource[s],
			Percentage: percentage(bySource[s], total),
		})
	}

	return report
}

// conversionRate is converted/total as a percentage with one decimal,
// rounding halves up. An empty set yields "0.0".
func conversionRate(converted, total int) string {
	if total == 0 {
		return "0.0"
	}
	rate := decimal.NewFromInt(int64(converted)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total)))
	return rate.StringFixed(1)
}

// percentage is count/total*100 rounded to the nearest integer, halves up.
func percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(count)/float64(total)*100 + 0.5))
}

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.\-]+`)
	leadingNumber = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)`)
)

// ParseBudget extracts a number from free-form budget text such as
// "฿1,000,000". Everything except digits, '.' and '-' is dropped and the
// longest leading number is used. Text with no leading number counts as
// zero.
func ParseBudget(raw string) decimal.Decimal {
	cleaned := nonNumeric.ReplaceAllString(raw, "")

	num := leadingNumber.FindString(cleaned)
	if num == "" {
		return decimal.Zero
	}

	num = strings.TrimSuffix(num, ".")
	if strings.HasPrefix(num, ".") {
		num = "0" + num
	} else if strings.HasPrefix(num, "-.") {
		num = "-0" + num[1:]
	}

	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero
	}
	return d
}
