package lead

import (
	"strings"
	"time"
)

// SearchCriteria is either a free-text keyword or a set of per-field
// filters. A keyword takes precedence and the field filters are then
// ignored; field filters are ANDed. Matching is a case-insensitive
// substring test.
type SearchCriteria struct {
	Keyword             string
	Name                string
	ProjectName         string
	EndUserOrganization string
	Company             string
	Product             string
}

func (c SearchCriteria) IsEmpty() bool {
	return strings.TrimSpace(c.Keyword) == "" &&
		strings.TrimSpace(c.Name) == "" &&
		strings.TrimSpace(c.ProjectName) == "" &&
		strings.TrimSpace(c.EndUserOrganization) == "" &&
		strings.TrimSpace(c.Company) == "" &&
		strings.TrimSpace(c.Product) == ""
}

// KeywordFields returns the values a keyword is matched against.
func KeywordFields(l Lead) []string {
	return []string{
		l.Name,
		l.ProjectName,
		l.Company,
		l.EndUserOrganization,
		l.Product,
		l.Email,
		l.Phone,
		l.EndUserContact,
	}
}

// Matches reports whether l satisfies the criteria. An empty criteria
// matches everything.
func (c SearchCriteria) Matches(l Lead) bool {
	if kw := strings.TrimSpace(c.Keyword); kw != "" {
		for _, v := range KeywordFields(l) {
			if containsFold(v, kw) {
				return true
			}
		}
		return false
	}

	fieldChecks := []struct {
		value string
		want  string
	}{
		{l.Name, c.Name},
		{l.ProjectName, c.ProjectName},
		{l.EndUserOrganization, c.EndUserOrganization},
		{l.Company, c.Company},
		{l.Product, c.Product},
	}

	for _, fc := range fieldChecks {
		want := strings.TrimSpace(fc.want)
		if want != "" && !containsFold(fc.value, want) {
			return false
		}
	}

	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// DateRange bounds are inclusive. A nil bound is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) Contains(createdAtMillis int64) bool {
	if r.From != nil && createdAtMillis < r.From.UnixMilli() {
		return false
	}
	if r.To != nil && createdAtMillis > r.To.UnixMilli() {
		return false
	}
	return true
}

// ParseBound accepts RFC 3339 timestamps or plain dates. A plain date used
// as an upper bound covers the whole day.
func ParseBound(raw string, upper bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, nil
	}

	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}

	if upper {
		t = t.Add(24*time.Hour - time.Millisecond)
	}

	return &t, nil
}
