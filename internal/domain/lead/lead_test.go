package lead

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Lead {
	return Lead{
		Name:                "Somchai",
		Company:             "Siam Steel",
		Email:               "somchai@siamsteel.co.th",
		Phone:               "081-234-5678",
		Product:             "Firewall",
		ProjectName:         "Bangkok DC",
		EndUserOrganization: "Ministry of Finance",
		EndUserContact:      "Khun Nok",
		PartnerContact:      "not searched",
	}
}

func TestSearchCriteriaMatches(t *testing.T) {
	l := sample()

	tests := []struct {
		name string
		c    SearchCriteria
		want bool
	}{
		{"empty matches all", SearchCriteria{}, true},
		{"keyword on name case-insensitive", SearchCriteria{Keyword: "SOMCHAI"}, true},
		{"keyword on phone", SearchCriteria{Keyword: "234-56"}, true},
		{"keyword on end user contact", SearchCriteria{Keyword: "nok"}, true},
		{"keyword ignores partner contact", SearchCriteria{Keyword: "searched"}, false},
		{"keyword wins over field filter", SearchCriteria{Keyword: "bangkok", Company: "nope"}, true},
		{"field filters are ANDed", SearchCriteria{Company: "siam", Product: "fire"}, true},
		{"one field filter misses", SearchCriteria{Company: "siam", Product: "router"}, false},
		{"whitespace keyword is ignored", SearchCriteria{Keyword: "  ", Name: "som"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Matches(l))
		})
	}
}

func TestParseBound(t *testing.T) {
	got, err := ParseBound("2025-03-10", false)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))

	got, err = ParseBound("2025-03-10", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 23, 59, 59, 999_000_000, time.UTC).UnixMilli(), got.UnixMilli())

	got, err = ParseBound("2025-03-10T08:00:00+07:00", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC).UnixMilli(), got.UnixMilli())

	got, err = ParseBound("", false)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseBound("10/03/2025", false)
	assert.Error(t, err)
}

func TestDateRangeContains(t *testing.T) {
	from, _ := ParseBound("2025-03-01", false)
	to, _ := ParseBound("2025-03-31", true)
	r := DateRange{From: from, To: to}

	assert.True(t, r.Contains(from.UnixMilli()))
	assert.True(t, r.Contains(to.UnixMilli()))
	assert.False(t, r.Contains(from.UnixMilli()-1))
	assert.False(t, r.Contains(to.UnixMilli()+1))
	assert.True(t, DateRange{}.Contains(0))
}

func TestNewFromCreateRequest(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	l := NewFromCreateRequest(CreateRequest{Name: "A", Source: SourceEvent}, Attribution{UserID: 9, Name: "Nine"}, now)

	assert.Equal(t, StatusNew, l.Status)
	assert.Equal(t, now.UnixMilli(), l.CreatedAt)
	require.NotNil(t, l.UpdatedAt)
	assert.Equal(t, l.CreatedAt, *l.UpdatedAt)
	assert.Equal(t, int64(9), l.CreatedByID)
	assert.Equal(t, "Nine", l.CreatedBy)
}

func TestUpdateRequestApply(t *testing.T) {
	original := sample()
	original.Status = StatusNew
	original.CreatedAt = 100
	original.CreatedBy = "Owner"
	original.CreatedByID = 3

	status := StatusConverted
	budget := ""
	now := time.UnixMilli(5_000)

	updated := UpdateRequest{Status: &status, Budget: &budget}.Apply(original, now)

	assert.Equal(t, StatusConverted, updated.Status)
	assert.Equal(t, "", updated.Budget)
	assert.Equal(t, original.Name, updated.Name)
	assert.Equal(t, int64(100), updated.CreatedAt)
	assert.Equal(t, int64(3), updated.CreatedByID)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, int64(5_000), *updated.UpdatedAt)
	assert.Nil(t, original.UpdatedAt)
}

func TestCatalogues(t *testing.T) {
	assert.True(t, SourceSocialMedia.IsValid())
	assert.False(t, Source("social media").IsValid())
	assert.True(t, StatusInProgress.IsValid())
	assert.False(t, Status("Won").IsValid())
}
