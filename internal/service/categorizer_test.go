package service_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordCategorizer_DefaultRules(t *testing.T) {
	c := service.NewKeywordCategorizer(service.DefaultCategoryRules(), domain.CategoryShopping)

	tests := []struct {
		seller   string
		expected domain.Category
	}{
		{"統一超商股份有限公司", domain.CategoryFood},
		{"全家便利商店", domain.CategoryFood},
		{"FamilyMart Taipei", domain.CategoryFood},
		{"台灣中油股份有限公司", domain.CategoryTransport},
		{"仁愛診所", domain.CategoryMedical},
		{"誠品書局", domain.CategoryEducation},
		{"某某百貨", domain.CategoryShopping},
		{"", domain.CategoryShopping},
	}

	for _, tt := range tests {
		t.Run(tt.seller, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Categorize(tt.seller))
		})
	}
}

func TestKeywordCategorizer_FirstRuleWins(t *testing.T) {
	c := service.NewKeywordCategorizer([]service.CategoryRule{
		{Category: domain.CategoryMedical, Keywords: []string{"藥局"}},
		{Category: domain.CategoryShopping, Keywords: []string{"藥"}},
	}, domain.CategoryOther)

	assert.Equal(t, domain.CategoryMedical, c.Categorize("大樹藥局"))
	assert.Equal(t, domain.CategoryShopping, c.Categorize("藥妝店"))
	assert.Equal(t, domain.CategoryOther, c.Categorize("餐廳"))
}

func TestKeywordCategorizer_InvalidFallback(t *testing.T) {
	c := service.NewKeywordCategorizer(nil, "gadgets")

	assert.Equal(t, domain.CategoryShopping, c.Categorize("anything"))
}

func TestLoadCategorizer(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		c, err := service.LoadCategorizer("")
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryFood, c.Categorize("7-11 信義店"))
	})

	t.Run("yaml rules", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "categories.yaml")
		content := `default: other
categories:
  - name: entertainment
    keywords: ["威秀", "KTV"]
  - name: housing
    keywords: ["台電", "自來水"]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		c, err := service.LoadCategorizer(path)
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryEntertainment, c.Categorize("信義威秀影城"))
		assert.Equal(t, domain.CategoryEntertainment, c.Categorize("好樂迪ktv"))
		assert.Equal(t, domain.CategoryHousing, c.Categorize("台電公司"))
		assert.Equal(t, domain.CategoryOther, c.Categorize("7-11"))
	})

	t.Run("unknown category", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "categories.yaml")
		require.NoError(t, os.WriteFile(path, []byte("categories:\n  - name: gadgets\n    keywords: [x]\n"), 0o600))

		_, err := service.LoadCategorizer(path)
		assert.ErrorContains(t, err, "gadgets")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := service.LoadCategorizer(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
