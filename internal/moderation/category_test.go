package moderation

import "testing"

func TestDescribeCategory(t *testing.T) {
	known := []Category{
		CategorySexualContent, CategoryThreatening, CategoryHarassment,
		CategoryHateSpeech, CategoryOffPlatformPay, CategoryContactExchange,
		CategoryExternalLinks, CategorySpam, CategoryGrooming,
		CategorySensitiveInfo, CategorySelfHarm, CategoryViolence,
	}
	for _, c := range known {
		desc := DescribeCategory(c)
		if desc == "" || desc == string(c) {
			t.Errorf("DescribeCategory(%q) = %q, want a user-facing sentence", c, desc)
		}
	}
}

func TestDescribeCategory_Unknown(t *testing.T) {
	if got := DescribeCategory("mystery-label"); got != "mystery-label" {
		t.Errorf("DescribeCategory(unknown) = %q, want the category unchanged", got)
	}
}

// TestSeveritySets pins the severity partition: ten block categories, two
// warn categories, no overlap.
func TestSeveritySets(t *testing.T) {
	if len(blockCategories) != 10 {
		t.Errorf("block set has %d categories, want 10", len(blockCategories))
	}
	if len(warnCategories) != 2 {
		t.Errorf("warn set has %d categories, want 2", len(warnCategories))
	}
	for c := range warnCategories {
		if blockCategories[c] {
			t.Errorf("category %q is in both severity sets", c)
		}
	}
}
