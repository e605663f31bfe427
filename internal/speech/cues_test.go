package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForJournal(t *testing.T) {
	assert.Equal(t, "Today was long. Then it got better! Really.", FormatForJournal("  today   was long.  then it got better! really. "))
	assert.Equal(t, "", FormatForJournal("   "))
	assert.Equal(t, "Version 1.5 shipped", FormatForJournal("version 1.5 shipped"))
}

func TestDetectCues(t *testing.T) {
	c := DetectCues("I feel happy, calm and grateful")
	assert.Equal(t, []string{"happy", "calm", "grateful"}, c.EmotionalWords)
	assert.Equal(t, "medium", c.Intensity)
	assert.Equal(t, 90, c.SuggestedMoodScore)

	c = DetectCues("so very really extremely sad")
	assert.Equal(t, "high", c.Intensity)
	assert.Equal(t, 30, c.SuggestedMoodScore)

	c = DetectCues("stressed anxious worried overwhelmed sad")
	assert.Equal(t, 10, c.SuggestedMoodScore)

	c = DetectCues("good but bad")
	assert.Equal(t, "low", c.Intensity)
	assert.Equal(t, 50, c.SuggestedMoodScore)

	c = DetectCues("")
	assert.Empty(t, c.EmotionalWords)
	assert.Equal(t, 50, c.SuggestedMoodScore)
}
