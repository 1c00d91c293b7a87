package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasConditionKeywords(t *testing.T) {
	assert.True(t, HasConditionKeywords("I've been dealing with back pain for weeks"))
	assert.True(t, HasConditionKeywords("Feeling really STRESSED lately"))
	assert.True(t, HasConditionKeywords("my knee hurts after running"))
	assert.False(t, HasConditionKeywords("What's the weather like today?"))
	assert.False(t, HasConditionKeywords(""))
}

func TestIsProgressRequest(t *testing.T) {
	assert.True(t, IsProgressRequest("Mark today's tasks as completed"))
	assert.True(t, IsProgressRequest("I finished my stretches"))
	assert.False(t, IsProgressRequest("My shoulder aches"))
}

func TestIsDeactivationRequest(t *testing.T) {
	assert.True(t, IsDeactivationRequest("Please deactivate my back pain plan"))
	assert.True(t, IsDeactivationRequest("I don't want this plan anymore"))
	assert.True(t, IsDeactivationRequest("stop the stress plan"))
	assert.False(t, IsDeactivationRequest("How is my plan going?"))
}

func TestSignificantWords(t *testing.T) {
	assert.Equal(t, []string{"back", "pain", "relief", "plan"}, significantWords("Back Pain Relief Plan"))
	assert.Nil(t, significantWords("a an of"))
}

func TestMentionsAnyWord(t *testing.T) {
	words := significantWords("Back Pain Relief Plan")
	assert.True(t, mentionsAnyWord("deactivate the back plan please", words))
	assert.False(t, mentionsAnyWord("cancel my stress routine", words))
}
