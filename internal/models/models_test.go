package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskMark(t *testing.T) {
	task := Task{TaskName: "Stretch"}

	assert.True(t, task.Mark("2026-03-01"))
	assert.False(t, task.Mark("2026-03-01"))
	assert.True(t, task.Mark("2026-03-02"))

	assert.True(t, task.MarkedOn("2026-03-01"))
	assert.False(t, task.MarkedOn("2026-03-03"))
	assert.True(t, task.Started())

	var untouched Task
	assert.False(t, untouched.Started())
}

func TestClampTimeline(t *testing.T) {
	assert.Equal(t, MinTimelineDays, ClampTimeline(0))
	assert.Equal(t, MinTimelineDays, ClampTimeline(-3))
	assert.Equal(t, 4, ClampTimeline(4))
	assert.Equal(t, MaxTimelineDays, ClampTimeline(30))
}

func TestWordCount(t *testing.T) {
	var empty Message
	assert.Equal(t, 0, empty.WordCount())

	m := Message{Content: "one  two\nthree"}
	assert.Equal(t, 3, m.WordCount())
}
