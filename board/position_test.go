package board

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leaguehq/team-workspace/models"
)

func TestClampPosition(t *testing.T) {
	tests := []struct {
		name          string
		x, y          float64
		viewportWidth float64
		itemWidth     float64
		want          models.Position
	}{
		{"inside canvas", 100, 200, 1000, 300, models.Position{X: 100, Y: 200}},
		{"negative coordinates", -50, -10, 1000, 300, models.Position{X: 0, Y: 0}},
		{"beyond right edge", 900, 100, 1000, 300, models.Position{X: 700, Y: 100}},
		{"beyond bottom", 100, 3000, 1000, 300, models.Position{X: 100, Y: 2000}},
		{"both out of bounds", -50, 3000, 1000, 300, models.Position{X: 0, Y: 2000}},
		{"exactly on edges", 700, 2000, 1000, 300, models.Position{X: 700, Y: 2000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampPosition(tt.x, tt.y, tt.viewportWidth, tt.itemWidth)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPartition(t *testing.T) {
	pos := &models.Position{X: 10, Y: 20}
	items := []models.MediaItem{
		{ID: "img", Type: models.MediaTypeImage, Position: pos},
		{ID: "note", Type: models.MediaTypeNote, Position: pos},
		{ID: "no-pos", Type: models.MediaTypeLink},
		{ID: "sticky", Type: models.MediaTypeStickyNote},
		// Позиция у стикера игнорируется: тип статичный.
		{ID: "sticky-pos", Type: models.MediaTypeStickyNote, Position: pos},
		{ID: "comment", Type: models.MediaTypeComment},
	}

	draggable, static := Partition(items)

	draggableIDs := make([]string, 0, len(draggable))
	for _, item := range draggable {
		draggableIDs = append(draggableIDs, item.ID)
	}
	staticIDs := make([]string, 0, len(static))
	for _, item := range static {
		staticIDs = append(staticIDs, item.ID)
	}

	assert.Equal(t, []string{"img", "note"}, draggableIDs)
	assert.Equal(t, []string{"no-pos", "sticky", "sticky-pos", "comment"}, staticIDs)
}

func TestPartitionEmpty(t *testing.T) {
	draggable, static := Partition(nil)
	assert.Empty(t, draggable)
	assert.Empty(t, static)
}
