package board

import "github.com/leaguehq/team-workspace/models"

// MaxCanvasY — мягкая нижняя граница холста. Ограничение применяется на
// месте вызова, хранилище значения не валидирует.
const MaxCanvasY = 2000

// ClampPosition прижимает координату к границам холста:
// x ∈ [0, viewportWidth−itemWidth], y ∈ [0, MaxCanvasY].
func ClampPosition(x, y, viewportWidth, itemWidth float64) models.Position {
	maxX := viewportWidth - itemWidth
	if x > maxX {
		x = maxX
	}
	if x < 0 {
		x = 0
	}
	if y > MaxCanvasY {
		y = MaxCanvasY
	}
	if y < 0 {
		y = 0
	}
	return models.Position{X: x, Y: y}
}

// Partition делит элементы на перетаскиваемые (есть позиция и тип не
// sticky-note/comment) и статичные (рендерятся в фиксированной сетке).
func Partition(items []models.MediaItem) (draggable, static []models.MediaItem) {
	draggable = make([]models.MediaItem, 0, len(items))
	static = make([]models.MediaItem, 0, len(items))
	for _, item := range items {
		if item.Draggable() {
			draggable = append(draggable, item)
		} else {
			static = append(static, item)
		}
	}
	return draggable, static
}
