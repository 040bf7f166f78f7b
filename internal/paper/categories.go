package paper

import "github.com/hitoshi/arxivnotify/internal/model"

// categories は購読可能なトップレベルカテゴリの固定リスト。
var categories = []model.Category{
	{ID: "cs", Name: "Computer Science"},
	{ID: "math", Name: "Mathematics"},
	{ID: "physics", Name: "Physics"},
	{ID: "q-bio", Name: "Quantitative Biology"},
	{ID: "stat", Name: "Statistics"},
}

// Categories は購読可能なカテゴリ一覧のコピーを返す。
func Categories() []model.Category {
	out := make([]model.Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryName はカテゴリIDの表示名を返す。未知のIDはそのまま返す。
func CategoryName(id string) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}
