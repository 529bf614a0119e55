package question

// Category is one option of the configuration form. An empty ID means any category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AnyCategory leaves the category filter unset.
var AnyCategory = Category{ID: "", Name: "Any"}

// StaticCategories is served when the live list cannot be loaded.
var StaticCategories = []Category{
	AnyCategory,
	{ID: "9", Name: "General Knowledge"},
	{ID: "10", Name: "Entertainment: Books"},
	{ID: "11", Name: "Entertainment: Film"},
	{ID: "12", Name: "Entertainment: Music"},
	{ID: "14", Name: "Entertainment: Television"},
	{ID: "15", Name: "Entertainment: Video Games"},
	{ID: "16", Name: "Entertainment: Board Games"},
	{ID: "17", Name: "Science & Nature"},
	{ID: "18", Name: "Science: Computers"},
	{ID: "19", Name: "Science: Mathematics"},
	{ID: "20", Name: "Mythology"},
	{ID: "21", Name: "Sports"},
	{ID: "22", Name: "Geography"},
	{ID: "23", Name: "History"},
	{ID: "24", Name: "Politics"},
	{ID: "25", Name: "Art"},
	{ID: "26", Name: "Celebrities"},
	{ID: "27", Name: "Animals"},
	{ID: "28", Name: "Vehicles"},
	{ID: "29", Name: "Entertainment: Comics"},
	{ID: "30", Name: "Science: Gadgets"},
	{ID: "31", Name: "Entertainment: Japanese Anime & Manga"},
	{ID: "32", Name: "Entertainment: Cartoon & Animations"},
}
