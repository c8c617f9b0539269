package catalog

// ProductSort names one of the fixed product orderings accepted by ?sort=.
type ProductSort string

const (
	SortDescPrice ProductSort = "desc_price"
	SortAscPrice  ProductSort = "asc_price"
	SortPopular   ProductSort = "popular"
	SortAlphabet  ProductSort = "alphabet"
)

var productOrder = map[ProductSort]string{
	SortDescPrice: "price desc",
	SortAscPrice:  "price",
	SortPopular:   "sales desc",
	SortAlphabet:  "name",
}

// OrderBy returns the ORDER BY clause for s. Unknown values keep insertion
// order.
func (s ProductSort) OrderBy() string {
	if o, ok := productOrder[s]; ok {
		return o + ", id"
	}
	return "id"
}

// ReviewSort names a review ordering.
type ReviewSort string

const (
	SortBest   ReviewSort = "best"
	SortWorst  ReviewSort = "worst"
	SortNewest ReviewSort = "newest"
)

var reviewOrder = map[ReviewSort]string{
	SortBest:   "rating desc, id",
	SortWorst:  "rating, id",
	SortNewest: "id desc",
}

func (s ReviewSort) OrderBy() string {
	if o, ok := reviewOrder[s]; ok {
		return o
	}
	return "id"
}
