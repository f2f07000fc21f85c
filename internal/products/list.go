package product

import "github.com/angelmondragon/rutaventas-backend/pkg/pagination"

// ListFilters describe the supported filter knobs for the product list.
type ListFilters struct {
	Code      string `json:"codigo,omitempty"`
	Packaging string `json:"presentacion,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate/filter products.
type ListProductsInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}
