package handlers

import (
	"net/http"
	"strconv"

	"github.com/dmitrymomot/storefront"
	"github.com/dmitrymomot/storefront/example/models"
	"github.com/dmitrymomot/storefront/middlewares"
	"github.com/dmitrymomot/storefront/pkg/model"
	"github.com/dmitrymomot/storefront/pkg/query"
	"github.com/dmitrymomot/storefront/pkg/storage"
	"github.com/dmitrymomot/storefront/pkg/validation"
)

const productNotFound = "This product does not exist."

type Products struct {
	db       *query.DB
	users    *Users
	storage  storage.Storage
	products *ProductRepository
}

func NewProducts(db *query.DB, users *Users, files storage.Storage) *Products {
	return &Products{
		db:       db,
		users:    users,
		storage:  files,
		products: model.NewRepository[models.Product](db),
	}
}

func (h *Products) Routes(r storefront.Router) {
	r.GET("/", h.home)
	r.GET("/product/{id}", h.show)
	r.GET("/search", h.search)
	r.GET("/category/{id}", h.category)

	r.Group(func(r storefront.Router) {
		r.Use(
			middlewares.RequireAuth(h.users, middlewares.DefaultLoginPath),
			middlewares.RequireRole(RoleOf(h.db, h.users), models.RoleAdmin),
		)
		r.POST("/product", h.store)
		r.DELETE("/product/{id}", h.destroy)
	})
}

func (h *Products) home(r *storefront.Request) (*storefront.Response, error) {
	products, err := h.products.All().OrderBy("created_at", "desc").Limit(12).Get(r.Context())
	if err != nil {
		return nil, err
	}
	return respond(r, http.StatusOK, "home.html", "Home", map[string]any{"products": products})
}

// find loads the product named by the id parameter or fails with 404.
func (h *Products) find(r *storefront.Request) (*models.Product, error) {
	id, ok := storefront.Param[int64](r, "id")
	if !ok {
		return nil, storefront.ErrNotFound(productNotFound)
	}
	p, found, err := h.products.Find(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storefront.ErrNotFound(productNotFound)
	}
	return p, nil
}

func (h *Products) show(r *storefront.Request) (*storefront.Response, error) {
	p, err := h.find(r)
	if err != nil {
		return nil, err
	}
	categories, err := p.Categories(r.Context(), h.db)
	if err != nil {
		return nil, err
	}
	return respond(r, http.StatusOK, "product.html", p.Name, map[string]any{
		"product":    p,
		"categories": categories,
	})
}

func (h *Products) search(r *storefront.Request) (*storefront.Response, error) {
	term := r.String("search")
	q := h.products.Query()
	if term != "" {
		q.WhereGroup(func(g *query.Builder) {
			g.Where("name", "LIKE", "%"+term+"%").OrWhere("description", "LIKE", "%"+term+"%")
		})
	}
	products, err := q.OrderBy("name", "asc").Get(r.Context())
	if err != nil {
		return nil, err
	}

	if len(products) == 1 && r.PrefersHTML() {
		return storefront.Redirect("/product/" + strconv.FormatInt(products[0].ID, 10)), nil
	}
	return respond(r, http.StatusOK, "browse.html", `Search results for "`+term+`"`, map[string]any{
		"search":   term,
		"products": products,
	})
}

func (h *Products) category(r *storefront.Request) (*storefront.Response, error) {
	id, ok := storefront.Param[int64](r, "id")
	if !ok {
		return nil, storefront.ErrNotFound("This category does not exist.")
	}
	c, found, err := model.NewRepository[models.Category](h.db).Find(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storefront.ErrNotFound("This category does not exist.")
	}

	products, err := c.Products(r.Context(), h.db)
	if err != nil {
		return nil, err
	}
	subcategories, err := c.Subcategories(r.Context(), h.db)
	if err != nil {
		return nil, err
	}
	return respond(r, http.StatusOK, "browse.html", c.Name, map[string]any{
		"category":   c,
		"categories": subcategories,
		"products":   products,
	})
}

func (h *Products) store(r *storefront.Request) (*storefront.Response, error) {
	input, err := validate(r, h.db,
		validation.Field("name", validation.Rule().Required().MinLength(3).MaxLength(255)),
		validation.Field("price", validation.Rule().Required().Numeric().MinValue(0).MaxDigits(18)),
		validation.Field("description", validation.Rule().Nullable().MaxLength(512)),
		validation.Field("stock", validation.Rule().Required().Integer().MinValue(0).MaxDigits(10)),
		validation.Field("ean13", validation.Rule().Required().MinLength(13).MaxLength(13)),
		validation.Field("categories", validation.Rule().Nullable().IsArray(
			validation.Rule().Numeric().Exists("categories", "id"),
		)),
		validation.Field("thumbnail", validation.Rule().Required().File().Image().MaxFileSize(5<<20)),
	)
	if err != nil {
		return nil, err
	}

	thumb, _ := r.File("thumbnail")
	stored, err := thumb.Store(r.Context(), h.storage, storage.WithPrefix("product_photos"))
	if err != nil {
		return nil, err
	}
	thumbURL, err := h.storage.URL(r.Context(), stored.Key)
	if err != nil {
		return nil, err
	}

	var p *models.Product
	err = h.db.WithTx(r.Context(), func(tx *query.DB) error {
		var err error
		p, err = h.products.WithDB(tx).Create(r.Context(), model.Row{
			"name":           input["name"],
			"price":          input["price"],
			"description":    input["description"],
			"stock_quantity": input["stock"],
			"ean13":          input["ean13"],
			"thumbnail_path": thumbURL,
		})
		if err != nil {
			return err
		}
		return p.AttachCategories(r.Context(), tx, int64s(input["categories"])...)
	})
	if err != nil {
		_ = h.storage.Delete(r.Context(), stored.Key)
		return nil, err
	}

	return storefront.JSON(http.StatusCreated, p)
}

func (h *Products) destroy(r *storefront.Request) (*storefront.Response, error) {
	p, err := h.find(r)
	if err != nil {
		return nil, err
	}
	if err := h.products.Delete(r.Context(), p); err != nil {
		return nil, err
	}
	return storefront.NoContent(), nil
}

// int64s converts a validated numeric list to ids.
func int64s(v any) []int64 {
	list, _ := v.([]any)
	ids := make([]int64, 0, len(list))
	for _, item := range list {
		if id, ok := toInt64(item); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
