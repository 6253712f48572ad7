package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/fintrack/internal/client/api"
	"github.com/dmitrijs2005/fintrack/internal/client/models"
)

const categoriesPath = "/categories"

// CategoryService manages spending and income categories. Every call goes
// through the executor, so an expired access cookie is renewed transparently.
type CategoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, c models.Category) (*models.Category, error)
	Rename(ctx context.Context, id, name string) (*models.Category, error)
	Delete(ctx context.Context, id string) error
}

type categoryService struct {
	client api.Client
}

func NewCategoryService(client api.Client) CategoryService {
	return &categoryService{client: client}
}

func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	cats, err := api.Get[[]models.Category](ctx, s.client, categoriesPath)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return cats, nil
}

func (s *categoryService) Create(ctx context.Context, c models.Category) (*models.Category, error) {
	out, err := api.Send[models.Category](ctx, s.client, http.MethodPost, categoriesPath, c)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *categoryService) Rename(ctx context.Context, id, name string) (*models.Category, error) {
	out, err := api.Send[models.Category](ctx, s.client, http.MethodPatch, categoryPath(id), models.CategoryPatch{Name: &name})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	_, err := s.client.Do(ctx, api.Request{Method: http.MethodDelete, Path: categoryPath(id)})
	return err
}

func categoryPath(id string) string {
	return categoriesPath + "/" + url.PathEscape(id)
}
