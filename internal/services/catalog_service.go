package services

import (
	"dormstore/internal/domain"
	"dormstore/internal/repos"
)

// CatalogService is the read-only view of products and packages used by the
// cart and checkout paths.
type CatalogService struct {
	Prods *repos.ProductRepo
	Pkgs  *repos.PackageRepo
}

func NewCatalogService(prods *repos.ProductRepo, pkgs *repos.PackageRepo) *CatalogService {
	return &CatalogService{Prods: prods, Pkgs: pkgs}
}

// Product returns NotFoundError for unknown ids.
func (s *CatalogService) Product(id string) (domain.Product, error) {
	p, err := s.Prods.Get(id)
	if err != nil {
		return domain.Product{}, lookup("product", err)
	}
	return p, nil
}

// Package returns NotFoundError for unknown ids.
func (s *CatalogService) Package(id string) (domain.Package, error) {
	p, err := s.Pkgs.Get(id)
	if err != nil {
		return domain.Package{}, lookup("package", err)
	}
	return p, nil
}

func (s *CatalogService) PackageItems(id string) ([]domain.PackageItem, error) {
	items, err := s.Pkgs.Items(id)
	if err != nil {
		return nil, storage("load package items", err)
	}
	return items, nil
}
