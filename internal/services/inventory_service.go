package services

import (
	"errors"

	"github.com/jmoiron/sqlx"

	"dormstore/internal/domain"
	applog "dormstore/internal/log"
	"dormstore/internal/repos"
)

// InventoryService keeps derived package stock in line with component stock.
type InventoryService struct {
	DB    *sqlx.DB
	Prods *repos.ProductRepo
	Pkgs  *repos.PackageRepo
}

func NewInventoryService(db *sqlx.DB, prods *repos.ProductRepo, pkgs *repos.PackageRepo) *InventoryService {
	return &InventoryService{DB: db, Prods: prods, Pkgs: pkgs}
}

// stockStore pairs the repos a recompute touches so callers can pass
// transaction-bound copies.
type stockStore struct {
	prods *repos.ProductRepo
	pkgs  *repos.PackageRepo
}

func (s *InventoryService) store() stockStore { return stockStore{prods: s.Prods, pkgs: s.Pkgs} }

func (s *InventoryService) txStore(tx *sqlx.Tx) stockStore {
	return stockStore{prods: s.Prods.WithTx(tx), pkgs: s.Pkgs.WithTx(tx)}
}

// ComputePackageStock returns min(floor(stock/quantity)) over items.
// stockOf holds current product stock; a missing entry means the product is gone.
func ComputePackageStock(packageID string, items []domain.PackageItem, stockOf map[string]int) (int, error) {
	if len(items) == 0 {
		return 0, invalid("package %s has no components", packageID)
	}
	lowest := -1
	for _, it := range items {
		if it.Quantity <= 0 {
			return 0, invalid("invalid quantity data for package %s", packageID)
		}
		stock, ok := stockOf[it.ProductID]
		if !ok {
			return 0, &InconsistentPackageError{PackageID: packageID, ProductID: it.ProductID}
		}
		n := stock / it.Quantity
		if lowest < 0 || n < lowest {
			lowest = n
		}
	}
	return lowest, nil
}

// available computes a package's sellable stock without writing anything.
// Packages without components report their stored value.
func (st stockStore) available(pkg domain.Package) (int, error) {
	items, err := st.pkgs.Items(pkg.ID)
	if err != nil {
		return 0, storage("load package items", err)
	}
	if len(items) == 0 {
		return pkg.Stock, nil
	}
	return st.computeFromItems(pkg.ID, items)
}

func (st stockStore) computeFromItems(packageID string, items []domain.PackageItem) (int, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	stocks, err := st.prods.Stocks(ids)
	if err != nil {
		return 0, storage("load component stock", err)
	}
	return ComputePackageStock(packageID, items, stocks)
}

// recompute persists the derived stock of one package. Packages with no
// components are left alone and reported with changed=false.
func (st stockStore) recompute(packageID string) (stock int, changed bool, err error) {
	items, err := st.pkgs.Items(packageID)
	if err != nil {
		return 0, false, storage("load package items", err)
	}
	if len(items) == 0 {
		pkg, err := st.pkgs.Get(packageID)
		if err != nil {
			return 0, false, lookup("package", err)
		}
		return pkg.Stock, false, nil
	}
	stock, err = st.computeFromItems(packageID, items)
	if err != nil {
		return 0, false, err
	}
	if err := st.pkgs.SetStock(packageID, stock); err != nil {
		return 0, false, lookup("package", err)
	}
	return stock, true, nil
}

// recomputeForProduct refreshes every package that includes productID.
// Packages left inconsistent by a missing component are skipped and logged;
// any other failure aborts.
func (st stockStore) recomputeForProduct(productID string) ([]domain.PackageStock, error) {
	ids, err := st.pkgs.ContainingProduct(productID)
	if err != nil {
		return nil, storage("find packages for product", err)
	}
	out := []domain.PackageStock{}
	for _, id := range ids {
		stock, changed, err := st.recompute(id)
		var inc *InconsistentPackageError
		if errors.As(err, &inc) {
			applog.Warn(nil, "inventory.package.inconsistent", err, map[string]any{"package": id, "product": inc.ProductID})
			continue
		}
		if err != nil {
			return nil, err
		}
		if changed {
			out = append(out, domain.PackageStock{ID: id, Stock: stock})
		}
	}
	return out, nil
}

// AvailablePackageStock reports how many units of pkg can be sold right now.
func (s *InventoryService) AvailablePackageStock(pkg domain.Package) (int, error) {
	return s.store().available(pkg)
}

// SetPackageStock handles the admin stock update. A nil stock recomputes from
// components; an explicit value is only accepted for packages without components.
func (s *InventoryService) SetPackageStock(packageID string, stock *int) (domain.PackageStock, error) {
	if stock != nil && *stock < 0 {
		return domain.PackageStock{}, invalid("stock must be zero or more")
	}
	tx, err := s.DB.Beginx()
	if err != nil {
		return domain.PackageStock{}, storage("begin", err)
	}
	defer func() { _ = tx.Rollback() }()
	st := s.txStore(tx)

	pkg, err := st.pkgs.Get(packageID)
	if err != nil {
		return domain.PackageStock{}, lookup("package", err)
	}
	items, err := st.pkgs.Items(packageID)
	if err != nil {
		return domain.PackageStock{}, storage("load package items", err)
	}

	var final int
	switch {
	case len(items) == 0 && stock == nil:
		// nothing to derive from; the manual value stands
		final = pkg.Stock
	case len(items) == 0:
		if err := st.pkgs.SetStock(packageID, *stock); err != nil {
			return domain.PackageStock{}, lookup("package", err)
		}
		final = *stock
	case stock != nil:
		return domain.PackageStock{}, invalid("stock is derived from package components and cannot be set directly")
	default:
		final, _, err = st.recompute(packageID)
		if err != nil {
			return domain.PackageStock{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.PackageStock{}, storage("commit", err)
	}
	return domain.PackageStock{ID: packageID, Stock: final}, nil
}

// SetProductStock writes a product's stock and refreshes dependent packages
// in the same transaction.
func (s *InventoryService) SetProductStock(productID string, stock int) ([]domain.PackageStock, error) {
	if stock < 0 {
		return nil, invalid("stock must be zero or more")
	}
	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, storage("begin", err)
	}
	defer func() { _ = tx.Rollback() }()
	st := s.txStore(tx)

	if err := st.prods.SetStock(productID, stock); err != nil {
		return nil, lookup("product", err)
	}
	updated, err := st.recomputeForProduct(productID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storage("commit", err)
	}
	return updated, nil
}

// DeleteProduct removes a product. Packages that listed it keep their last
// stock value until an admin fixes their components.
func (s *InventoryService) DeleteProduct(productID string) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return storage("begin", err)
	}
	defer func() { _ = tx.Rollback() }()
	st := s.txStore(tx)

	if err := st.prods.Delete(productID); err != nil {
		return lookup("product", err)
	}
	if _, err := st.recomputeForProduct(productID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storage("commit", err)
	}
	return nil
}
