package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/greenledger/produce-costing-backend/internal/domain/costing"
)

// Storage provides SQLite database access for products, sales, costs, and
// allocations. It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// --- products ---

// CreateProduct inserts a product. The product's ID and timestamps are set
// on success.
func (s *Storage) CreateProduct(p *costing.Product) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO products (name, source, unit, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.Name, string(p.Source), p.Unit, p.Active, now, now)
	if err != nil {
		return fmt.Errorf("failed to create product %q: %w", p.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetProduct retrieves a product by ID. Returns nil when not found.
func (s *Storage) GetProduct(id int64) (*costing.Product, error) {
	return s.scanProduct(s.db.QueryRow(`
		SELECT id, name, source, unit, active, created_at, updated_at
		FROM products WHERE id = ?
	`, id))
}

// GetProductByName retrieves a product by name. Returns nil when not found.
func (s *Storage) GetProductByName(name string) (*costing.Product, error) {
	return s.scanProduct(s.db.QueryRow(`
		SELECT id, name, source, unit, active, created_at, updated_at
		FROM products WHERE name = ?
	`, name))
}

func (s *Storage) scanProduct(row *sql.Row) (*costing.Product, error) {
	var p costing.Product
	var source string
	err := row.Scan(&p.ID, &p.Name, &source, &p.Unit, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Source = costing.Source(source)
	return &p, nil
}

// ListProducts returns products ordered by name.
func (s *Storage) ListProducts(activeOnly bool) ([]costing.Product, error) {
	query := `
		SELECT id, name, source, unit, active, created_at, updated_at
		FROM products
	`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []costing.Product
	for rows.Next() {
		var p costing.Product
		var source string
		if err := rows.Scan(&p.ID, &p.Name, &source, &p.Unit, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Source = costing.Source(source)
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct updates a product's mutable fields.
func (s *Storage) UpdateProduct(p *costing.Product) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`
		UPDATE products SET name = ?, source = ?, unit = ?, active = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, string(p.Source), p.Unit, p.Active, now, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}
	p.UpdatedAt = now
	return nil
}

// DeactivateProduct soft-deletes a product.
func (s *Storage) DeactivateProduct(id int64) error {
	_, err := s.db.Exec(`
		UPDATE products SET active = 0, updated_at = ? WHERE id = ?
	`, time.Now().UTC(), id)
	return err
}

// --- sales ---

const saleColumns = `id, product_id, period, outward_qty, outward_rate, direct_cost,
	inward_qty, inward_rate, inward_value, inhouse_production, wastage, created_at`

// CreateSale inserts a sale record and sets its ID.
func (s *Storage) CreateSale(rec *costing.SaleRecord) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO sales (product_id, period, outward_qty, outward_rate, direct_cost,
			inward_qty, inward_rate, inward_value, inhouse_production, wastage, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ProductID, rec.Period, rec.OutwardQty, rec.OutwardRate, rec.DirectCost,
		rec.InwardQty, rec.InwardRate, rec.InwardValue, rec.InHouseProduction, rec.Wastage, now)
	if err != nil {
		return fmt.Errorf("failed to create sale for product %d in %s: %w", rec.ProductID, rec.Period, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	rec.CreatedAt = now
	return nil
}

// GetSale retrieves a sale by ID. Returns nil when not found.
func (s *Storage) GetSale(id int64) (*costing.SaleRecord, error) {
	return s.scanSale(s.db.QueryRow(`SELECT `+saleColumns+` FROM sales WHERE id = ?`, id))
}

// GetSaleByProductPeriod retrieves the sale for a product/period pair.
// Returns nil when absent.
func (s *Storage) GetSaleByProductPeriod(productID int64, period string) (*costing.SaleRecord, error) {
	return s.scanSale(s.db.QueryRow(`
		SELECT `+saleColumns+` FROM sales WHERE product_id = ? AND period = ?
	`, productID, period))
}

func (s *Storage) scanSale(row *sql.Row) (*costing.SaleRecord, error) {
	var rec costing.SaleRecord
	err := row.Scan(&rec.ID, &rec.ProductID, &rec.Period, &rec.OutwardQty, &rec.OutwardRate,
		&rec.DirectCost, &rec.InwardQty, &rec.InwardRate, &rec.InwardValue,
		&rec.InHouseProduction, &rec.Wastage, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListSales returns the sale records in scope.
func (s *Storage) ListSales(scope costing.Scope) ([]costing.SaleRecord, error) {
	query := `SELECT ` + saleColumns + ` FROM sales`
	var args []any
	if !scope.AllTime {
		query += ` WHERE period = ?`
		args = append(args, scope.Period)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []costing.SaleRecord
	for rows.Next() {
		var rec costing.SaleRecord
		if err := rows.Scan(&rec.ID, &rec.ProductID, &rec.Period, &rec.OutwardQty, &rec.OutwardRate,
			&rec.DirectCost, &rec.InwardQty, &rec.InwardRate, &rec.InwardValue,
			&rec.InHouseProduction, &rec.Wastage, &rec.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, rec)
	}
	return sales, rows.Err()
}

// UpdateSale updates a sale's quantities, rates, and derived figures.
func (s *Storage) UpdateSale(rec *costing.SaleRecord) error {
	_, err := s.db.Exec(`
		UPDATE sales SET outward_qty = ?, outward_rate = ?, direct_cost = ?,
			inward_qty = ?, inward_rate = ?, inward_value = ?,
			inhouse_production = ?, wastage = ?
		WHERE id = ?
	`, rec.OutwardQty, rec.OutwardRate, rec.DirectCost,
		rec.InwardQty, rec.InwardRate, rec.InwardValue,
		rec.InHouseProduction, rec.Wastage, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update sale %d: %w", rec.ID, err)
	}
	return nil
}

// --- costs ---

const costColumns = `id, name, amount, applies_to, basis, category, period,
	origin_amount, split_ratio, source_tag, created_at`

// CreateCost inserts a cost and sets its ID.
func (s *Storage) CreateCost(c *costing.Cost) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO costs (name, amount, applies_to, basis, category, period,
			origin_amount, split_ratio, source_tag, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Name, c.Amount, string(c.AppliesTo), string(c.Basis), c.Category, c.Period,
		c.OriginAmount, c.SplitRatio, c.SourceTag, now)
	if err != nil {
		return fmt.Errorf("failed to create cost %q: %w", c.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}

// GetCost retrieves a cost by ID. Returns nil when not found.
func (s *Storage) GetCost(id int64) (*costing.Cost, error) {
	var c costing.Cost
	var appliesTo, basis string
	err := s.db.QueryRow(`SELECT `+costColumns+` FROM costs WHERE id = ?`, id).Scan(
		&c.ID, &c.Name, &c.Amount, &appliesTo, &basis, &c.Category, &c.Period,
		&c.OriginAmount, &c.SplitRatio, &c.SourceTag, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.AppliesTo = costing.AppliesTo(appliesTo)
	c.Basis = costing.Basis(basis)
	return &c, nil
}

// ListCosts returns the costs in scope.
func (s *Storage) ListCosts(scope costing.Scope) ([]costing.Cost, error) {
	query := `SELECT ` + costColumns + ` FROM costs`
	var args []any
	if !scope.AllTime {
		query += ` WHERE period = ?`
		args = append(args, scope.Period)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var costs []costing.Cost
	for rows.Next() {
		var c costing.Cost
		var appliesTo, basis string
		if err := rows.Scan(&c.ID, &c.Name, &c.Amount, &appliesTo, &basis, &c.Category, &c.Period,
			&c.OriginAmount, &c.SplitRatio, &c.SourceTag, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.AppliesTo = costing.AppliesTo(appliesTo)
		c.Basis = costing.Basis(basis)
		costs = append(costs, c)
	}
	return costs, rows.Err()
}

// UpdateCost updates a cost's fields.
func (s *Storage) UpdateCost(c *costing.Cost) error {
	_, err := s.db.Exec(`
		UPDATE costs SET name = ?, amount = ?, applies_to = ?, basis = ?, category = ?, period = ?
		WHERE id = ?
	`, c.Name, c.Amount, string(c.AppliesTo), string(c.Basis), c.Category, c.Period, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update cost %d: %w", c.ID, err)
	}
	return nil
}

// DeleteCost removes a cost.
func (s *Storage) DeleteCost(id int64) error {
	_, err := s.db.Exec(`DELETE FROM costs WHERE id = ?`, id)
	return err
}

// --- allocations ---

// ReplaceAllocations clears the scope's allocation rows and inserts the new
// set inside one transaction. A failure at any point rolls back the whole
// replacement, leaving the previous set intact.
func (s *Storage) ReplaceAllocations(scope costing.Scope, allocations []costing.Allocation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin allocation transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM allocations WHERE scope_key = ?`, scope.Key()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to clear allocations for %s: %w", scope.Key(), err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO allocations (product_id, sale_id, cost_id, scope_key, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range allocations {
		a := &allocations[i]
		if _, err := stmt.Exec(a.ProductID, a.SaleID, a.CostID, scope.Key(), a.Amount, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert allocation for product %d: %w", a.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit allocations for %s: %w", scope.Key(), err)
	}
	return nil
}

// ListAllocations returns the allocations currently owned by the scope.
func (s *Storage) ListAllocations(scope costing.Scope) ([]costing.Allocation, error) {
	rows, err := s.db.Query(`
		SELECT id, product_id, sale_id, cost_id, scope_key, amount
		FROM allocations WHERE scope_key = ? ORDER BY id
	`, scope.Key())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []costing.Allocation
	for rows.Next() {
		var a costing.Allocation
		if err := rows.Scan(&a.ID, &a.ProductID, &a.SaleID, &a.CostID, &a.ScopeKey, &a.Amount); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

// --- runs ---

// SaveRun inserts or updates an allocation run record.
func (s *Storage) SaveRun(run *AllocationRun) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO allocation_runs
		(id, scope_key, period, all_time, cost_count, sale_count,
		 allocation_count, unallocated_count, status, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.ScopeKey, run.Period, run.AllTime, run.CostCount, run.SaleCount,
		run.AllocationCount, run.UnallocatedCount, run.Status, run.Error,
		run.StartedAt, run.CompletedAt)
	return err
}

// ListRuns returns the most recent allocation runs, newest first.
func (s *Storage) ListRuns(limit int) ([]AllocationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, scope_key, period, all_time, cost_count, sale_count,
		       allocation_count, unallocated_count, status, error, started_at, completed_at
		FROM allocation_runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []AllocationRun
	for rows.Next() {
		var r AllocationRun
		if err := rows.Scan(&r.ID, &r.ScopeKey, &r.Period, &r.AllTime, &r.CostCount, &r.SaleCount,
			&r.AllocationCount, &r.UnallocatedCount, &r.Status, &r.Error,
			&r.StartedAt, &r.CompletedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
