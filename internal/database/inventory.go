package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"autoassist/internal/models"
)

const itemColumns = `id, name, category, quantity, threshold, unit_cost, description, created_at, updated_at`

const historyColumns = `id, item_id, delta, quantity_after, reason, note, actor_id, created_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CreateItem inserts an item with zero quantity. Quantity only changes through
// AdjustStock or CreateItemWithStock so every change lands in the history.
func (db *InventoryDB) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	return insertItem(ctx, db, item, 0, time.Now().UTC())
}

// CreateItemWithStock inserts the item and books adj as its first movement
// in one transaction. On any error nothing is written.
func (db *InventoryDB) CreateItemWithStock(
	ctx context.Context,
	item *models.InventoryItem,
	adj models.StockAdjustment,
	actorID int64,
) (*models.InventoryHistory, error) {
	if adj.Delta < 0 {
		return nil, fmt.Errorf("%w: %s has 0 on hand, cannot apply %d", ErrNegativeStock, item.Name, adj.Delta)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	if err := insertItem(ctx, tx, item, adj.Delta, now); err != nil {
		return nil, err
	}
	adj.ItemID = item.ID
	history, err := appendHistory(ctx, tx, adj, item.Quantity, actorID, now)
	if err == nil {
		err = tx.Commit()
		if err != nil {
			err = classify("commit item creation", err)
		}
	}
	if err != nil {
		item.ID, item.Quantity = 0, 0
		return nil, err
	}
	return history, nil
}

func insertItem(ctx context.Context, ex execer, item *models.InventoryItem, quantity int64, now time.Time) error {
	query := `INSERT INTO inventory_items (
				name, category, quantity, threshold, unit_cost, description, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := ex.ExecContext(ctx, query,
		item.Name, item.Category, quantity, item.Threshold, item.UnitCost, item.Description, now, now)
	if err != nil {
		return classify(fmt.Sprintf("create item %q", item.Name), err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return classify("create item", err)
	}
	item.ID = id
	item.Quantity = quantity
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func appendHistory(
	ctx context.Context,
	ex execer,
	adj models.StockAdjustment,
	quantityAfter, actorID int64,
	now time.Time,
) (*models.InventoryHistory, error) {
	history := &models.InventoryHistory{
		ItemID:        adj.ItemID,
		Delta:         adj.Delta,
		QuantityAfter: quantityAfter,
		Reason:        adj.Reason,
		Note:          adj.Note,
		ActorID:       actorID,
		CreatedAt:     now,
	}
	result, err := ex.ExecContext(ctx, `INSERT INTO inventory_history (
				item_id, delta, quantity_after, reason, note, actor_id, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		history.ItemID, history.Delta, history.QuantityAfter, history.Reason, history.Note, history.ActorID, now)
	if err != nil {
		return nil, classify("append history", err)
	}
	if history.ID, err = result.LastInsertId(); err != nil {
		return nil, classify("append history", err)
	}
	return history, nil
}

func (db *InventoryDB) GetItem(ctx context.Context, id int64) (*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = ?`
	item, err := scanItem(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify(fmt.Sprintf("get item %d", id), err)
	}
	return item, nil
}

func (db *InventoryDB) GetItemByName(ctx context.Context, name string) (*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE name = ? COLLATE NOCASE`
	item, err := scanItem(db.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, classify(fmt.Sprintf("get item %q", name), err)
	}
	return item, nil
}

func (db *InventoryDB) ListItems(ctx context.Context, filter models.ItemFilter) ([]*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items`
	var args []interface{}
	if filter.Category != "" {
		query += ` WHERE category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY category, name`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	return db.queryItems(ctx, "list items", query, args...)
}

// LowStockItems is computed on every call.
func (db *InventoryDB) LowStockItems(ctx context.Context) ([]*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items
              WHERE quantity < threshold ORDER BY (threshold - quantity) DESC, name`
	return db.queryItems(ctx, "low stock report", query)
}

// UpdateItem changes descriptive fields, never the quantity.
func (db *InventoryDB) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	query := `UPDATE inventory_items
              SET name = ?, category = ?, threshold = ?, unit_cost = ?, description = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		item.Name, item.Category, item.Threshold, item.UnitCost, item.Description, now, item.ID)
	if err != nil {
		return classify(fmt.Sprintf("update item %d", item.ID), err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return classify(fmt.Sprintf("get item %d", item.ID), sql.ErrNoRows)
	}
	item.UpdatedAt = now
	return nil
}

// AdjustStock changes the quantity and appends one history row in a single
// transaction. A change that would go below zero or overflow writes nothing.
func (db *InventoryDB) AdjustStock(
	ctx context.Context,
	adj models.StockAdjustment,
	actorID int64,
) (*models.InventoryItem, *models.InventoryHistory, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, classify("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = ?`
	item, err := scanItem(tx.QueryRowContext(ctx, query, adj.ItemID))
	if err != nil {
		return nil, nil, classify(fmt.Sprintf("get item %d", adj.ItemID), err)
	}

	if adj.Delta > 0 && item.Quantity > math.MaxInt64-adj.Delta {
		return nil, nil, fmt.Errorf("%w: %s has %d on hand, cannot add %d",
			ErrQuantityOverflow, item.Name, item.Quantity, adj.Delta)
	}
	newQuantity := item.Quantity + adj.Delta
	if newQuantity < 0 {
		return nil, nil, fmt.Errorf("%w: %s has %d on hand, cannot apply %d",
			ErrNegativeStock, item.Name, item.Quantity, adj.Delta)
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`UPDATE inventory_items SET quantity = ?, updated_at = ? WHERE id = ? AND quantity = ?`,
		newQuantity, now, item.ID, item.Quantity)
	if err != nil {
		return nil, nil, classify("update quantity", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, nil, ErrConcurrentModification
	}

	adj.ItemID = item.ID
	history, err := appendHistory(ctx, tx, adj, newQuantity, actorID, now)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, classify("commit stock adjustment", err)
	}

	item.Quantity = newQuantity
	item.UpdatedAt = now
	return item, history, nil
}

func (db *InventoryDB) ListHistory(ctx context.Context, itemID int64, limit int) ([]*models.InventoryHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM inventory_history WHERE item_id = ? ORDER BY id DESC`
	args := []interface{}{itemID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list history", err)
	}
	defer rows.Close()

	var out []*models.InventoryHistory
	for rows.Next() {
		var h models.InventoryHistory
		err := rows.Scan(&h.ID, &h.ItemID, &h.Delta, &h.QuantityAfter, &h.Reason, &h.Note, &h.ActorID, &h.CreatedAt)
		if err != nil {
			return nil, classify("list history", err)
		}
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list history", err)
	}
	return out, nil
}

func (db *InventoryDB) queryItems(ctx context.Context, op, query string, args ...interface{}) ([]*models.InventoryItem, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var items []*models.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return items, nil
}

func scanItem(row rowScanner) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := row.Scan(
		&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Threshold,
		&item.UnitCost, &item.Description, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
