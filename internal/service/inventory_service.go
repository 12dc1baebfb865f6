package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"autoassist/internal/domain"
	"autoassist/internal/events"
	"autoassist/internal/metrics"
	"autoassist/internal/models"
	"autoassist/internal/spreadsheet"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type InventoryService struct {
	repo       domain.InventoryRepository
	advisor    domain.Advisor
	enrich     bool
	maxRecords int
	eventBus   domain.EventPublisher
	logger     *zerolog.Logger
}

// NewInventoryService wires inventory operations. advisor may be nil; enrich
// controls whether low stock triggers a restock recommendation.
func NewInventoryService(
	repo domain.InventoryRepository,
	advisor domain.Advisor,
	enrich bool,
	maxRecords int,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *InventoryService {
	if maxRecords <= 0 {
		maxRecords = models.MaxImportRecords
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &InventoryService{
		repo:       repo,
		advisor:    advisor,
		enrich:     enrich,
		maxRecords: maxRecords,
		eventBus:   eventBus,
		logger:     logger,
	}
}

func (s *InventoryService) MaxImportRecords() int {
	return s.maxRecords
}

// CreateItem adds an item. A positive initialQuantity is booked as a restock
// so it shows up in the history.
func (s *InventoryService) CreateItem(ctx context.Context, actor domain.Actor, item *models.InventoryItem, initialQuantity int64) (*models.InventoryItem, error) {
	if err := actor.RequireManager("creating inventory items"); err != nil {
		return nil, err
	}
	if err := normalizeItem(item); err != nil {
		return nil, err
	}
	if initialQuantity < 0 {
		return nil, domain.Validation("initial quantity must not be negative")
	}

	if initialQuantity == 0 {
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, err
		}
		s.logger.Info().Int64("item_id", item.ID).Str("name", item.Name).Msg("inventory item created")
		return item, nil
	}

	outcome, err := s.createWithStock(ctx, actor, item, models.StockAdjustment{
		Delta:  initialQuantity,
		Reason: models.ReasonRestocked,
		Note:   "initial stock",
	})
	if err != nil {
		return nil, err
	}
	return outcome.Item, nil
}

// createWithStock inserts item together with its first stock movement.
func (s *InventoryService) createWithStock(ctx context.Context, actor domain.Actor, item *models.InventoryItem, adj models.StockAdjustment) (*models.StockOutcome, error) {
	adj.Note = strings.TrimSpace(adj.Note)
	if err := validateAdjustment(adj); err != nil {
		metrics.IncStockAdjustment(string(adj.Reason), "rejected")
		return nil, err
	}

	history, err := s.repo.CreateItemWithStock(ctx, item, adj, actor.UserID)
	if err != nil {
		metrics.IncStockAdjustment(string(adj.Reason), "rejected")
		return nil, err
	}
	metrics.IncStockAdjustment(string(adj.Reason), "ok")
	s.logger.Info().Int64("item_id", item.ID).Str("name", item.Name).
		Int64("quantity", item.Quantity).Msg("inventory item created")

	adj.ItemID = item.ID
	return s.afterAdjust(ctx, actor, adj, item, history, false), nil
}

func normalizeItem(item *models.InventoryItem) error {
	if item == nil {
		return domain.Validation("item is required")
	}
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	item.Description = strings.TrimSpace(item.Description)
	if item.Name == "" {
		return domain.Validation("item name is required")
	}
	if item.Category == "" {
		return domain.Validation("item category is required")
	}
	if item.Threshold < 0 {
		return domain.Validation("threshold must not be negative")
	}
	if item.UnitCost.IsNegative() {
		return domain.Validation("unit cost must not be negative")
	}
	item.UnitCost = item.UnitCost.Round(2)
	return nil
}

func (s *InventoryService) GetItem(ctx context.Context, id int64) (*models.InventoryItem, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *InventoryService) ListItems(ctx context.Context, filter models.ItemFilter) ([]*models.InventoryItem, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	if filter.Limit < 0 {
		filter.Limit = 0
	}
	return s.repo.ListItems(ctx, filter)
}

// UpdateItem changes descriptive fields. Quantity is ignored.
func (s *InventoryService) UpdateItem(ctx context.Context, actor domain.Actor, item *models.InventoryItem) (*models.InventoryItem, error) {
	if err := actor.RequireManager("updating inventory items"); err != nil {
		return nil, err
	}
	if err := normalizeItem(item); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return s.repo.GetItem(ctx, item.ID)
}

func (s *InventoryService) AdjustStock(ctx context.Context, actor domain.Actor, adj models.StockAdjustment) (*models.StockOutcome, error) {
	if err := actor.RequireManager("adjusting stock"); err != nil {
		return nil, err
	}
	return s.adjust(ctx, actor, adj, s.enrich)
}

func validateAdjustment(adj models.StockAdjustment) error {
	if adj.Delta == 0 {
		return domain.Validation("quantity change must not be zero")
	}
	if !adj.Reason.Valid() {
		return domain.Validation("unknown reason %q", adj.Reason)
	}
	if !adj.Reason.AllowsDelta(adj.Delta) {
		return domain.Validation("reason %s does not allow a change of %d", adj.Reason, adj.Delta)
	}
	return nil
}

func (s *InventoryService) adjust(ctx context.Context, actor domain.Actor, adj models.StockAdjustment, advise bool) (*models.StockOutcome, error) {
	adj.Note = strings.TrimSpace(adj.Note)
	if err := validateAdjustment(adj); err != nil {
		metrics.IncStockAdjustment(string(adj.Reason), "rejected")
		return nil, err
	}

	item, history, err := s.repo.AdjustStock(ctx, adj, actor.UserID)
	if err != nil {
		metrics.IncStockAdjustment(string(adj.Reason), "rejected")
		return nil, err
	}
	metrics.IncStockAdjustment(string(adj.Reason), "ok")
	return s.afterAdjust(ctx, actor, adj, item, history, advise), nil
}

// afterAdjust logs and publishes a committed movement and asks for restock
// advice when the item is now below its threshold.
func (s *InventoryService) afterAdjust(
	ctx context.Context,
	actor domain.Actor,
	adj models.StockAdjustment,
	item *models.InventoryItem,
	history *models.InventoryHistory,
	advise bool,
) *models.StockOutcome {
	s.logger.Info().
		Int64("item_id", item.ID).
		Int64("delta", adj.Delta).
		Int64("quantity", item.Quantity).
		Str("reason", string(adj.Reason)).
		Int64("actor_id", actor.UserID).
		Msg("stock adjusted")

	payload := events.StockEventPayload{
		ItemID:        item.ID,
		ItemName:      item.Name,
		Delta:         adj.Delta,
		QuantityAfter: item.Quantity,
		Threshold:     item.Threshold,
		Reason:        string(adj.Reason),
		ActorID:       actor.UserID,
	}
	s.publishEvent(events.EventStockAdjusted, payload)

	outcome := &models.StockOutcome{Item: item, History: history, LowStock: item.LowStock()}
	if !outcome.LowStock {
		return outcome
	}

	s.logger.Warn().Int64("item_id", item.ID).Str("name", item.Name).
		Int64("quantity", item.Quantity).Int64("threshold", item.Threshold).Msg("item below threshold")
	s.publishEvent(events.EventLowStock, payload)

	if advise && s.advisor != nil && s.advisor.Enabled() {
		advice, err := s.advisor.RestockAdvice(ctx, item)
		if err != nil {
			outcome.Warnings = append(outcome.Warnings, "restock advice is unavailable right now")
		} else {
			outcome.Advice = advice
		}
	}
	return outcome
}

// BulkImport applies every record independently and reports per-record results.
func (s *InventoryService) BulkImport(ctx context.Context, actor domain.Actor, records []models.ImportRecord) (*models.ImportReport, error) {
	if err := actor.RequireManager("importing inventory"); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.Validation("import contains no records")
	}
	if len(records) > s.maxRecords {
		return nil, domain.Validation("import has %d records, the limit is %d", len(records), s.maxRecords)
	}

	report := &models.ImportReport{Results: make([]models.ImportResult, 0, len(records))}
	for i, rec := range records {
		result := models.ImportResult{Index: i, Item: importLabel(rec)}

		created, err := s.importOne(ctx, actor, rec)
		if err != nil {
			if !domain.IsUserFacing(err) {
				s.logger.Error().Err(err).Int("index", i).Msg("import record failed")
				err = errors.New("internal error")
			}
			result.Error = err.Error()
			report.ErrorCount++
		} else {
			result.Success = true
			result.Created = created
			report.SuccessCount++
		}
		report.Results = append(report.Results, result)
	}

	s.logger.Info().Int("success", report.SuccessCount).Int("errors", report.ErrorCount).Msg("bulk import finished")
	return report, nil
}

func importLabel(rec models.ImportRecord) string {
	if name := strings.TrimSpace(rec.Name); name != "" {
		return name
	}
	if rec.ItemID > 0 {
		return "#" + strconv.FormatInt(rec.ItemID, 10)
	}
	return ""
}

func (s *InventoryService) importOne(ctx context.Context, actor domain.Actor, rec models.ImportRecord) (bool, error) {
	reason, err := importReason(rec)
	if err != nil {
		return false, err
	}

	adj := models.StockAdjustment{Delta: rec.Delta, Reason: reason, Note: "bulk import"}

	item, err := s.resolveItem(ctx, rec)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound) && rec.ItemID == 0:
		return s.importNewItem(ctx, actor, rec, adj)
	default:
		return false, err
	}

	adj.ItemID = item.ID
	_, err = s.adjust(ctx, actor, adj, false)
	return false, err
}

// importNewItem creates the item named by rec. The item and its first
// movement are written together or not at all.
func (s *InventoryService) importNewItem(ctx context.Context, actor domain.Actor, rec models.ImportRecord, adj models.StockAdjustment) (bool, error) {
	item, err := itemFromRecord(rec)
	if err != nil {
		return false, err
	}
	if adj.Delta == 0 {
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return false, err
		}
		s.logger.Info().Int64("item_id", item.ID).Str("name", item.Name).Msg("inventory item created")
		return true, nil
	}
	if _, err := s.createWithStock(ctx, actor, item, adj); err != nil {
		return false, err
	}
	return true, nil
}

func importReason(rec models.ImportRecord) (models.StockReason, error) {
	if strings.TrimSpace(rec.Reason) == "" {
		if rec.Delta < 0 {
			return models.ReasonUsed, nil
		}
		return models.ReasonRestocked, nil
	}
	reason, ok := models.ParseStockReason(rec.Reason)
	if !ok {
		return "", domain.Validation("unknown reason %q", rec.Reason)
	}
	return reason, nil
}

func (s *InventoryService) resolveItem(ctx context.Context, rec models.ImportRecord) (*models.InventoryItem, error) {
	if rec.ItemID > 0 {
		return s.repo.GetItem(ctx, rec.ItemID)
	}
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return nil, domain.Validation("record needs an item id or name")
	}
	return s.repo.GetItemByName(ctx, name)
}

func itemFromRecord(rec models.ImportRecord) (*models.InventoryItem, error) {
	if strings.TrimSpace(rec.Category) == "" {
		return nil, domain.Validation("unknown item %q; a category is required to create it", rec.Name)
	}
	if rec.UnitCost == nil {
		return nil, domain.Validation("unknown item %q; a price is required to create it", rec.Name)
	}
	item := &models.InventoryItem{
		Name:        rec.Name,
		Category:    rec.Category,
		UnitCost:    *rec.UnitCost,
		Description: rec.Description,
	}
	if rec.Threshold != nil {
		item.Threshold = *rec.Threshold
	}
	if err := normalizeItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *InventoryService) History(ctx context.Context, itemID int64, limit int) ([]*models.InventoryHistory, error) {
	if _, err := s.repo.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > models.DefaultListLimit {
		limit = models.DefaultListLimit
	}
	return s.repo.ListHistory(ctx, itemID, limit)
}

// LowStockReport lists items below their threshold, computed on demand.
func (s *InventoryService) LowStockReport(ctx context.Context) ([]*models.InventoryItem, error) {
	items, err := s.repo.LowStockItems(ctx)
	if err != nil {
		return nil, err
	}
	metrics.SetLowStockItems(len(items))
	return items, nil
}

func (s *InventoryService) Summary(ctx context.Context) (*models.InventorySummary, error) {
	items, err := s.repo.ListItems(ctx, models.ItemFilter{})
	if err != nil {
		return nil, err
	}

	summary := &models.InventorySummary{
		StockValue: decimal.Zero,
		ByCategory: make(map[string]models.CategorySummary),
	}
	for _, item := range items {
		value := item.StockValue()
		summary.Items++
		summary.Units += item.Quantity
		summary.StockValue = summary.StockValue.Add(value)
		if item.LowStock() {
			summary.LowStockCount++
		}

		cat := summary.ByCategory[item.Category]
		cat.Items++
		cat.Units += item.Quantity
		cat.StockValue = cat.StockValue.Add(value)
		summary.ByCategory[item.Category] = cat
	}
	metrics.SetLowStockItems(summary.LowStockCount)
	return summary, nil
}

// ExportXLSX writes the whole inventory as a workbook.
func (s *InventoryService) ExportXLSX(ctx context.Context, w io.Writer) error {
	items, err := s.repo.ListItems(ctx, models.ItemFilter{})
	if err != nil {
		return err
	}
	return spreadsheet.WriteInventory(w, items, time.Now())
}

func (s *InventoryService) publishEvent(eventType string, payload events.StockEventPayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("item_id", payload.ItemID).Msg("publish event error")
	}
}
