package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"autoassist/internal/domain"
	"autoassist/internal/models"
	"autoassist/internal/spreadsheet"

	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createItemRequest struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Quantity    int64           `json:"quantity"`
	Threshold   int64           `json:"threshold"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Description string          `json:"description"`
}

type updateItemRequest struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Threshold   *int64           `json:"threshold"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
	Description *string          `json:"description"`
}

type adjustRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	var req createItemRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	item := &models.InventoryItem{
		Name:        req.Name,
		Category:    req.Category,
		Threshold:   req.Threshold,
		UnitCost:    req.UnitCost,
		Description: req.Description,
	}
	created, err := s.svc.Inventory.CreateItem(r.Context(), actor, item, req.Quantity)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request, _ domain.Actor) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.svc.Inventory.ListItems(r.Context(), models.ItemFilter{
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if items == nil {
		items = []*models.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request, _ domain.Actor) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.svc.Inventory.GetItem(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req updateItemRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	item, err := s.svc.Inventory.GetItem(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Threshold != nil {
		item.Threshold = *req.Threshold
	}
	if req.UnitCost != nil {
		item.UnitCost = *req.UnitCost
	}
	if req.Description != nil {
		item.Description = *req.Description
	}

	updated, err := s.svc.Inventory.UpdateItem(r.Context(), actor, item)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAdjustStock(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req adjustRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	reason, ok := models.ParseStockReason(req.Reason)
	if !ok {
		s.fail(w, r, domain.Validation("unknown reason %q", req.Reason))
		return
	}

	outcome, err := s.svc.Inventory.AdjustStock(r.Context(), actor, models.StockAdjustment{
		ItemID: id,
		Delta:  req.Delta,
		Reason: reason,
		Note:   req.Note,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, _ domain.Actor) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	history, err := s.svc.Inventory.History(r.Context(), id, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if history == nil {
		history = []*models.InventoryHistory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// handleImport accepts a raw CSV or XLSX body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	body := http.MaxBytesReader(w, r.Body, s.opts.ImportMaxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.fail(w, r, domain.Validation("import file exceeds %d bytes", maxErr.Limit))
			return
		}
		s.fail(w, r, domain.Validation("cannot read import file: %v", err))
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		s.fail(w, r, domain.Validation("import file is empty"))
		return
	}

	records, err := spreadsheet.ReadRecords(data, s.opts.MaxImportRecords)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	report, err := s.svc.Inventory.BulkImport(r.Context(), actor, records)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request, _ domain.Actor) {
	items, err := s.svc.Inventory.LowStockReport(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if items == nil {
		items = []*models.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleInventorySummary(w http.ResponseWriter, r *http.Request, _ domain.Actor) {
	summary, err := s.svc.Inventory.Summary(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleExport buffers the workbook so a failure can still produce a JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, _ domain.Actor) {
	var buf bytes.Buffer
	if err := s.svc.Inventory.ExportXLSX(r.Context(), &buf); err != nil {
		s.fail(w, r, err)
		return
	}
	filename := "inventory_" + time.Now().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
