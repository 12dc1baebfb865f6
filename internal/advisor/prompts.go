package advisor

import (
	"fmt"
	"sort"
	"strings"

	"autoassist/internal/models"
)

const (
	KindRecommend = "recommend"
	KindDiagnose  = "diagnose"
	KindStaff     = "staff"
	KindRestock   = "restock"
	KindChat      = "chat"
)

const systemPreamble = `You are an automotive service expert assistant for a vehicle service centre.
Answer in short bullet points, one per line, with a blank line between them.`

func recommendPrompt(sc models.ServiceContext) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\nBased on the following vehicle and booked service, give service recommendations.\n\n")
	fmt.Fprintf(&b, "Vehicle Type: %s\n", sc.VehicleType)
	writeIf(&b, "Vehicle Model", sc.VehicleModel)
	fmt.Fprintf(&b, "Service Category: %s\n", sc.ServiceCategory)
	fmt.Fprintf(&b, "Service Type: %s\n", sc.ServiceType)
	writeIf(&b, "Customer Notes", sc.Notes)
	b.WriteString("\nSections:\nRecommended Maintenance\nCommon Issues to Watch\nPreventive Tips\n")
	return b.String()
}

func diagnosePrompt(req models.DiagnosisRequest) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\nBased on the following symptoms and vehicle details, give diagnostic insights.\n\n")
	fmt.Fprintf(&b, "Symptoms: %s\n", req.Symptoms)
	writeIf(&b, "Vehicle Type", req.VehicleType)
	writeIf(&b, "Vehicle Model", req.VehicleModel)
	if req.Mileage > 0 {
		fmt.Fprintf(&b, "Mileage: %d km\n", req.Mileage)
	}
	b.WriteString("\nSections:\nLikely Causes\nSeverity Assessment (Level: Low/Medium/High, Immediate Action Required: Yes/No)\nRecommended Actions\nSafety Considerations\n")
	return b.String()
}

func staffPrompt(task models.StaffTask) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\nAs a service centre staff assistant, give guidance for this task.\n\n")
	fmt.Fprintf(&b, "Task: %s\n", task.Task)

	keys := make([]string, 0, len(task.Details))
	for k := range task.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, task.Details[k])
	}
	b.WriteString("\nSections:\nStep-by-Step Guidance\nBest Practices\nCommon Pitfalls\nQuality Check Points\n")
	return b.String()
}

func restockPrompt(item *models.InventoryItem) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\nAn inventory item is below its reorder threshold. Suggest reorder quantity and timing.\n\n")
	fmt.Fprintf(&b, "Item: %s\n", item.Name)
	fmt.Fprintf(&b, "Category: %s\n", item.Category)
	fmt.Fprintf(&b, "Current Stock: %d\n", item.Quantity)
	fmt.Fprintf(&b, "Minimum Stock: %d\n", item.Threshold)
	fmt.Fprintf(&b, "Unit Price: %s\n", item.UnitCost.StringFixed(2))
	return b.String()
}

func writeIf(b *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}
