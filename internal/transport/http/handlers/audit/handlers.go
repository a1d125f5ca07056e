package audithandler

import (
	"log/slog"
	"net/http"

	"github.com/jung-kurt/gofpdf"

	"staffcore/internal/domain/audit"
	"staffcore/internal/requestctx"
	"staffcore/internal/transport/http/api"
	"staffcore/internal/transport/http/shared"
)

type Handler struct {
	Audit *audit.Service
}

func NewHandler(auditSvc *audit.Service) *Handler {
	return &Handler{Audit: auditSvc}
}

func filterFromQuery(r *http.Request) audit.Filter {
	return audit.Filter{
		AdminID: r.URL.Query().Get("adminId"),
		Action:  r.URL.Query().Get("action"),
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	filter := filterFromQuery(r)
	page := shared.ParsePagination(r, 50, 500)

	total, err := h.Audit.Count(r.Context(), filter)
	if err != nil {
		slog.Error("count audit entries failed", "err", err)
		api.ServerError(w, requestID)
		return
	}
	entries, err := h.Audit.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		slog.Error("list audit entries failed", "err", err)
		api.ServerError(w, requestID)
		return
	}

	api.Success(w, map[string]any{
		"total":   total,
		"entries": entries,
	}, requestID)
}

func (h *Handler) HandleListIncidents(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 500)

	incidents, err := h.Audit.ListIncidents(r.Context(), page.Limit, page.Offset)
	if err != nil {
		slog.Error("list incidents failed", "err", err)
		api.ServerError(w, requestID)
		return
	}
	api.Success(w, incidents, requestID)
}

// HandleExportPDF streams the audit trail as a PDF document.
func (h *Handler) HandleExportPDF(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	entries, err := h.Audit.ListExport(r.Context(), filterFromQuery(r))
	if err != nil {
		slog.Error("export audit entries failed", "err", err)
		api.ServerError(w, requestID)
		return
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Audit Trail")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 9)
	widths := []float64{35, 45, 30, 35, 130}
	headers := []string{"Timestamp", "Admin", "Role", "Action", "Details"}
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, entry := range entries {
		cols := []string{
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			entry.AdminID,
			entry.Role,
			entry.Action,
			truncate(entry.Details, 110),
		}
		for i, col := range cols {
			pdf.CellFormat(widths[i], 6, col, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-trail.pdf"`)
	if err := pdf.Output(w); err != nil {
		slog.Warn("write audit pdf failed", "err", err)
	}
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
