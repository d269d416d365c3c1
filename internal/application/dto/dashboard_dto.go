package dto

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary (tarjetas del dashboard).
type DashboardSummaryDTO struct {
	TotalProducts     int `json:"total_products"`
	LowStockItems     int `json:"low_stock_items"` // productos con existencia total bajo el umbral
	PendingReceipts   int `json:"pending_receipts"`
	PendingDeliveries int `json:"pending_deliveries"`
	LowStockThreshold int `json:"low_stock_threshold"`
}
