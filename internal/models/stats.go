package models

// DashboardStats - сводка по всем ссылкам пользователя.
// ConversionRate здесь - выручка на клик в процентах, а не доля покупок.
type DashboardStats struct {
	TotalLinks      int64   `json:"total_links"`
	TotalClicks     int64   `json:"total_clicks"`
	TotalRevenue    float64 `json:"total_revenue"`
	ActiveCampaigns int64   `json:"active_campaigns"`
	ConversionRate  float64 `json:"conversion_rate"`
}
