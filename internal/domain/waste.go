package domain

// WastageRecord is one row of the FAO food loss dataset.
type WastageRecord struct {
	Commodity       string  `json:"commodity"`
	LossPercentage  float64 `json:"loss_percentage"`
	Activity        string  `json:"activity"`
	FoodSupplyStage string  `json:"food_supply_stage"`
	Treatment       string  `json:"treatment"`
}

// CommodityLoss is the mean loss of one commodity across the dataset.
type CommodityLoss struct {
	Commodity      string  `json:"commodity"`
	LossPercentage float64 `json:"loss_percentage"`
}

// WasteStep describes one stage of the global waste transformation.
type WasteStep struct {
	Step        string          `json:"step"`
	Description string          `json:"description"`
	Rows        int             `json:"rows,omitempty"`
	Top         []CommodityLoss `json:"top,omitempty"`
}

// ShelfLifeEntry is one row of the shelf-life reference table.
type ShelfLifeEntry struct {
	Item string `json:"item"`
	Days int    `json:"days"`
}
