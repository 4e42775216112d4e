package model

type WorkPlanView struct {
	ID              string    `json:"id"`
	LineID          string    `json:"lineId"`
	StrDate         string    `json:"strDate"`
	Week            int       `json:"week"`
	PlannedHours    float64   `json:"plannedHours"`
	TargetOEE       float64   `json:"targetOee"`
	StartHour       int       `json:"startHour"`
	EndHour         int       `json:"endHour"`
	HeadCount       int       `json:"headCount"`
	UPHMeta         float64   `json:"uphMeta"`
	Commit          float64   `json:"commit"`
	CommitFull      float64   `json:"commitFull"`
	TargetCycleTime float64   `json:"targetCycleTime"`
	Platform        *Platform `json:"platform"`
}

type LineView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

type FactoryWithLines struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Lines []*LineView `json:"lines"`
}

type OperationsAndAreas struct {
	Operations []*Operation `json:"operations"`
	Areas      []*Area      `json:"areas"`
}
