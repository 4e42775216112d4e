package model

import "time"

type AreaView struct {
	ID      string `json:"id"`
	Index   int64  `json:"index"`
	Name    string `json:"name"`
	Section string `json:"section"`
}

type StationView struct {
	ID             string    `json:"id"`
	Index          int       `json:"index"`
	OperationID    string    `json:"operationId"`
	OperationLabel string    `json:"operationLabel"`
	OperationName  string    `json:"operationName"`
	IsAutomatic    bool      `json:"isAutomatic"`
	Area           *AreaView `json:"area"`
}

// ReconciledStation is the merged cycle-time series of one station across
// every take of a study.
type ReconciledStation struct {
	// ID is the id of the baseline record of the station.
	ID         string       `json:"id"`
	Index      int          `json:"index"`
	HasUpdated bool         `json:"hasUpdated"`
	BaseCT     float64      `json:"baseCt"`
	AllCT      []float64    `json:"allCt"`
	LastCT     float64      `json:"lastCt"`
	StationID  string       `json:"stationId"`
	Area       *AreaView    `json:"area"`
	Station    *StationView `json:"station"`
}

type BottleneckResult struct {
	Section string             `json:"section"`
	Station *ReconciledStation `json:"station"`

	// TargetCycleTime is the cycle time required by the work plan of the latest
	// take, 0 when it could not be computed.
	TargetCycleTime float64 `json:"targetCycleTime"`
	TargetChecked   bool    `json:"targetChecked"`
	MeetsTarget     bool    `json:"meetsTarget"`
}

type Targets struct {
	TargetUPH       float64 `json:"targetUph"`
	Commit          float64 `json:"commit"`
	TargetCycleTime float64 `json:"targetCycleTime"`
}

type RecordView struct {
	ID            string    `json:"id"`
	StationID     string    `json:"stationId"`
	CycleTime     []float64 `json:"cycleTime"`
	MeanCycleTime float64   `json:"meanCycleTime"`
}

type TakeView struct {
	ID         string        `json:"id"`
	WorkPlanID string        `json:"workPlanId"`
	UserID     string        `json:"userId"`
	CreatedAt  time.Time     `json:"createdAt"`
	Records    []*RecordView `json:"records"`
}

type LayoutSummary struct {
	ID          string         `json:"id"`
	Version     int            `json:"version"`
	IsActive    bool           `json:"isActive"`
	LineID      string         `json:"lineId"`
	LineName    string         `json:"lineName"`
	FactoryID   string         `json:"factoryId"`
	FactoryName string         `json:"factoryName"`
	Username    string         `json:"username,omitempty"`
	Stations    []*StationView `json:"stations"`
}

type ReconciledStudyView struct {
	ID          string               `json:"id"`
	StrDate     string               `json:"strDate"`
	Week        int                  `json:"week"`
	UserID      string               `json:"userId"`
	CreatedAt   time.Time            `json:"createdAt"`
	Layout      *LayoutSummary       `json:"layout"`
	Takes       []*TakeView          `json:"takes"`
	Records     []*ReconciledStation `json:"records"`
	Bottlenecks []*BottleneckResult  `json:"bottlenecks"`
	Targets     *Targets             `json:"targets"`
}

type StudySummary struct {
	ID        string    `json:"id"`
	StrDate   string    `json:"strDate"`
	Week      int       `json:"week"`
	LayoutID  string    `json:"layoutId"`
	LineID    string    `json:"lineId"`
	LineName  string    `json:"lineName"`
	UserID    string    `json:"userId"`
	TakeCount int       `json:"takeCount"`
	CreatedAt time.Time `json:"createdAt"`
}
