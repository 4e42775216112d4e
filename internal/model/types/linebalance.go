package types

import "ietool.dev/backend-next/internal/util/linebalance"

type CreateStudyRequest struct {
	StrDate string `json:"strDate" validate:"required,isodate" example:"2023-06-14"`
	LineID  string `json:"lineId" validate:"required,entityid"`
}

type CreateTakeRequest struct {
	StationIDs []string `json:"stationIds" validate:"required,min=1,dive,entityid"`
}

// UpdateCycleTimeRequest carries the full replacement sample list of a
// record. An empty list is accepted.
type UpdateCycleTimeRequest struct {
	CycleTime []float64 `json:"cycleTime" validate:"required"`
}

type CreateLayoutRequest struct {
	LineID string `json:"lineId" validate:"required,entityid"`
}

type UpdateStationsRequest struct {
	Stations []linebalance.DesiredStation `json:"stations" validate:"required,min=1,dive"`
}

type ListStudiesQuery struct {
	Week *int   `query:"week" validate:"omitempty,min=1,max=53"`
	Date string `query:"date" validate:"omitempty,isodate"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}
