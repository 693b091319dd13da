package dto

// PeriodRequest is an inclusive YYYY-MM-DD date range. Missing ends default
// to today.
type PeriodRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}
