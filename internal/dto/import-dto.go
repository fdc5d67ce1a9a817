package dto

// ImportResultDTO summarizes an Excel import run.
type ImportResultDTO struct {
	SuccessCount int      `json:"success_count"`
	FailCount    int      `json:"fail_count"`
	Errors       []string `json:"errors"`
}
