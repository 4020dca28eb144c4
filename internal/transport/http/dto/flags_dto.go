package dto

type FlagRequest struct {
	ContentID int64  `json:"content_id"`
	Reason    string `json:"reason"`
}

type FlagResponse struct {
	OK        bool `json:"ok"`
	FlagCount int  `json:"flag_count"`
}
