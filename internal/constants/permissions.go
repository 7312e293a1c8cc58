package constants

const (
	ViewRFPs         = "view_rfps"
	ManageRFPs       = "manage_rfps"
	ManageCategories = "manage_categories"
	SubmitBids       = "submit_bids"
	ReviewBids       = "review_bids"
	AwardContracts   = "award_contracts"
	ManageContracts  = "manage_contracts"
	ViewContracts    = "view_contracts"
	ManageUsers      = "manage_users"
	CheckIntegrity   = "check_integrity"
)
