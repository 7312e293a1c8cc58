package lifecycle

import "errors"

var (
	ErrRFPNotFound          = errors.New("RFP not found")
	ErrRFPNotOpen           = errors.New("RFP is not open for bidding")
	ErrDuplicateBid         = errors.New("You have already submitted a bid for this RFP")
	ErrInvalidAmount        = errors.New("Bid amount must be greater than zero")
	ErrInvalidProposal      = errors.New("Proposal is required")
	ErrBidNotFound          = errors.New("Bid not found")
	ErrBidLocked            = errors.New("Bid can no longer be changed")
	ErrInvalidContractTerms = errors.New("Contract value must be positive and end date after start date")
	ErrRFPAlreadyAwarded    = errors.New("RFP has already been awarded")
	ErrInvalidTransition    = errors.New("Status transition not allowed")
	ErrInvariantViolation   = errors.New("Award integrity check failed")
)
