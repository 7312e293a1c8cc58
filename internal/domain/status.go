package domain

// RFPStatus is the lifecycle state of an RFP.
type RFPStatus string

const (
	RFPDraft     RFPStatus = "draft"
	RFPPublished RFPStatus = "published"
	RFPClosed    RFPStatus = "closed"
	RFPAwarded   RFPStatus = "awarded"
	RFPCancelled RFPStatus = "cancelled"
)

// rfpEdges lists the transitions an admin may apply directly.
// Awarded is reached only through the award workflow and never appears as a target.
var rfpEdges = map[RFPStatus][]RFPStatus{
	RFPDraft:     {RFPPublished, RFPCancelled},
	RFPPublished: {RFPClosed, RFPCancelled},
	RFPClosed:    {RFPPublished, RFPCancelled},
	RFPAwarded:   {RFPCancelled},
}

func (s RFPStatus) Valid() bool {
	switch s {
	case RFPDraft, RFPPublished, RFPClosed, RFPAwarded, RFPCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an admin may move an RFP from s to next directly.
func (s RFPStatus) CanTransitionTo(next RFPStatus) bool {
	for _, to := range rfpEdges[s] {
		if to == next {
			return true
		}
	}
	return false
}

// Awardable reports whether the award workflow may close an RFP in this state.
func (s RFPStatus) Awardable() bool {
	return s == RFPPublished || s == RFPClosed
}

// Editable is false once the RFP has reached a terminal state.
func (s RFPStatus) Editable() bool {
	return s != RFPAwarded && s != RFPCancelled
}

// BidStatus is the review state of a bid.
type BidStatus string

const (
	BidPending     BidStatus = "pending"
	BidUnderReview BidStatus = "under_review"
	BidShortlisted BidStatus = "shortlisted"
	BidApproved    BidStatus = "approved"
	BidRejected    BidStatus = "rejected"
	BidWithdrawn   BidStatus = "withdrawn"
)

// OpenBidStatuses are the states still competing for an award.
var OpenBidStatuses = []BidStatus{BidPending, BidUnderReview, BidShortlisted}

func (s BidStatus) Valid() bool {
	switch s {
	case BidPending, BidUnderReview, BidShortlisted, BidApproved, BidRejected, BidWithdrawn:
		return true
	}
	return false
}

// Open reports whether the bid is still in review.
func (s BidStatus) Open() bool {
	for _, o := range OpenBidStatuses {
		if s == o {
			return true
		}
	}
	return false
}

// AdminSettable reports whether an admin may set this status from the review screen.
// Approved is only reachable by awarding a contract; withdrawn belongs to the vendor.
func (s BidStatus) AdminSettable() bool {
	return s.Open() || s == BidRejected
}

// ContractStatus is the state of an awarded contract.
type ContractStatus string

const (
	ContractActive     ContractStatus = "active"
	ContractCompleted  ContractStatus = "completed"
	ContractTerminated ContractStatus = "terminated"
)

var contractEdges = map[ContractStatus][]ContractStatus{
	ContractActive: {ContractCompleted, ContractTerminated},
}

func (s ContractStatus) Valid() bool {
	switch s {
	case ContractActive, ContractCompleted, ContractTerminated:
		return true
	}
	return false
}

func (s ContractStatus) CanTransitionTo(next ContractStatus) bool {
	for _, to := range contractEdges[s] {
		if to == next {
			return true
		}
	}
	return false
}
