package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("Your Item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("Given Param is not valid")

	// validation errors, rejected before any state mutation
	ErrInvalidPrice    = errors.New("invalid price")
	ErrInvalidSupply   = errors.New("invalid supply")
	ErrInvalidDuration = errors.New("invalid duration")

	// authorization errors
	ErrNotSeller        = errors.New("caller is not the seller")
	ErrNotProposalOwner = errors.New("caller does not own the proposal")

	// state errors
	ErrOfferingNotRunning    = errors.New("offering is not running")
	ErrOfferingStillRunning  = errors.New("offering is still running")
	ErrOfferingAlreadyListed = errors.New("offering is already listed")
	ErrProposalsDisabled     = errors.New("proposals are disabled for this offering")
	ErrNoSupplyLeft          = errors.New("no supply left")
	ErrBelowAcceptableFloor  = errors.New("price is below the acceptable floor")
	ErrAlreadyOutbid         = errors.New("proposal has already been outbid and refunded")
	ErrInsufficientProposals = errors.New("not enough standing proposals")
	ErrInsufficientDeposit   = errors.New("attached deposit is insufficient")
	ErrInsufficientBalance   = errors.New("escrow balance is insufficient")

	// external-call failures, handled by the settlement rollback path
	ErrMintFailed = errors.New("external mint failed")
)
