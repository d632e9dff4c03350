package delivery

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/service/query"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

// StatusOf maps the error taxonomy onto http statuses: validation and
// funding errors are 400, authorization 403, missing records 404,
// state conflicts 409 and external mint failures 502.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadParamInput),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidSupply),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrInsufficientDeposit),
		errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotSeller),
		errors.Is(err, domain.ErrNotProposalOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, query.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrOfferingAlreadyListed),
		errors.Is(err, domain.ErrOfferingNotRunning),
		errors.Is(err, domain.ErrOfferingStillRunning),
		errors.Is(err, domain.ErrProposalsDisabled),
		errors.Is(err, domain.ErrNoSupplyLeft),
		errors.Is(err, domain.ErrBelowAcceptableFloor),
		errors.Is(err, domain.ErrAlreadyOutbid),
		errors.Is(err, domain.ErrInsufficientProposals):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMintFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func MakeJsonResp(c echo.Context, status int, data interface{}) error {
	if err, ok := data.(error); ok {
		status = StatusOf(err)
		data = err.Error()
	}

	if status >= 400 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusFail})
	}

	if status >= 200 && status < 300 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusSuccess})
	}

	return c.JSON(status, data)
}
