package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/base/delivery"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/offering"
	"github.com/x-xyz/launchpad/middleware"
)

// participantHeader carries the caller identity. Requests without it
// are rejected on every operation that acts on someone's behalf.
const participantHeader = "X-Participant"

type handler struct {
	offering offering.UseCase
}

// New registers the offering routes
func New(e *echo.Echo, offeringUC offering.UseCase) {
	h := &handler{offeringUC}

	gs := e.Group("/offerings")

	gs.GET("", h.getAll, middleware.CacheHttp(30*time.Second))

	gs.POST("", h.create)

	g := e.Group("/offering/:collection/:series/:kind")

	g.GET("", h.get)

	g.DELETE("", h.conclude)

	g.GET("/proposals", h.getProposals)

	g.POST("/proposals", h.submitProposal)

	g.PUT("/proposals/:proposalId", h.modifyProposal)

	g.DELETE("/proposals/:proposalId", h.revokeProposal)

	g.POST("/buy", h.buyNow)

	g.POST("/accept", h.acceptProposals)
}

func participant(c echo.Context) (domain.Address, bool) {
	p := domain.Address(c.Request().Header.Get(participantHeader))
	if p.IsEmpty() {
		return "", false
	}
	return p.ToLower(), true
}

func bindId(c echo.Context) (offering.Id, error) {
	type params struct {
		Collection domain.Address    `param:"collection"`
		Series     string            `param:"series"`
		Kind       offering.SaleKind `param:"kind"`
	}
	p := params{}
	if err := c.Bind(&p); err != nil {
		return offering.Id{}, err
	}
	return offering.Id{
		Collection: p.Collection.ToLower(),
		Series:     p.Series,
		Kind:       p.Kind,
	}, nil
}

func (h *handler) getAll(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Seller *domain.Address    `query:"seller"`
		Kind   *offering.SaleKind `query:"kind"`
		Status *offering.Status   `query:"status"`
		Offset int32              `query:"offset"`
		Limit  int32              `query:"limit"`
		Sort   *string            `query:"sort"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []offering.FindAllOptionsFunc{}

	if p.Seller != nil {
		opts = append(opts, offering.WithSeller(p.Seller.ToLower()))
	}
	if p.Kind != nil {
		opts = append(opts, offering.WithKind(*p.Kind))
	}
	if p.Status != nil {
		opts = append(opts, offering.WithStatus(*p.Status))
	}
	if p.Offset != 0 || p.Limit != 0 {
		opts = append(opts, offering.WithPagination(p.Offset, p.Limit))
	} else {
		opts = append(opts, offering.WithPagination(0, 500))
	}
	if p.Sort != nil {
		opts = append(opts, offering.WithSort(*p.Sort))
	}

	if res, err := h.offering.FindAll(ctx, opts...); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	seller, ok := participant(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "missing X-Participant")
	}

	type payload struct {
		Collection       domain.Address           `json:"collection" validate:"required"`
		Series           string                   `json:"series" validate:"required"`
		Kind             offering.SaleKind        `json:"kind" validate:"required"`
		Supply           int64                    `json:"supply" validate:"required,gt=0"`
		BuyNowPrice      int64                    `json:"buyNowPrice" validate:"required,gt=0"`
		MinProposalPrice *int64                   `json:"minProposalPrice"`
		StartTime        *time.Time               `json:"startTime"`
		EndTime          *time.Time               `json:"endTime"`
		Royalties        map[domain.Address]int64 `json:"royalties"`
	}

	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.offering.Create(ctx, &offering.CreateOfferingPayload{
		Id: offering.Id{
			Collection: p.Collection.ToLower(),
			Series:     p.Series,
			Kind:       p.Kind,
		},
		Seller:           seller,
		Supply:           p.Supply,
		BuyNowPrice:      p.BuyNowPrice,
		MinProposalPrice: p.MinProposalPrice,
		StartTime:        p.StartTime,
		EndTime:          p.EndTime,
		Royalties:        p.Royalties,
	}, time.Now())
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, res)
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if res, err := h.offering.Get(ctx, id, time.Now()); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) conclude(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	seller, ok := participant(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "missing X-Participant")
	}

	id, err := bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.offering.Conclude(ctx, id, seller, time.Now()); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) getProposals(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	type params struct {
		Proposer   *domain.Address `query:"proposer"`
		Acceptable *bool           `query:"acceptable"`
		Offset     int32           `query:"offset"`
		Limit      int32           `query:"limit"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	opts := []offering.ProposalFindAllOptionsFunc{
		offering.ProposalWithOfferingId(id),
		offering.ProposalWithSort("proposalId"),
	}
	if p.Proposer != nil {
		opts = append(opts, offering.ProposalWithProposer(p.Proposer.ToLower()))
	}
	if p.Acceptable != nil {
		opts = append(opts, offering.ProposalWithAcceptable(*p.Acceptable))
	}
	if p.Offset != 0 || p.Limit != 0 {
		opts = append(opts, offering.ProposalWithPagination(p.Offset, p.Limit))
	}

	if res, err := h.offering.FindAllProposals(ctx, opts...); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) submitProposal(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	proposer, ok := participant(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "missing X-Participant")
	}

	id, err := bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	type payload struct {
		Price   int64 `json:"price" validate:"required,gt=0"`
		Deposit int64 `json:"deposit" validate:"required,gt=0"`
	}
	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	proposalId, err := h.offering.SubmitProposal(ctx, id, proposer, p.Price, p.Deposit, time.Now())
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, map[string]int64{"proposalId": proposalId})
}

func (h *handler) modifyProposal(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	proposer, ok := participant(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "missing X-Participant")
	}

	id, err := bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	type payload struct {
		ProposalId int64 `param:"proposalId" validate:"required,gt=0"`
		NewPrice   int64 `json:"newPrice" validate:"required,gt=0"`
		// additional escrow to attach on top of the held deposit
		Deposit int64 `json:"deposit" validate:"gte=0"`
	}
	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.offering.ModifyProposal(ctx, id, proposer, p.ProposalId, p.NewPrice, p.Deposit, time.Now())
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	if res == nil {
		// re-ranked without reaching the buy-now price
		return delivery.MakeJsonResp(c, http.StatusOK, "ok")
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) revokeProposal(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	proposer, ok := participant(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "missing X-Participant")
	}

	id, err := bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	type params struct {
		ProposalId int64 `param:"proposalId"`
	}
	p := params{}
	if err := c.Bind(&p); err != nil || p.ProposalId <= 0 {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	refund, err := h.offering.RevokeProposal(ctx, id, proposer, p.ProposalId, time.Now())
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]int64{"refund": refund})
}

func (h *handler) buyNow(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	buyer, ok := participant(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "missing X-Participant")
	}

	id, err := bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	type payload struct {
		Deposit int64 `json:"deposit" validate:"required,gt=0"`
	}
	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.offering.BuyNow(ctx, id, buyer, p.Deposit, time.Now())
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) acceptProposals(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	seller, ok := participant(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "missing X-Participant")
	}

	id, err := bindId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	type payload struct {
		Count int `json:"count" validate:"required,gt=0"`
	}
	p := &payload{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	results, err := h.offering.AcceptProposals(ctx, id, seller, p.Count, time.Now())
	if err != nil {
		// settlements resolved before the failure stay committed, so the
		// partial results ride along with the error
		return delivery.MakeJsonResp(c, delivery.StatusOf(err), map[string]interface{}{
			"error":   err.Error(),
			"settled": results,
		})
	}
	return delivery.MakeJsonResp(c, http.StatusOK, results)
}
