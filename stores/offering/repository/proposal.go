package repository

import (
	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/base/database/mongoclient"
	"github.com/x-xyz/launchpad/base/log"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/offering"
	"github.com/x-xyz/launchpad/service/query"
	"go.mongodb.org/mongo-driver/bson"
)

type proposalImpl struct {
	q query.Mongo
}

func NewProposalRepo(q query.Mongo) offering.ProposalRepo {
	return &proposalImpl{q}
}

func (im *proposalImpl) makeQuery(options offering.ProposalFindAllOptions) (bson.M, error) {
	query := bson.M{}

	if options.OfferingId != nil {
		query["collection"] = options.OfferingId.Collection.ToLower()
		query["series"] = options.OfferingId.Series
		query["kind"] = options.OfferingId.Kind
	}

	if options.Proposer != nil {
		query["proposer"] = options.Proposer.ToLower()
	}

	if options.Acceptable != nil {
		query["acceptable"] = *options.Acceptable
	}

	return query, nil
}

func (im *proposalImpl) makeSelector(id offering.Id, proposalId int64) (bson.M, error) {
	selector, err := mongoclient.MakeBsonM(id)
	if err != nil {
		return nil, err
	}
	selector["proposalId"] = proposalId
	return selector, nil
}

func (im *proposalImpl) FindAll(ctx ctx.Ctx, opts ...offering.ProposalFindAllOptionsFunc) ([]*offering.Proposal, error) {
	options, err := offering.GetProposalFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}
	query, err := im.makeQuery(options)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
		}).Error("failed to im.makeQuery")
		return nil, err
	}

	offset := 0
	if options.Offset != nil {
		offset = int(*options.Offset)
	}

	limit := 0
	if options.Limit != nil {
		limit = int(*options.Limit)
	}

	sort := "proposalId"
	if options.Sort != nil {
		sort = *options.Sort
	}

	res := []*offering.Proposal{}
	err = im.q.Search(ctx, domain.TableProposals, offset, limit, sort, query, &res)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": query,
		}).Error("failed to q.Search")
		return nil, err
	}

	return res, nil
}

func (im *proposalImpl) Count(ctx ctx.Ctx, opts ...offering.ProposalFindAllOptionsFunc) (int, error) {
	options, err := offering.GetProposalFindAllOptions(opts...)
	if err != nil {
		return 0, err
	}
	query, err := im.makeQuery(options)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
		}).Error("failed to im.makeQuery")
		return 0, err
	}

	count, err := im.q.Count(ctx, domain.TableProposals, query)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": query,
		}).Error("failed to q.Count")
		return 0, err
	}

	return count, nil
}

func (im *proposalImpl) FindOne(ctx ctx.Ctx, id offering.Id, proposalId int64) (*offering.Proposal, error) {
	selector, err := im.makeSelector(id, proposalId)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to im.makeSelector")
		return nil, err
	}

	res := offering.Proposal{}
	err = im.q.FindOne(ctx, domain.TableProposals, selector, &res)
	if err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"selector": selector,
		}).Error("failed to q.FindOne")
		return nil, err
	}

	return &res, nil
}

func (im *proposalImpl) Create(ctx ctx.Ctx, proposal *offering.Proposal) error {
	err := im.q.Insert(ctx, domain.TableProposals, proposal)
	if err == query.ErrDuplicateKey {
		return domain.ErrConflict
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"proposal": *proposal,
		}).Error("failed to q.Insert")
		return err
	}

	return nil
}

func (im *proposalImpl) Update(ctx ctx.Ctx, id offering.Id, proposalId int64, patchable offering.ProposalPatchable) error {
	selector, err := im.makeSelector(id, proposalId)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to im.makeSelector")
		return err
	}

	updater, err := mongoclient.MakeBsonM(patchable)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":       err,
			"patchable": patchable,
		}).Error("failed to mongoclient.MakeBsonM")
		return err
	}

	err = im.q.Patch(ctx, domain.TableProposals, selector, updater)
	if err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"selector": selector,
			"updater":  updater,
		}).Error("failed to q.Patch")
		return err
	}

	return nil
}

func (im *proposalImpl) Remove(ctx ctx.Ctx, id offering.Id, proposalId int64) error {
	selector, err := im.makeSelector(id, proposalId)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to im.makeSelector")
		return err
	}

	err = im.q.Remove(ctx, domain.TableProposals, selector)
	if err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"selector": selector,
		}).Error("failed to q.Remove")
		return err
	}

	return nil
}

func (im *proposalImpl) RemoveAll(ctx ctx.Ctx, opts ...offering.ProposalFindAllOptionsFunc) error {
	options, err := offering.GetProposalFindAllOptions(opts...)
	if err != nil {
		return err
	}
	query, err := im.makeQuery(options)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
		}).Error("failed to im.makeQuery")
		return err
	}

	_, err = im.q.RemoveAll(ctx, domain.TableProposals, query)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": query,
		}).Error("failed to q.RemoveAll")
		return err
	}

	return nil
}
