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

type offeringImpl struct {
	q query.Mongo
}

func NewOfferingRepo(q query.Mongo) offering.Repo {
	return &offeringImpl{q}
}

func (im *offeringImpl) makeQuery(options offering.FindAllOptions) (bson.M, error) {
	query := bson.M{}

	if options.Seller != nil {
		query["seller"] = options.Seller.ToLower()
	}

	if options.Kind != nil {
		query["kind"] = *options.Kind
	}

	if options.Status != nil {
		query["status"] = *options.Status
	}

	return query, nil
}

func (im *offeringImpl) FindAll(ctx ctx.Ctx, opts ...offering.FindAllOptionsFunc) ([]*offering.Offering, error) {
	options, err := offering.GetFindAllOptions(opts...)
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

	sort := "-createdAt"
	if options.Sort != nil {
		sort = *options.Sort
	}

	res := []*offering.Offering{}
	err = im.q.Search(ctx, domain.TableOfferings, offset, limit, sort, query, &res)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": query,
		}).Error("failed to q.Search")
		return nil, err
	}

	return res, nil
}

func (im *offeringImpl) Count(ctx ctx.Ctx, opts ...offering.FindAllOptionsFunc) (int, error) {
	options, err := offering.GetFindAllOptions(opts...)
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

	count, err := im.q.Count(ctx, domain.TableOfferings, query)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": query,
		}).Error("failed to q.Count")
		return 0, err
	}

	return count, nil
}

func (im *offeringImpl) FindOne(ctx ctx.Ctx, id offering.Id) (*offering.Offering, error) {
	selector, err := mongoclient.MakeBsonM(id)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to mongoclient.MakeBsonM")
		return nil, err
	}

	res := offering.Offering{}
	err = im.q.FindOne(ctx, domain.TableOfferings, selector, &res)
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

func (im *offeringImpl) Create(ctx ctx.Ctx, o *offering.Offering) error {
	err := im.q.Insert(ctx, domain.TableOfferings, o)
	if err == query.ErrDuplicateKey {
		return domain.ErrOfferingAlreadyListed
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"offering": *o,
		}).Error("failed to q.Insert")
		return err
	}

	return nil
}

func (im *offeringImpl) Update(ctx ctx.Ctx, id offering.Id, patchable offering.Patchable) error {
	selector, err := mongoclient.MakeBsonM(id)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to mongoclient.MakeBsonM")
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

	err = im.q.Patch(ctx, domain.TableOfferings, selector, updater)
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

func (im *offeringImpl) Remove(ctx ctx.Ctx, id offering.Id) error {
	selector, err := mongoclient.MakeBsonM(id)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to mongoclient.MakeBsonM")
		return err
	}

	err = im.q.Remove(ctx, domain.TableOfferings, selector)
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
