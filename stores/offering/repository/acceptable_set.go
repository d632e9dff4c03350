package repository

import (
	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/base/database/mongoclient"
	"github.com/x-xyz/launchpad/base/log"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/offering"
	"github.com/x-xyz/launchpad/service/query"
)

type acceptableSetImpl struct {
	q query.Mongo
}

func NewAcceptableSetRepo(q query.Mongo) offering.AcceptableSetRepo {
	return &acceptableSetImpl{q}
}

func (im *acceptableSetImpl) FindOne(ctx ctx.Ctx, id offering.Id) (*offering.AcceptableSet, error) {
	selector, err := mongoclient.MakeBsonM(id)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to mongoclient.MakeBsonM")
		return nil, err
	}

	res := offering.AcceptableSet{}
	err = im.q.FindOne(ctx, domain.TableAcceptableSets, selector, &res)
	if err == query.ErrNotFound {
		// an offering without stored ranking has an empty set
		return &offering.AcceptableSet{Id: id, ProposalIds: []int64{}}, nil
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"selector": selector,
		}).Error("failed to q.FindOne")
		return nil, err
	}

	return &res, nil
}

func (im *acceptableSetImpl) Save(ctx ctx.Ctx, set *offering.AcceptableSet) error {
	selector, err := mongoclient.MakeBsonM(set.Id)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  set.Id,
		}).Error("failed to mongoclient.MakeBsonM")
		return err
	}

	err = im.q.Upsert(ctx, domain.TableAcceptableSets, selector, set)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"selector": selector,
			"set":      *set,
		}).Error("failed to q.Upsert")
		return err
	}

	return nil
}

func (im *acceptableSetImpl) Remove(ctx ctx.Ctx, id offering.Id) error {
	selector, err := mongoclient.MakeBsonM(id)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to mongoclient.MakeBsonM")
		return err
	}

	err = im.q.Remove(ctx, domain.TableAcceptableSets, selector)
	if err != nil && err != query.ErrNotFound {
		ctx.WithFields(log.Fields{
			"err":      err,
			"selector": selector,
		}).Error("failed to q.Remove")
		return err
	}

	return nil
}
