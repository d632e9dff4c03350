package repository

import (
	"time"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/base/log"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/escrow"
	"github.com/x-xyz/launchpad/service/query"
	"go.mongodb.org/mongo-driver/bson"
)

type impl struct {
	q query.Mongo
}

func New(q query.Mongo) escrow.Repo {
	return &impl{q}
}

func (im *impl) FindOne(ctx ctx.Ctx, participant domain.Address) (*escrow.Account, error) {
	res := escrow.Account{}
	err := im.q.FindOne(ctx, domain.TableEscrowAccounts, bson.M{
		"participant": participant.ToLower(),
	}, &res)
	if err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":         err,
			"participant": participant,
		}).Error("failed to q.FindOne")
		return nil, err
	}

	return &res, nil
}

func (im *impl) Add(ctx ctx.Ctx, participant domain.Address, delta int64) (int64, error) {
	selector := bson.M{"participant": participant.ToLower()}
	res := escrow.Account{}
	err := im.q.IncrementMany(ctx, domain.TableEscrowAccounts, selector, bson.M{
		"balance": delta,
	}, bson.M{
		"updatedAt": time.Now(),
	}, &res)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":         err,
			"participant": participant,
			"delta":       delta,
		}).Error("failed to q.IncrementMany")
		return 0, err
	}

	return res.Balance, nil
}

func (im *impl) AddIfAtLeast(ctx ctx.Ctx, participant domain.Address, delta, min int64) error {
	selector := bson.M{
		"participant": participant.ToLower(),
		"balance":     bson.M{"$gte": min},
	}
	updater := bson.M{
		"$inc": bson.M{"balance": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	err := im.q.CustomPatch(ctx, domain.TableEscrowAccounts, selector, updater, false)
	if err == query.ErrNotFound {
		return domain.ErrInsufficientBalance
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":         err,
			"participant": participant,
			"delta":       delta,
			"min":         min,
		}).Error("failed to q.CustomPatch")
		return err
	}

	return nil
}
