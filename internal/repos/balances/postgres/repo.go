package balances

import (
	"github.com/fastprodman/coinflip/internal/infra/pgutils"
	"github.com/fastprodman/coinflip/internal/repos/balances"
)

var _ balances.Balances = (*balancesRepo)(nil)

type balancesRepo struct{ db pgutils.DBTX }

func New(db pgutils.DBTX) *balancesRepo {
	return &balancesRepo{db: db}
}
