package repayment

import (
	"github.com/smallbiznis/vendorcredit/internal/repayment/repository"
	"github.com/smallbiznis/vendorcredit/internal/repayment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("repayment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
