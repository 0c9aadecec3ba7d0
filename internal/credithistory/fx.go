package credithistory

import (
	"github.com/smallbiznis/vendorcredit/internal/credithistory/repository"
	"github.com/smallbiznis/vendorcredit/internal/credithistory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("credithistory.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
